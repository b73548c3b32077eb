package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizwire/quizsync/internal/quiz/audio"
	"github.com/quizwire/quizsync/internal/quiz/channel"
	"github.com/quizwire/quizsync/internal/quiz/config"
	"github.com/quizwire/quizsync/internal/quiz/session"
)

func main() {
	configPath := flag.String("config", "quizsync.yaml", "path to config file")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := openChannel(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open game channel")
	}
	defer ch.Close()

	sess := session.New(ch, audio.LogProvider{Logger: log.Logger}, cfg.AudioConfig())
	if err := sess.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start session")
	}

	log.Info().
		Str("transport", cfg.Transport).
		Str("url", cfg.ChannelURL).
		Msg("quiz client running")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	if err := sess.Close(); err != nil {
		log.Error().Err(err).Msg("session close failed")
	}
}

func openChannel(ctx context.Context, cfg config.Config) (channel.Channel, error) {
	switch cfg.Transport {
	case config.TransportNATS:
		natsCfg := channel.DefaultNATSConfig(cfg.SubjectPrefix)
		natsCfg.URL = cfg.ChannelURL
		return channel.ConnectNATS(natsCfg)
	default:
		return channel.DialWebSocket(ctx, channel.DefaultWebSocketConfig(cfg.ChannelURL))
	}
}
