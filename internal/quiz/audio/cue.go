package audio

import (
	"github.com/rs/zerolog"
)

// Cue is one playable audio resource. Play starts playback and returns
// immediately; a non-nil error means playback was rejected (the usual case
// before the unlock handshake has succeeded). Completion is never awaited.
type Cue interface {
	Play() error
	Pause()
	Rewind()
	Close() error
}

// Provider creates cues from sound file paths. It is the boundary to the
// host's audio backend; the sync core never touches audio output directly.
type Provider interface {
	NewCue(path string) (Cue, error)
}

// LogProvider is a Provider whose cues only log. It stands in for a real
// backend in headless environments and in the demo client.
type LogProvider struct {
	Logger zerolog.Logger
}

func (p LogProvider) NewCue(path string) (Cue, error) {
	return &logCue{path: path, log: p.Logger}, nil
}

type logCue struct {
	path string
	log  zerolog.Logger
}

func (c *logCue) Play() error {
	c.log.Debug().Str("cue", c.path).Msg("play")
	return nil
}

func (c *logCue) Pause() {
	c.log.Debug().Str("cue", c.path).Msg("pause")
}

func (c *logCue) Rewind() {
	c.log.Debug().Str("cue", c.path).Msg("rewind")
}

func (c *logCue) Close() error {
	c.log.Debug().Str("cue", c.path).Msg("close")
	return nil
}
