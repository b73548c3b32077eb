package channel

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS channel adapter.
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "quiz.game.<gameID>"
	MaxReconnects int
	ReconnectWait time.Duration
	DispatchDepth int
}

// DefaultNATSConfig returns default NATS adapter configuration.
func DefaultNATSConfig(subjectPrefix string) NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: subjectPrefix,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		DispatchDepth: 100,
	}
}

// NATS is a Channel backed by core NATS subjects, one subject per event name
// under the configured prefix. Messages from every subscription are funneled
// through a single dispatch goroutine so handlers never run concurrently.
type NATS struct {
	nc  *nats.Conn
	cfg NATSConfig

	mu       sync.RWMutex
	handlers map[string]Handler
	subs     map[string]*nats.Subscription

	dispatch  chan inbound
	done      chan struct{}
	closeOnce sync.Once
}

type inbound struct {
	event   string
	payload json.RawMessage
}

// ConnectNATS connects to the NATS server and starts the dispatch loop.
func ConnectNATS(cfg NATSConfig) (*NATS, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	n := &NATS{
		nc:       nc,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		subs:     make(map[string]*nats.Subscription),
		dispatch: make(chan inbound, cfg.DispatchDepth),
		done:     make(chan struct{}),
	}
	go n.run()

	return n, nil
}

func (n *NATS) subject(event string) string {
	return n.cfg.SubjectPrefix + "." + event
}

func (n *NATS) On(event string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handlers[event] = h
	if _, ok := n.subs[event]; ok {
		return
	}

	sub, err := n.nc.Subscribe(n.subject(event), func(msg *nats.Msg) {
		select {
		case n.dispatch <- inbound{event: event, payload: msg.Data}:
		case <-n.done:
		}
	})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("NATS subscribe failed")
		return
	}
	n.subs[event] = sub
}

func (n *NATS) Off(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.handlers, event)
	if sub, ok := n.subs[event]; ok {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Str("event", event).Msg("NATS unsubscribe failed")
		}
		delete(n.subs, event)
	}
}

func (n *NATS) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return n.nc.Publish(n.subject(event), data)
}

func (n *NATS) Close() error {
	n.closeOnce.Do(func() {
		close(n.done)
		n.nc.Close()
	})
	return nil
}

// run dispatches inbound messages sequentially. The handler map is consulted
// at dispatch time, so a message already queued when Off runs is dropped
// rather than delivered.
func (n *NATS) run() {
	for {
		select {
		case <-n.done:
			return
		case msg := <-n.dispatch:
			n.mu.RLock()
			h := n.handlers[msg.event]
			if h != nil {
				h(msg.payload)
			}
			n.mu.RUnlock()
		}
	}
}
