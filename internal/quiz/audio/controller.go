package audio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultCountdownThreshold is the timer value at which the countdown cue
// starts. The server counts down in whole seconds, so exact equality at the
// start boundary is always reachable.
const DefaultCountdownThreshold = 10

// Config holds configuration for the audio cue controller.
type Config struct {
	BuzzSound          string
	CountdownSound     string
	CountdownThreshold int
}

// DefaultConfig returns default audio configuration.
func DefaultConfig() Config {
	return Config{
		BuzzSound:          "sounds/buzz.mp3",
		CountdownSound:     "sounds/countdown.mp3",
		CountdownThreshold: DefaultCountdownThreshold,
	}
}

// Controller maps game-state transitions to the two audio cues. Both cues are
// created once per session; playback rejections are swallowed because audio
// is a non-essential side channel.
type Controller struct {
	buzz      Cue
	countdown Cue
	threshold int

	mu               sync.Mutex
	unlocked         bool
	countdownPlaying bool
	lastTimer        int
	timerObserved    bool
}

// NewController acquires both cue resources up front so no allocation happens
// on the playback path.
func NewController(provider Provider, cfg Config) (*Controller, error) {
	threshold := cfg.CountdownThreshold
	if threshold <= 0 {
		threshold = DefaultCountdownThreshold
	}

	buzz, err := provider.NewCue(cfg.BuzzSound)
	if err != nil {
		return nil, fmt.Errorf("create buzz cue: %w", err)
	}
	countdown, err := provider.NewCue(cfg.CountdownSound)
	if err != nil {
		buzz.Close()
		return nil, fmt.Errorf("create countdown cue: %w", err)
	}

	return &Controller{
		buzz:      buzz,
		countdown: countdown,
		threshold: threshold,
	}, nil
}

// Unlock performs the play-then-pause handshake that satisfies autoplay
// restrictions. Call it from a genuine user gesture; a rejected attempt
// leaves the latch open for retry and is not an error. The latch is shared by
// both cues and never resets for the life of the session.
func (c *Controller) Unlock() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unlocked {
		return
	}
	if err := c.buzz.Play(); err != nil {
		log.Debug().Err(err).Msg("audio unlock rejected")
		return
	}
	c.buzz.Pause()
	c.buzz.Rewind()
	c.unlocked = true
	log.Info().Msg("audio unlocked")
}

// Unlocked reports whether the unlock handshake has succeeded.
func (c *Controller) Unlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlocked
}

// Buzz rewinds and plays the buzzer cue. It fires on every buzz event, even
// before unlock; a rejection only costs the sound.
func (c *Controller) Buzz() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buzz.Rewind()
	if err := c.buzz.Play(); err != nil {
		log.Debug().Err(err).Msg("buzz playback rejected")
	}
}

// ObserveTimer drives the countdown cue off timer transitions. Only a changed
// value acts: the threshold starts the cue, zero or anything above the
// threshold stops it (covering both natural expiry and a new cycle starting
// above the threshold), and every value in between leaves it running.
func (c *Controller) ObserveTimer(value int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timerObserved && value == c.lastTimer {
		return
	}
	c.lastTimer = value
	c.timerObserved = true

	switch {
	case value == c.threshold:
		c.countdown.Rewind()
		if err := c.countdown.Play(); err != nil {
			log.Debug().Err(err).Msg("countdown playback rejected")
			return
		}
		c.countdownPlaying = true

	case value == 0 || value > c.threshold:
		if c.countdownPlaying {
			c.countdown.Pause()
			c.countdown.Rewind()
			c.countdownPlaying = false
		}
	}
}

// Close releases both cue resources. The session tears down subscriptions
// first, so no trigger can fire on a released cue.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	if err := c.buzz.Close(); err != nil {
		firstErr = err
	}
	if err := c.countdown.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
