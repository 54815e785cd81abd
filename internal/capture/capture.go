// Package capture turns a raw stream of key presses into barcode tokens.
//
// Keyboard-wedge scanners type a barcode as a burst of key presses closed by
// Enter. A buffer collects printable characters and is dropped after an idle
// gap, so slow human typing that never reaches Enter never becomes a token.
package capture

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/facebookgo/clock"
)

// DefaultIdleTimeout is the longest gap between two scanner keystrokes
const DefaultIdleTimeout = 100 * time.Millisecond

// KeyEnter terminates a scanned token
const KeyEnter = "Enter"

// ErrCaptureDetached is returned once the capture has been detached
var ErrCaptureDetached = errors.New("capture is detached")

// Target names the element a key event was aimed at
type Target string

// Text entry targets whose keystrokes belong to the field, not the scanner
const (
	TargetInput           Target = "input"
	TargetTextarea        Target = "textarea"
	TargetContentEditable Target = "contenteditable"
)

// IsInteractive reports whether the target is a text entry element
func (t Target) IsInteractive() bool {
	switch Target(strings.ToLower(string(t))) {
	case TargetInput, TargetTextarea, TargetContentEditable:
		return true
	}
	return false
}

// KeyEvent is one key press
type KeyEvent struct {
	Key    string
	Target Target
}

// Option configures a Capture
type Option func(*Capture)

// WithClock sets the clock used for the idle timer
func WithClock(c clock.Clock) Option {
	return func(kc *Capture) { kc.clock = c }
}

// WithIdleTimeout overrides DefaultIdleTimeout
func WithIdleTimeout(d time.Duration) Option {
	return func(kc *Capture) {
		if d > 0 {
			kc.idle = d
		}
	}
}

// Capture buffers key presses and emits completed tokens
type Capture struct {
	mu       sync.Mutex
	clock    clock.Clock
	idle     time.Duration
	emit     func(token string)
	buffer   strings.Builder
	timer    *clock.Timer
	gen      uint64
	detached bool
}

// New attaches a capture that hands every completed token to emit
func New(emit func(token string), opts ...Option) *Capture {
	c := &Capture{
		clock: clock.New(),
		idle:  DefaultIdleTimeout,
		emit:  emit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleKey feeds one key press. Interactive targets are ignored entirely.
// emit runs on the caller's goroutine after the buffer lock is released, so
// callers feeding one capture from several goroutines must serialize.
func (c *Capture) HandleKey(e KeyEvent) error {
	c.mu.Lock()

	if c.detached {
		c.mu.Unlock()
		return ErrCaptureDetached
	}
	if e.Target.IsInteractive() {
		c.mu.Unlock()
		return nil
	}

	c.cancelTimerLocked()

	var token string
	switch {
	case e.Key == KeyEnter:
		token = c.buffer.String()
		c.buffer.Reset()
	case isPrintable(e.Key):
		c.buffer.WriteString(e.Key)
		c.armTimerLocked()
	}

	c.mu.Unlock()

	if token != "" {
		c.emit(token)
	}
	return nil
}

// Buffer returns the partial token collected so far
func (c *Capture) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.String()
}

// Detach stops the capture. Later key presses are rejected and a pending
// idle timer is cancelled. Detaching twice returns ErrCaptureDetached.
func (c *Capture) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return ErrCaptureDetached
	}
	c.detached = true
	c.cancelTimerLocked()
	c.buffer.Reset()
	return nil
}

func (c *Capture) cancelTimerLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Capture) armTimerLocked() {
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.idle, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// a newer key press or a detach already superseded this timer
		if c.gen != gen || c.detached {
			return
		}
		c.buffer.Reset()
		c.timer = nil
	})
}

func isPrintable(key string) bool {
	if utf8.RuneCountInString(key) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(key)
	return unicode.IsPrint(r)
}
