// Package camera keeps the camera scanner registrations of open sessions and
// hands barcodes decoded on the client back to them.
package camera

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wms-platform/scanner-service/internal/domain"
)

// Errors
var (
	ErrNotRegistered     = errors.New("no camera scanner registered")
	ErrAlreadyRegistered = errors.New("camera scanner already registered")
	ErrEmptyBarcode      = errors.New("decoded barcode is empty")
)

// Bridge is an in-memory camera scanner registry
type Bridge struct {
	mu            sync.RWMutex
	registrations map[string]domain.ScannerOptions
}

// NewBridge creates a new Bridge
func NewBridge() *Bridge {
	return &Bridge{registrations: make(map[string]domain.ScannerOptions)}
}

// OpenScanner registers the session's scanner dialog
func (b *Bridge) OpenScanner(sessionID string, opts domain.ScannerOptions) error {
	if opts.OnScan == nil {
		return fmt.Errorf("camera scanner for session %s has no callback", sessionID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.registrations[sessionID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, sessionID)
	}
	b.registrations[sessionID] = opts
	return nil
}

// CloseScanner drops the session's registration. Closing twice is a no-op.
func (b *Bridge) CloseScanner(sessionID string) {
	b.mu.Lock()
	delete(b.registrations, sessionID)
	b.mu.Unlock()
}

// Title returns the dialog title registered for the session
func (b *Bridge) Title(sessionID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	opts, ok := b.registrations[sessionID]
	return opts.Title, ok
}

// Deliver hands a decoded barcode to the session's callback. The callback runs
// outside the registry lock.
func (b *Bridge) Deliver(sessionID, barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return ErrEmptyBarcode
	}

	b.mu.RLock()
	opts, ok := b.registrations[sessionID]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, sessionID)
	}
	opts.OnScan(barcode)
	return nil
}
