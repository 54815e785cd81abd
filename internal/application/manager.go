package application

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/errors"
	"github.com/wms-platform/scanner-service/pkg/logging"
)

// CameraBridge is the camera scanner registration that can also hand a decoded
// barcode to the registered callback
type CameraBridge interface {
	domain.CameraScanner
	Deliver(sessionID, barcode string) error
}

// SessionManager owns the open scan sessions. Sessions never share state or
// capture; the manager only routes commands to them.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg    SessionConfig
	deps   SessionDeps
	camera CameraBridge
	logger *logging.Logger
	newID  func() string
}

// NewSessionManager creates a new SessionManager. camera may be nil, in which
// case camera scans are rejected.
func NewSessionManager(cfg SessionConfig, deps SessionDeps, camera CameraBridge) *SessionManager {
	if camera != nil {
		deps.Camera = camera
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		deps:     deps,
		camera:   camera,
		logger:   deps.Logger.WithComponent("session-manager"),
		newID:    uuid.NewString,
	}
}

// Start opens a session on the operation and performs the initial load.
// An unknown operation discards the session and reports not found.
func (m *SessionManager) Start(ctx context.Context, cmd StartSessionCommand) (SessionView, error) {
	if cmd.OperationID == "" {
		return SessionView{}, errors.ErrValidation("operationId is required")
	}

	id := m.newID()
	s := newSession(id, cmd.OperationID, m.cfg, m.deps, m.remove)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	s.start()
	if err := s.load(logging.ContextWithSessionID(ctx, id)); err != nil {
		m.logger.WithError(err).Warn("Failed to start scan session", "sessionId", id, "operationId", cmd.OperationID)
		if !s.Active() {
			<-s.Done()
		}
		return s.View(), err
	}

	m.logger.Info("Started scan session", "sessionId", id, "operationId", cmd.OperationID)
	return s.View(), nil
}

// Get returns an open session
func (m *SessionManager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, errors.ErrNotFoundWithID("scan session", sessionID)
	}
	return s, nil
}

// View returns the latest snapshot of a session
func (m *SessionManager) View(sessionID string) (SessionView, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.View(), nil
}

// Keys returns the ids of the open sessions in sorted order
func (m *SessionManager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HandleKeys feeds key events to the session's capture. Tokens they complete
// are queued on the session and resolved asynchronously.
func (m *SessionManager) HandleKeys(_ context.Context, cmd HandleKeysCommand) error {
	s, err := m.Get(cmd.SessionID)
	if err != nil {
		return err
	}
	return s.HandleKeys(cmd.Events)
}

// ScanCamera hands a decoded barcode to the session's camera registration and
// waits until it has been resolved
func (m *SessionManager) ScanCamera(ctx context.Context, cmd CameraScanCommand) (SessionView, error) {
	if m.camera == nil {
		return SessionView{}, errors.ErrServiceUnavailable("camera scanner")
	}
	if strings.TrimSpace(cmd.Barcode) == "" {
		return SessionView{}, errors.ErrValidation("barcode is required")
	}
	s, err := m.Get(cmd.SessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := m.camera.Deliver(cmd.SessionID, cmd.Barcode); err != nil {
		return s.View(), errors.ErrSessionClosed(cmd.SessionID).Wrap(err)
	}
	return s.Sync(ctx)
}

// ToggleScanMode flips the session's scan mode
func (m *SessionManager) ToggleScanMode(ctx context.Context, cmd SessionCommand) (SessionView, error) {
	s, err := m.Get(cmd.SessionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.ToggleScanMode(ctx)
}

// Reload re-runs the session's load step
func (m *SessionManager) Reload(ctx context.Context, cmd SessionCommand) (SessionView, error) {
	s, err := m.Get(cmd.SessionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.Reload(ctx)
}

// Validate finalizes the session's operation
func (m *SessionManager) Validate(ctx context.Context, cmd SessionCommand) (SessionView, error) {
	s, err := m.Get(cmd.SessionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.Validate(ctx)
}

// Close tears a session down and returns its final view
func (m *SessionManager) Close(ctx context.Context, cmd SessionCommand) (SessionView, error) {
	s, err := m.Get(cmd.SessionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.Close(ctx)
}

// Shutdown closes every open session
func (m *SessionManager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if _, err := s.Close(ctx); err != nil {
			m.logger.WithError(err).Debug("Session already closed", "sessionId", s.ID())
		}
	}
	m.logger.Info("Closed scan sessions", "count", len(sessions))
}

func (m *SessionManager) remove(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}
