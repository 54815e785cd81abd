package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/scanner-service/internal/capture"
	"github.com/wms-platform/scanner-service/internal/domain"
	apperrors "github.com/wms-platform/scanner-service/pkg/errors"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
	"github.com/wms-platform/scanner-service/pkg/tracing"
)

// ReturnModel is the record kind a closed session navigates back to
const ReturnModel = "stock.picking"

const commandQueueSize = 64

// DefaultPublishTimeout keeps a stalled broker from holding up queued scans
const DefaultPublishTimeout = 2 * time.Second

// SessionConfig holds per-session tuning
type SessionConfig struct {
	IdleTimeout       time.Duration
	AutoValidate      bool
	NotificationLimit int
	CommandTimeout    time.Duration

	// PublishTimeout bounds each event publish made from the session loop
	PublishTimeout time.Duration
	Clock          clock.Clock
}

// DefaultSessionConfig returns the default session configuration
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTimeout:       capture.DefaultIdleTimeout,
		NotificationLimit: domain.DefaultNotificationLimit,
		CommandTimeout:    30 * time.Second,
		PublishTimeout:    DefaultPublishTimeout,
		Clock:             clock.New(),
	}
}

// SessionDeps are the collaborators shared by all sessions
type SessionDeps struct {
	Router     *ScanRouter
	Reconciler *Reconciler
	Finalizer  domain.OperationFinalizer
	Publisher  domain.EventPublisher
	Camera     domain.CameraScanner
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
}

type command struct {
	name string
	ctx  context.Context
	run  func(ctx context.Context) error
	// reply is nil for fire-and-forget submissions
	reply chan error
}

// Session is one scan session bound to one operation. All state mutation runs
// on the session's own goroutine; readers only ever see published views.
type Session struct {
	id          string
	operationID string
	cfg         SessionConfig
	deps        SessionDeps
	logger      *logging.Logger
	tracer      trace.Tracer

	capture  *capture.Capture
	keysMu   sync.Mutex
	commands chan command
	done     chan struct{}
	active   atomic.Bool
	view     atomic.Pointer[SessionView]
	onExit   func(sessionID string)

	// owned by the loop goroutine
	state       *domain.SessionState
	version     uint64
	lastOutcome *OutcomeDTO
}

func newSession(id, operationID string, cfg SessionConfig, deps SessionDeps, onExit func(string)) *Session {
	s := &Session{
		id:          id,
		operationID: operationID,
		cfg:         cfg,
		deps:        deps,
		logger:      deps.Logger.WithSession(id, operationID),
		tracer:      otel.Tracer("scanner-service"),
		commands:    make(chan command, commandQueueSize),
		done:        make(chan struct{}),
		onExit:      onExit,
		state:       domain.NewSessionState(cfg.NotificationLimit),
	}
	s.capture = capture.New(
		func(token string) { s.submitAsync(token, SourceKeyboard) },
		capture.WithClock(cfg.Clock),
		capture.WithIdleTimeout(cfg.IdleTimeout),
	)
	s.active.Store(true)
	s.publishView()
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// View returns the latest published snapshot
func (s *Session) View() SessionView {
	return *s.view.Load()
}

// Done is closed once the session loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Active reports whether the session still accepts commands
func (s *Session) Active() bool {
	return s.active.Load()
}

func (s *Session) start() {
	s.deps.Metrics.SessionOpened()
	if s.deps.Camera != nil {
		err := s.deps.Camera.OpenScanner(s.id, domain.ScannerOptions{
			Title:  MsgCameraScannerTitle,
			OnScan: func(barcode string) { s.submitAsync(barcode, SourceCamera) },
		})
		if err != nil {
			s.logger.WithError(err).Warn("Failed to register camera scanner")
		}
	}
	go s.loop()
}

func (s *Session) loop() {
	defer func() {
		s.active.Store(false)
		if s.deps.Camera != nil {
			s.deps.Camera.CloseScanner(s.id)
		}
		s.deps.Metrics.SessionClosed()
		if s.onExit != nil {
			s.onExit(s.id)
		}
		close(s.done)
	}()

	for cmd := range s.commands {
		err := s.execute(cmd)
		s.publishView()
		if cmd.reply != nil {
			cmd.reply <- err
		}
		if s.state.Closed {
			return
		}
	}
}

func (s *Session) execute(cmd command) error {
	if !s.active.Load() && cmd.name != "close" {
		s.logger.Debug("Dropping command for inactive session", "command", cmd.name)
		return apperrors.ErrSessionClosed(s.id)
	}

	ctx, cancel := context.WithTimeout(cmd.ctx, s.cfg.CommandTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Panic(ctx, r)
		}
	}()

	return cmd.run(ctx)
}

func (s *Session) publishView() {
	s.version++
	view := ToSessionView(s.id, s.version, s.state, s.lastOutcome)
	s.view.Store(&view)
}

func (s *Session) enqueue(cmd command) error {
	select {
	case <-s.done:
		return apperrors.ErrSessionClosed(s.id)
	default:
	}
	select {
	case s.commands <- cmd:
		return nil
	case <-s.done:
		return apperrors.ErrSessionClosed(s.id)
	}
}

// do queues a command behind everything already queued and waits for it
func (s *Session) do(ctx context.Context, name string, run func(ctx context.Context) error) (SessionView, error) {
	if !s.active.Load() {
		return s.View(), apperrors.ErrSessionClosed(s.id)
	}
	return s.await(ctx, name, run)
}

func (s *Session) await(ctx context.Context, name string, run func(ctx context.Context) error) (SessionView, error) {
	cmd := command{
		name:  name,
		ctx:   context.WithoutCancel(ctx),
		run:   run,
		reply: make(chan error, 1),
	}
	if err := s.enqueue(cmd); err != nil {
		return s.View(), err
	}

	select {
	case err := <-cmd.reply:
		return s.View(), err
	case <-s.done:
		select {
		case err := <-cmd.reply:
			return s.View(), err
		default:
			return s.View(), apperrors.ErrSessionClosed(s.id)
		}
	case <-ctx.Done():
		return s.View(), apperrors.ErrTimeout(name).Wrap(ctx.Err())
	}
}

func (s *Session) submitAsync(token, source string) {
	if !s.active.Load() {
		return
	}
	cmd := command{
		name: "submit",
		ctx:  logging.ContextWithSessionID(context.Background(), s.id),
		run:  func(ctx context.Context) error { return s.handleSubmit(ctx, token, source) },
	}
	if err := s.enqueue(cmd); err != nil {
		s.logger.Debug("Dropping token for closed session", "source", source)
	}
}

// load fetches the operation and its first reconciliation
func (s *Session) load(ctx context.Context) error {
	_, err := s.await(ctx, "load", s.handleLoad)
	return err
}

// HandleKeys feeds key events through the session's capture in order
func (s *Session) HandleKeys(events []capture.KeyEvent) error {
	if !s.active.Load() {
		return apperrors.ErrSessionClosed(s.id)
	}
	// one batch at a time, so tokens reach the queue in the order they completed
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	for _, e := range events {
		if err := s.capture.HandleKey(e); err != nil {
			if errors.Is(err, capture.ErrCaptureDetached) {
				return apperrors.ErrSessionClosed(s.id)
			}
			return err
		}
	}
	return nil
}

// Submit queues a token as if it had been captured from source and waits for
// its outcome to be applied
func (s *Session) Submit(ctx context.Context, token, source string) (SessionView, error) {
	return s.do(ctx, "submit", func(ctx context.Context) error {
		return s.handleSubmit(ctx, token, source)
	})
}

// Sync waits until every command queued before it has been processed
func (s *Session) Sync(ctx context.Context) (SessionView, error) {
	return s.do(ctx, "sync", func(context.Context) error { return nil })
}

// ToggleScanMode flips the scan mode hint
func (s *Session) ToggleScanMode(ctx context.Context) (SessionView, error) {
	return s.do(ctx, "toggle", s.handleToggle)
}

// Reload re-runs the load step
func (s *Session) Reload(ctx context.Context) (SessionView, error) {
	return s.do(ctx, "reload", s.handleReload)
}

// Validate finalizes the operation when the session allows it
func (s *Session) Validate(ctx context.Context) (SessionView, error) {
	return s.do(ctx, "validate", func(ctx context.Context) error {
		return s.handleValidate(ctx, false)
	})
}

// Close detaches capture, stops accepting commands and tears the session down.
// Results of work still in flight are dropped.
func (s *Session) Close(ctx context.Context) (SessionView, error) {
	if !s.active.CompareAndSwap(true, false) {
		return s.View(), apperrors.ErrSessionClosed(s.id)
	}
	s.detachCapture()
	return s.await(ctx, "close", func(ctx context.Context) error {
		s.closeSession(ctx, false)
		return nil
	})
}

func (s *Session) detachCapture() {
	if err := s.capture.Detach(); err != nil && !errors.Is(err, capture.ErrCaptureDetached) {
		s.logger.WithError(err).Warn("Failed to detach capture")
	}
}

func (s *Session) now() time.Time {
	return s.cfg.Clock.Now()
}

func (s *Session) handleLoad(ctx context.Context) error {
	op, result, err := s.deps.Reconciler.Load(ctx, s.operationID)
	if errors.Is(err, domain.ErrOperationNotFound) {
		s.active.Store(false)
		s.detachCapture()
		s.state.Close(nil)
		return apperrors.ErrNotFoundWithID("operation", s.operationID)
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to load operation")
		s.state.Loading = false
		s.state.Notify(notification(s.now(), domain.NotificationDanger, "", MsgLoadError))
		return nil
	}

	firstLoad := s.state.Operation == nil
	s.state.Load(*op, result)

	if firstLoad {
		s.publish(ctx, &domain.SessionStartedEvent{
			SessionID:   s.id,
			OperationID: op.ID,
			State:       string(op.State),
			StartedAt:   s.now(),
		})
		s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
			EventType:  "session.started",
			EntityType: "scanSession",
			EntityID:   s.id,
			Action:     "started",
			RelatedIDs: map[string]string{"operationId": op.ID},
		})
	}
	return nil
}

func (s *Session) handleReload(ctx context.Context) error {
	op, result, err := s.deps.Reconciler.Load(ctx, s.operationID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to reload operation")
		s.state.Notify(notification(s.now(), domain.NotificationDanger, "", MsgReloadError))
		return nil
	}
	if !s.active.Load() {
		return nil
	}
	s.state.Load(*op, result)
	return nil
}

func (s *Session) handleSubmit(ctx context.Context, token, source string) error {
	s.lastOutcome = nil
	operationID := s.state.OperationID()
	if operationID == "" || token == "" {
		return nil
	}

	s.state.LastScanned = token
	result := s.deps.Router.Submit(ctx, operationID, token, source)
	if !s.active.Load() {
		s.logger.Debug("Dropping scan result for closed session", "barcode", token)
		return nil
	}

	for _, n := range result.Notifications {
		s.state.Notify(n)
	}
	if result.Reconciliation != nil {
		s.state.Replace(*result.Reconciliation)
	}
	s.lastOutcome = toOutcomeDTO(token, result.Outcome)

	s.publish(ctx, &domain.ScanResolvedEvent{
		SessionID:       s.id,
		OperationID:     operationID,
		Barcode:         token,
		Source:          source,
		Outcome:         string(result.Outcome.Kind),
		Message:         result.Outcome.Message,
		ProgressPercent: s.state.ProgressPercent(),
		ResolvedAt:      s.now(),
	})
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "scan.resolved",
		EntityType: "picking",
		EntityID:   operationID,
		Action:     string(result.Outcome.Kind),
		RelatedIDs: map[string]string{"sessionId": s.id, "barcode": token, "source": source},
	})

	if result.Reconciliation != nil && s.cfg.AutoValidate && s.state.IsComplete() && s.state.CanValidate() {
		s.logger.Info("Operation complete, validating automatically")
		return s.handleValidate(ctx, true)
	}
	return nil
}

func (s *Session) handleToggle(ctx context.Context) error {
	mode := s.state.ToggleScanMode()
	s.state.Notify(scanModeNotification(s.now(), mode))
	s.publish(ctx, &domain.ScanModeToggledEvent{
		SessionID:   s.id,
		OperationID: s.state.OperationID(),
		ScanMode:    string(mode),
		ToggledAt:   s.now(),
	})
	return nil
}

func (s *Session) handleValidate(ctx context.Context, auto bool) error {
	canValidate := s.state.CanValidate()
	s.logger.Debug("Validation requested",
		"canValidate", canValidate,
		"totalDone", s.state.TotalDone.String(),
		"auto", auto,
	)
	if !canValidate {
		return s.validationRefusal()
	}

	op := *s.state.Operation
	ctx, span := s.tracer.Start(ctx, "scanner.validate", trace.WithAttributes(tracing.SessionSpanAttributes(s.id, op.ID)...))
	finalizeErr := s.deps.Finalizer.FinalizeOperation(ctx, op)
	tracing.EndSpan(span, finalizeErr)
	s.deps.Metrics.RecordValidation(finalizeErr == nil)
	if !s.active.Load() {
		s.logger.Debug("Dropping validation result for closed session")
		return nil
	}

	if finalizeErr != nil {
		s.logger.WithError(finalizeErr).Warn("Failed to validate operation")
		s.state.Notify(validationFailedNotification(s.now(), finalizeErr))
		s.publish(ctx, &domain.ValidationFailedEvent{
			SessionID:   s.id,
			OperationID: op.ID,
			Reason:      finalizeErr.Error(),
			FailedAt:    s.now(),
		})
		return nil
	}

	s.state.Notify(notification(s.now(), domain.NotificationSuccess, "", MsgValidated))
	s.publish(ctx, &domain.OperationValidatedEvent{
		SessionID:     s.id,
		OperationID:   op.ID,
		TotalExpected: s.state.TotalExpected.InexactFloat64(),
		TotalDone:     s.state.TotalDone.InexactFloat64(),
		AutoValidated: auto,
		ValidatedAt:   s.now(),
	})
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "operation.validated",
		EntityType: "picking",
		EntityID:   op.ID,
		Action:     "validated",
		RelatedIDs: map[string]string{"sessionId": s.id},
	})

	s.active.Store(false)
	s.detachCapture()
	s.closeSession(ctx, true)
	return nil
}

func (s *Session) validationRefusal() error {
	op := s.state.Operation
	if op == nil {
		return apperrors.ErrValidation(MsgNothingToValidate).Wrap(domain.ErrNoActiveOperation)
	}
	if !op.State.IsValidatable() {
		return apperrors.ErrValidation(MsgOperationNotEditable).WithDetail("state", string(op.State)).Wrap(domain.ErrCannotValidate)
	}
	return apperrors.ErrValidation(MsgNothingToValidate).Wrap(domain.ErrCannotValidate)
}

func (s *Session) closeSession(ctx context.Context, validated bool) {
	var target *domain.ReturnTarget
	if id := s.state.OperationID(); id != "" {
		target = &domain.ReturnTarget{Model: ReturnModel, ID: id}
	}
	s.state.Close(target)

	s.publish(ctx, &domain.SessionClosedEvent{
		SessionID:   s.id,
		OperationID: s.state.OperationID(),
		Validated:   validated,
		ClosedAt:    s.now(),
	})
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "session.closed",
		EntityType: "scanSession",
		EntityID:   s.id,
		Action:     "closed",
		RelatedIDs: map[string]string{"operationId": s.state.OperationID()},
	})
}

func (s *Session) publish(ctx context.Context, event domain.DomainEvent) {
	if s.deps.Publisher == nil || s.state.Operation == nil {
		return
	}
	timeout := s.cfg.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.deps.Publisher.Publish(ctx, s.id, *s.state.Operation, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish session event", "eventType", event.EventType())
	}
}
