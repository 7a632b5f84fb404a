package provisioning

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tierstack/tierstack/internal/logging"
)

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	// Printf logs a free-form message.
	Printf(format string, v ...any)

	// Event emits a structured event.
	Event(event Event)

	// WithFields returns a new Observer with additional context fields.
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "network", "compute")
	Message   string            // Human-readable message
	Resource  string            // Graph key if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventLevelStarted indicates a graph level is being applied.
	EventLevelStarted EventType = "level.started"

	// EventResourceCreating indicates a resource is being ensured.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a resource was ensured.
	EventResourceCreated EventType = "resource.created"
	// EventResourceFailed indicates ensuring or deleting a resource failed.
	EventResourceFailed EventType = "resource.failed"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted.
	EventResourceDeleted EventType = "resource.deleted"

	// EventValidationWarning indicates a validation warning.
	EventValidationWarning EventType = "validation.warning"
	// EventValidationError indicates a validation error.
	EventValidationError EventType = "validation.error"
)

// ZapObserver implements Observer on a zap logger.
type ZapObserver struct {
	logger *zap.Logger
}

// NewZapObserver creates an observer writing to logger.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	return &ZapObserver{logger: logger}
}

// Printf implements Observer.
func (o *ZapObserver) Printf(format string, v ...any) {
	o.logger.Info(fmt.Sprintf(format, v...))
}

// Event implements Observer. Failures are logged at error level and
// warnings at warn level.
func (o *ZapObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	fields := make([]zap.Field, 0, len(event.Fields)+3)
	fields = append(fields, zap.String("event", string(event.Type)))
	if event.Phase != "" {
		fields = append(fields, zap.String(logging.FieldPhase, event.Phase))
	}
	if event.Resource != "" {
		fields = append(fields, zap.String(logging.FieldResource, event.Resource))
	}
	for k, v := range event.Fields {
		fields = append(fields, zap.String(k, v))
	}

	if ce := o.logger.Check(levelOf(event.Type), event.Message); ce != nil {
		ce.Time = event.Timestamp
		ce.Write(fields...)
	}
}

func levelOf(t EventType) zapcore.Level {
	switch t {
	case EventPhaseFailed, EventResourceFailed, EventValidationError:
		return zapcore.ErrorLevel
	case EventValidationWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithFields implements Observer.
func (o *ZapObserver) WithFields(fields map[string]string) Observer {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.String(k, v))
	}
	return &ZapObserver{logger: o.logger.With(zf...)}
}

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs a resource ensure start event.
func LogResourceCreating(observer Observer, phase, key, name string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: key,
		Message:  "ensuring " + name,
	})
}

// LogResourceCreated logs a successfully ensured resource.
func LogResourceCreated(observer Observer, phase, key, name, id string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: key,
		Message:  name + " ready",
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceFailed logs a failed ensure or delete.
func LogResourceFailed(observer Observer, phase, key string, err error) {
	observer.Event(Event{
		Type:     EventResourceFailed,
		Phase:    phase,
		Resource: key,
		Message:  err.Error(),
	})
}

// LogResourceDeleting logs a resource deletion start event.
func LogResourceDeleting(observer Observer, phase, key, name string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: key,
		Message:  "deleting " + name,
	})
}

// LogResourceDeleted logs a successful resource deletion event.
func LogResourceDeleted(observer Observer, phase, key, name string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: key,
		Message:  name + " deleted",
	})
}
