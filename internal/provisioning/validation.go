package provisioning

import (
	"fmt"
	"strings"

	"github.com/tierstack/tierstack/internal/config"
	"github.com/tierstack/tierstack/internal/manifest"
)

// Validation severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field or graph key that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == SeverityError
}

// ValidationPhase implements the Phase interface for pre-flight validation.
// It checks the configuration, the graph and that every kind in the graph
// has a handler, so that apply never stops halfway on a missing handler.
type ValidationPhase struct {
	handlers Handlers
}

// NewValidationPhase creates a validation phase for the given handlers.
func NewValidationPhase(handlers Handlers) *ValidationPhase {
	return &ValidationPhase{handlers: handlers}
}

// Name implements the Phase interface.
func (vp *ValidationPhase) Name() string {
	return "validation"
}

// Provision implements the Phase interface.
func (vp *ValidationPhase) Provision(ctx *Context) error {
	var errs []ValidationError
	for _, ve := range Validate(ctx.Config, ctx.Graph, vp.handlers) {
		if ve.IsError() {
			errs = append(errs, ve)
			continue
		}
		ctx.Observer.Event(Event{
			Type:    EventValidationWarning,
			Phase:   vp.Name(),
			Message: ve.Message,
			Fields:  map[string]string{"field": ve.Field},
		})
	}

	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("validation failed:\n  %s", strings.Join(msgs, "\n  "))
	}
	return nil
}

// Validate returns the errors and warnings of a configuration and the
// graph built from it.
func Validate(cfg *config.Config, graph *manifest.Graph, handlers Handlers) []ValidationError {
	var out []ValidationError

	if cfg == nil {
		return []ValidationError{{Field: "config", Message: "configuration is required", Severity: SeverityError}}
	}
	if err := cfg.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			out = append(out, ValidationError{Field: "config", Message: line, Severity: SeverityError})
		}
	}

	if graph == nil {
		out = append(out, ValidationError{Field: "graph", Message: "resource graph is required", Severity: SeverityError})
	} else {
		if err := graph.Validate(); err != nil {
			for _, line := range strings.Split(err.Error(), "\n") {
				out = append(out, ValidationError{Field: "graph", Message: line, Severity: SeverityError})
			}
		}
		if handlers != nil {
			missing := map[manifest.Kind]bool{}
			for _, r := range graph.Resources() {
				if _, ok := handlers[r.Kind]; !ok && !missing[r.Kind] {
					missing[r.Kind] = true
					out = append(out, ValidationError{
						Field:    string(r.Kind),
						Message:  fmt.Sprintf("no handler for %s resources", r.Kind),
						Severity: SeverityError,
					})
				}
			}
		}
	}

	return append(out, warnings(cfg)...)
}

// warnings flags settings that deploy fine but weaken availability or
// recoverability.
func warnings(cfg *config.Config) []ValidationError {
	var out []ValidationError

	if !cfg.Database.MultiAZ {
		out = append(out, ValidationError{
			Field:    "database.multi_az",
			Message:  "database runs in a single availability zone",
			Severity: SeverityWarning,
		})
	}
	if cfg.Database.BackupRetention() == 0 {
		out = append(out, ValidationError{
			Field:    "database.backup_retention_days",
			Message:  "automated backups are disabled",
			Severity: SeverityWarning,
		})
	}
	for _, role := range []string{config.RoleFrontend, config.RoleBackend} {
		if svc := cfg.Service(role); svc.MinCapacity == 1 {
			out = append(out, ValidationError{
				Field:    role + ".min_capacity",
				Message:  fmt.Sprintf("%s can scale in to a single task", role),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
