package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/metrics"
	"voice-agent-workers/internal/common/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	outcomeSuccess        = "success"
	outcomeValidation     = "validation_error"
	outcomeExecution      = "execution_error"
	outcomeUnknown        = "unknown"
	validationErrorPrefix = "Validation error: "
	executionErrorPrefix  = "Execution error: "
)

// Registry maps action names to tools. Registration order is preserved and
// re-registering a name replaces the tool in place.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
	log   logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		log:   log.WithFields(map[string]interface{}{"component": "tool-registry"}),
	}
}

func (r *Registry) Register(t Tool) {
	name := t.Definition().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
	r.log.Info("registered tool", map[string]interface{}{"tool": name})
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Info(name string) (Info, bool) {
	t, ok := r.Get(name)
	if !ok {
		return Info{}, false
	}
	def := t.Definition()
	return Info{
		Name:           def.Name,
		Description:    def.Description,
		RequiredParams: nonNil(def.RequiredParams),
		OptionalParams: nonNil(def.OptionalParams),
	}, true
}

// Definitions returns every registered definition in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Definition())
	}
	return out
}

// Run validates and executes the named tool. It never returns an error and
// never panics; every failure is folded into the ActionResult.
func (r *Registry) Run(ctx context.Context, name string, params map[string]interface{}) (result ActionResult) {
	ctx, span := otel.Tracer("voice-agent-workers/tools").Start(ctx, "tool."+name)
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	log := r.log.WithSpan(ctx).WithFields(map[string]interface{}{"tool": name})

	t, ok := r.Get(name)
	if !ok {
		names := r.Names()
		msg := fmt.Sprintf("Unknown action type: %s. Available tools: [%s]", name, strings.Join(names, ", "))
		log.Error("unknown action", map[string]interface{}{"available": names})
		metrics.ToolExecutionsTotal.WithLabelValues(name, outcomeUnknown).Inc()
		span.SetStatus(codes.Error, "unknown action")
		return ActionResult{Success: false, Result: map[string]interface{}{}, Error: msg}
	}

	start := time.Now()
	outcome := outcomeSuccess

	defer func() {
		if rec := recover(); rec != nil {
			outcome = outcomeExecution
			result = ActionResult{
				Success: false,
				Result:  map[string]interface{}{},
				Error:   fmt.Sprintf("%s%v", executionErrorPrefix, rec),
			}
			log.Error("tool panicked", map[string]interface{}{"panic": fmt.Sprint(rec)})
		}

		elapsed := time.Since(start)
		result.ExecutionTimeMs = float64(elapsed.Microseconds()) / 1000.0
		metrics.ToolExecutionsTotal.WithLabelValues(name, outcome).Inc()
		metrics.ToolExecutionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		span.SetAttributes(attribute.String("tool.outcome", outcome))
		if outcome != outcomeSuccess {
			span.SetStatus(codes.Error, result.Error)
		}
	}()

	if params == nil {
		params = map[string]interface{}{}
	}

	validated, err := t.Validate(params)
	if err != nil {
		outcome = outcomeValidation
		stdErr := apperrors.NewToolValidationFailedError(name, err)
		log.WithError(stdErr).Warn("tool validation error", map[string]interface{}{"errorCode": string(stdErr.Code)})
		return ActionResult{Success: false, Result: map[string]interface{}{}, Error: validationErrorPrefix + err.Error()}
	}

	payload, err := t.Execute(ctx, validated)
	if err != nil {
		prefix := executionErrorPrefix
		outcome = outcomeExecution
		stdErr := apperrors.NewToolExecutionFailedError(name, err)
		if validation.IsParamError(err) {
			prefix = validationErrorPrefix
			outcome = outcomeValidation
			stdErr = apperrors.NewToolValidationFailedError(name, err)
		}
		log.WithError(stdErr).Error("tool execution error", map[string]interface{}{"errorCode": string(stdErr.Code)})
		return ActionResult{Success: false, Result: map[string]interface{}{}, Error: prefix + err.Error()}
	}

	log.Info("tool executed", map[string]interface{}{"durationMs": time.Since(start).Milliseconds()})
	return ActionResult{Success: true, Result: payload}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
