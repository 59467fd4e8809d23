// Package engine is the stowage runtime core: it owns the warehouse state and
// runs every planning operation as an isolated, all-or-nothing transaction.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/config"
	"github.com/DrSkyle/stowage/pkg/engine/history"
	"github.com/DrSkyle/stowage/pkg/engine/placement"
	"github.com/DrSkyle/stowage/pkg/engine/policy"
	"github.com/DrSkyle/stowage/pkg/engine/solver"
	"github.com/DrSkyle/stowage/pkg/storage"
	"github.com/DrSkyle/stowage/pkg/telemetry"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// Config holds engine settings.
type Config struct {
	Planner config.PlannerConfig
	Return  config.ReturnConfig
	// Rules are CEL admission rules applied to every placement decision.
	Rules []policy.DynamicRule

	// Dependencies.
	Logger *slog.Logger
}

// Notifier is told about new waste and committed return plans.
type Notifier interface {
	WasteIdentified(ctx context.Context, date time.Time, fresh []cargo.WasteRecord) error
	ReturnPlanned(ctx context.Context, m cargo.ReturnManifest) error
}

// Engine is the runtime core. All operations are serialised.
type Engine struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	History *history.Client

	// Immutable config.
	config        Config
	archive       storage.BlobStore
	archivePrefix string
	clock         func() time.Time
	notifier      Notifier

	planner *placement.Planner
	solver  *solver.Optimizer
	metrics *metrics

	mu    sync.Mutex
	state *warehouse.State
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	// Safe defaults.
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: redactSensitiveData,
	})
	e := &Engine{
		Logger: slog.New(handler),
		Tracer: telemetry.Tracer("stowage/engine"),
		config: Config{
			Planner: config.DefaultPlannerConfig(),
			Return:  config.DefaultReturnConfig(),
		},
		archivePrefix: "tombstones",
		clock:         time.Now,
	}

	// Apply options.
	for _, opt := range opts {
		opt(e)
	}

	if e.state == nil {
		e.state = warehouse.New(e.clock())
	}
	if e.History == nil {
		e.History = history.NewClient(nil)
	}

	var admission placement.Admitter
	if len(e.config.Rules) > 0 {
		rules, err := policy.NewCELEngine()
		if err != nil {
			return nil, err
		}
		if err := rules.Compile(e.config.Rules); err != nil {
			return nil, fmt.Errorf("%w: %v", cargo.ErrInvalidInput, err)
		}
		admission = rules
		e.Logger.Info("Admission rules loaded", "count", rules.Len())
	}
	e.planner = placement.NewPlanner(e.config.Planner, admission, e.Logger)
	e.solver = solver.NewOptimizer(policy.NewValidator(policy.Policy{Config: e.config.Return}))

	m, err := newMetrics(telemetry.Meter("stowage/engine"))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	e.metrics = m

	return e, nil
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithConfig sets raw config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.Planner.MaxRearrangeItems <= 0 {
			cfg.Planner.MaxRearrangeItems = config.DefaultPlannerConfig().MaxRearrangeItems
		}
		if cfg.Planner.MaxRearrangeCandidates <= 0 {
			cfg.Planner.MaxRearrangeCandidates = config.DefaultPlannerConfig().MaxRearrangeCandidates
		}
		e.config = cfg
		if cfg.Logger != nil {
			e.Logger = cfg.Logger
		}
	}
}

// WithState starts the engine from an existing (e.g. loaded) state.
func WithState(st *warehouse.State) Option {
	return func(e *Engine) {
		e.state = st
	}
}

// WithHistory sets the activity log backend.
func WithHistory(b history.Backend) Option {
	return func(e *Engine) {
		e.History = history.NewClient(b)
	}
}

// WithArchive sets where undocking tombstones are written.
func WithArchive(store storage.BlobStore, prefix string) Option {
	return func(e *Engine) {
		e.archive = store
		if prefix != "" {
			e.archivePrefix = prefix
		}
	}
}

// WithNotifier sets where waste and return alerts are sent.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithClock overrides the wall clock used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// Snapshot returns a copy of the current state for persistence.
func (e *Engine) Snapshot() *warehouse.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// transact runs fn on a private copy of the state and commits it only when fn
// succeeds, the context is still live and every invariant holds.
func (e *Engine) transact(ctx context.Context, name string, fn func(ctx context.Context, st *warehouse.State) error) (err error) {
	ctx, span := e.Tracer.Start(ctx, name)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Crash safety.
	defer e.recoverPanic(ctx, &err)

	work := e.state.Clone()
	if err = fn(ctx, work); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err = ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled before commit")
		return err
	}
	if err = work.Validate(); err != nil {
		e.Logger.Error("Refusing to commit invalid state", "operation", name, "error", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	e.state = work
	return nil
}

// view runs fn against the live state under the lock; fn must not mutate it.
func (e *Engine) view(ctx context.Context, name string, fn func(ctx context.Context, st *warehouse.State) error) (err error) {
	ctx, span := e.Tracer.Start(ctx, name)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.recoverPanic(ctx, &err)

	return fn(ctx, e.state)
}

// record appends to the activity log. The state is already committed, so
// failures are logged rather than returned.
func (e *Engine) record(ctx context.Context, entries ...history.Entry) {
	if err := e.History.Record(ctx, entries...); err != nil {
		e.Logger.Warn("Failed to write activity log", "entries", len(entries), "error", err)
	}
}

// recoverPanic converts a panic into a conflicting-state error.
func (e *Engine) recoverPanic(ctx context.Context, errp *error) {
	if r := recover(); r != nil {
		// Use independent context.
		_, span := e.Tracer.Start(ctx, "CriticalPanic")

		stack := debug.Stack()

		// Record Exception in OTEL
		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))

		*errp = fmt.Errorf("%w: internal failure: %v", cargo.ErrConflictingState, r)
	}
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	// List of keys to redact
	sensitiveKeys := map[string]bool{
		"password": true, "access_key": true, "token": true, "secret": true,
		"api_key": true, "credential": true, "session_token": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
