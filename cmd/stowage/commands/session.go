package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine"
	"github.com/DrSkyle/stowage/pkg/engine/history"
	"github.com/DrSkyle/stowage/pkg/engine/notifier"
	"github.com/DrSkyle/stowage/pkg/engine/policy"
	"github.com/DrSkyle/stowage/pkg/engine/report"
	"github.com/DrSkyle/stowage/pkg/storage"
	"github.com/DrSkyle/stowage/pkg/telemetry"
	"github.com/DrSkyle/stowage/pkg/version"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// session is one CLI invocation: state loaded from the store, an engine over
// it, and the telemetry pipeline to flush on exit.
type session struct {
	eng      *engine.Engine
	store    storage.BlobStore
	key      string
	shutdown func(context.Context) error
}

func openSession(ctx context.Context) (*session, error) {
	shutdown, err := telemetry.Init(ctx, version.ServiceName, version.Current, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	s := &session{shutdown: shutdown}
	fail := func(err error) (*session, error) {
		_ = shutdown(ctx)
		return nil, err
	}

	store, key, err := storage.Open(ctx, cfg.State.URL)
	if err != nil {
		return fail(err)
	}
	s.store, s.key = store, key

	st, err := warehouse.Load(ctx, store, key, cargo.Day(time.Now()))
	if err != nil {
		return fail(err)
	}

	var rules []policy.DynamicRule
	if cfg.Return.RulesFile != "" {
		if rules, err = policy.LoadRules(cfg.Return.RulesFile); err != nil {
			return fail(err)
		}
	}

	opts := []engine.Option{
		engine.WithConfig(engine.Config{
			Planner: cfg.Planner,
			Return:  cfg.Return,
			Rules:   rules,
			Logger:  slog.Default(),
		}),
		engine.WithState(st),
	}
	if strings.HasPrefix(cfg.State.URL, "s3://") {
		// Ledger and archive live next to the snapshot in the same bucket.
		dir := path.Dir(key)
		opts = append(opts,
			engine.WithHistory(history.NewBlobBackend(store, path.Join(dir, "history.jsonl"))),
			engine.WithArchive(store, path.Join(dir, "tombstones")),
		)
	} else {
		opts = append(opts,
			engine.WithHistory(history.NewLocalBackend(cfg.State.HistoryPath)),
			engine.WithArchive(storage.NewLocalStore(cfg.State.ArchiveDir), ""),
		)
	}

	if cfg.Notify.SlackWebhook != "" {
		opts = append(opts, engine.WithNotifier(notifier.NewSlackClient(cfg.Notify.SlackWebhook, cfg.Notify.SlackChannel)))
	}

	if s.eng, err = engine.New(ctx, opts...); err != nil {
		return fail(err)
	}
	return s, nil
}

// save persists the engine's state.
func (s *session) save(ctx context.Context) error {
	if err := warehouse.Save(ctx, s.store, s.key, s.eng.Snapshot()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *session) close(ctx context.Context) {
	if err := s.shutdown(ctx); err != nil {
		slog.Warn("Telemetry shutdown failed", "error", err)
	}
}

// run opens a session, calls fn and saves the state when mutate is set and fn succeeded.
func run(ctx context.Context, mutate bool, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if err := fn(ctx, s); err != nil {
		return err
	}
	if mutate {
		return s.save(ctx)
	}
	return nil
}

// emit prints v as JSON when --json is set, otherwise calls text.
func emit(out io.Writer, v any, text func(w *report.Writer)) error {
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(report.NewWriter(out))
	return nil
}

// parseDay accepts a plain date or an RFC 3339 timestamp.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", cargo.ErrInvalidInput, s)
	}
	return t, nil
}
