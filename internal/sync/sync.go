package sync

import (
	"context"
	"log/slog"

	"github.com/schaermu/sops-shell/internal/config"
	"github.com/schaermu/sops-shell/internal/directive"
	"github.com/schaermu/sops-shell/internal/failure"
	"github.com/schaermu/sops-shell/internal/logging"
	"github.com/schaermu/sops-shell/internal/shell"
	"github.com/schaermu/sops-shell/internal/sops"
)

// Engine orchestrates the sync process
type Engine struct {
	cfg    *config.Config
	sops   sops.Client
	runner shell.Runner
	logger *slog.Logger
	dryRun bool
}

// NewEngine creates a new sync engine
func NewEngine(cfg *config.Config, sopsClient sops.Client, runner shell.Runner, logger *slog.Logger, dryRun bool) *Engine {
	return &Engine{
		cfg:    cfg,
		sops:   sopsClient,
		runner: runner,
		logger: logger,
		dryRun: dryRun,
	}
}

// Run processes each file in order and accumulates the totals. A problem
// with one file never stops the others; only cancellation does.
func (e *Engine) Run(ctx context.Context, paths []string) *Summary {
	summary := &Summary{DryRun: e.dryRun}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			e.logger.WarnContext(ctx, "sync interrupted", "remaining", len(paths)-summary.Files, "error", err)
			break
		}

		result := e.ProcessFile(ctx, path)
		summary.Files++
		summary.Secrets += result.Mappings
		summary.Updates += result.Updates
		summary.Results = append(summary.Results, result)
	}

	return summary
}

// ProcessFile syncs one secrets file. Failures are logged and recorded in the
// result; they never abort the caller's run.
func (e *Engine) ProcessFile(ctx context.Context, path string) FileResult {
	ctx = logging.WithFile(ctx, path)
	result := FileResult{Path: path}

	e.logger.InfoContext(ctx, "processing file", "dry_run", e.dryRun)

	if e.cfg.PrescanEnabled() {
		found, err := hasComments(path, e.cfg.Sync.PrescanLines)
		if err != nil {
			e.logger.DebugContext(ctx, "prescan failed, decrypting anyway", "error", err)
		} else if !found {
			e.logger.InfoContext(ctx, "no comments found, skipping decryption", "lines", e.cfg.Sync.PrescanLines)
			result.Skipped = true
			return result
		}
	}

	plaintext, err := e.sops.Decrypt(ctx, path)
	if err != nil {
		e.report(ctx, &result, "failed to decrypt", tag(err, failure.Decrypt, path, ""))
		return result
	}

	mappings, err := directive.Scan(plaintext)
	if err != nil {
		e.report(ctx, &result, "failed to parse commands", tag(err, failure.Parse, path, ""))
		return result
	}

	if len(mappings) == 0 {
		e.logger.InfoContext(ctx, "no secrets with 'shell:' commands found")
		return result
	}

	e.logger.InfoContext(ctx, "found secrets with commands", "count", len(mappings))

	updates := e.diff(ctx, &result, plaintext, mappings)
	result.Mappings = len(mappings)
	result.Updates = len(updates)

	if len(updates) == 0 {
		e.logger.InfoContext(ctx, "all secrets in sync")
		return result
	}

	if e.dryRun {
		e.logDryRun(ctx, updates)
		return result
	}

	e.apply(ctx, &result, path, updates)
	return result
}

// diff runs each mapping's command and queues the secrets whose stored value
// differs from the output
func (e *Engine) diff(ctx context.Context, result *FileResult, plaintext string, mappings []directive.Mapping) []PendingUpdate {
	var updates []PendingUpdate

	for _, m := range mappings {
		keyCtx := logging.WithKey(ctx, m.Key)
		e.logger.DebugContext(keyCtx, "running command", "command", m.Command)

		output, err := e.runner.Run(keyCtx, m.Command)
		if err != nil {
			e.report(keyCtx, result, "command failed", tag(err, failure.CommandExecution, result.Path, m.Key))
			continue
		}

		current, found := directive.Value(plaintext, m.Key)
		if found && current == output {
			e.logger.InfoContext(keyCtx, "secret in sync", "command", m.Command)
			continue
		}

		e.logger.InfoContext(keyCtx, "secret out of sync", "command", m.Command, "stored", found)
		updates = append(updates, PendingUpdate{Key: m.Key, Value: output})
	}

	return updates
}

// apply writes the queued updates in order; a failed key does not stop the rest
func (e *Engine) apply(ctx context.Context, result *FileResult, path string, updates []PendingUpdate) {
	e.logger.InfoContext(ctx, "updating secrets", "count", len(updates))

	for _, u := range updates {
		keyCtx := logging.WithKey(ctx, u.Key)
		if err := e.sops.Set(keyCtx, path, u.Key, u.Value); err != nil {
			e.report(keyCtx, result, "failed to update secret", tag(err, failure.SetValue, path, u.Key))
			continue
		}
		result.Written = append(result.Written, u.Key)
		e.logger.InfoContext(keyCtx, "updated secret")
	}

	e.logger.InfoContext(ctx, "file updated", "written", len(result.Written), "failed", len(updates)-len(result.Written))
}

// logDryRun logs the updates that would be written
func (e *Engine) logDryRun(ctx context.Context, updates []PendingUpdate) {
	for _, u := range updates {
		e.logger.InfoContext(logging.WithKey(ctx, u.Key), "[dry-run] would update secret")
	}
	e.logger.InfoContext(ctx, "would update secrets (dry run)", "count", len(updates))
}

// report logs a per-file or per-key problem and records it on the result
func (e *Engine) report(ctx context.Context, result *FileResult, msg string, err error) {
	e.logger.WarnContext(ctx, msg, "kind", failure.KindOf(err).String(), "error", err)
	result.Errors = append(result.Errors, err)
}

// tag makes sure err is a tagged failure carrying path and key. Errors that
// already carry a kind keep it.
func tag(err error, kind failure.Kind, path, key string) error {
	fe, ok := err.(*failure.Error)
	if !ok {
		if !failure.Is(err, failure.Unknown) {
			return err
		}
		fe = failure.New(kind, err)
	}
	if fe.Path == "" {
		fe = fe.WithPath(path)
	}
	if fe.Key == "" && key != "" {
		fe = fe.WithKey(key)
	}
	return fe
}
