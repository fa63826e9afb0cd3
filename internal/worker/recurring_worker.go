package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// MaterializeRunner runs one generation pass for a user.
type MaterializeRunner interface {
	Materialize(ctx context.Context, userID string) (int, error)
}

// TemplateUserLister enumerates users that own recurring templates.
type TemplateUserLister interface {
	ListUsersWithTemplates(ctx context.Context) ([]string, error)
}

// RecurringWorker drives materialization outside the request path: a
// periodic sweep over every user with templates, plus on-demand passes
// triggered by queue messages.
type RecurringWorker struct {
	users        TemplateUserLister
	materializer MaterializeRunner
}

func NewRecurringWorker(users TemplateUserLister, materializer MaterializeRunner) *RecurringWorker {
	return &RecurringWorker{users: users, materializer: materializer}
}

// HandleRequest serves one queued materialize request.
func (w *RecurringWorker) HandleRequest(ctx context.Context, userID string) error {
	count, err := w.materializer.Materialize(ctx, userID)
	if err != nil {
		return fmt.Errorf("materialize for %s: %w", userID, err)
	}
	slog.InfoContext(ctx, "Materialize request served", "user_id", userID, "created", count)
	return nil
}

// Sweep materializes every user with templates. One user failing does
// not stop the sweep.
func (w *RecurringWorker) Sweep(ctx context.Context) error {
	users, err := w.users.ListUsersWithTemplates(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, userID := range users {
		count, err := w.materializer.Materialize(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Sweep pass failed", "user_id", userID, "error", err)
			continue
		}
		total += count
	}

	slog.InfoContext(ctx, "Materialization sweep finished", "users", len(users), "created", total)
	return nil
}
