package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viewlens/viewlens/app/database"
	"github.com/viewlens/viewlens/app/ingest"
)

type RefreshResultTask struct {
	Task
	Result    database.Result
	processor *ingest.Processor
}

func NewRefreshResultTask(result database.Result, processor *ingest.Processor) *RefreshResultTask {
	return &RefreshResultTask{
		Task:      NewTask(TaskTypeRefreshResult),
		Result:    result,
		processor: processor,
	}
}

func (t *RefreshResultTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	updated, err := t.processor.Refresh(ctx, t.Result)
	if err != nil {
		return fmt.Errorf("failed to refresh result %d: %w", t.Result.ID, err)
	}

	slog.Info("Task completed",
		"type", "RefreshResult",
		"id", t.Result.ID,
		"url", t.Result.URL,
		"duration", t.GetDuration(),
		"engagement_rate", updated.EngagementRate)

	return nil
}
