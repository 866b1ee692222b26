package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// OrderReconciliationJob periodically sweeps in-flight orders and pulls any
// order whose status lags its task back in line. The order record is a
// projection of delivery progress; when a best-effort sync fails, this job
// repairs the drift.
type OrderReconciliationJob struct {
	handler  commands.ReconcileOrdersCommandHandler
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewOrderReconciliationJob creates the reconciliation job. A non-positive
// interval falls back to 30 seconds.
func NewOrderReconciliationJob(
	handler commands.ReconcileOrdersCommandHandler,
	interval time.Duration,
	logger *slog.Logger,
) *OrderReconciliationJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &OrderReconciliationJob{
		handler:  handler,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "order_reconciliation_job"),
	}
}

// Start begins the reconciliation job on its interval.
func (j *OrderReconciliationJob) Start() error {
	spec := fmt.Sprintf("@every %s", j.interval)

	_, err := j.cron.AddFunc(spec, func() {
		ctx := context.Background()
		cmd := commands.NewReconcileOrdersCommand()

		if handleErr := j.handler.Handle(ctx, cmd); handleErr != nil {
			j.logger.ErrorContext(ctx, "Order reconciliation sweep failed", "error", handleErr)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Order reconciliation job started",
		"interval", j.interval.String())
	return nil
}

// Stop stops the reconciliation job.
func (j *OrderReconciliationJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Order reconciliation job stopped")
}
