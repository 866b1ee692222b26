// Package jobs provides scheduled background tasks for the dispatch core.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required by the dispatch service.
//
// # Available Jobs
//
// 1. OrderReconciliationJob - Periodically re-applies the task-to-order
// status sync wherever a best-effort sync after a claim or a progress
// report failed.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(reconcileOrdersHandler, interval, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Scheduling
//
// The reconciliation job runs on a fixed interval, 30 seconds by default.
// Delivery correctness never depends on it; the task store is the source
// of truth and the sweep only repairs the order projection.
package jobs
