package scheduler

import (
	"context"
	"fmt"

	"renoquote_backend/platform/config"
	"renoquote_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// DirectorySearcher performs a contractor search purely for its side
// effect of filling the search cache.
type DirectorySearcher interface {
	WarmDirectory(ctx context.Context, trade, location string) error
}

// AnalysisPurger removes an orphaned photo analysis and its stored
// photos. Analyses referenced by an estimate are left alone.
type AnalysisPurger interface {
	PurgeOrphanedAnalysis(ctx context.Context, analysisID uuid.UUID) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	searcher DirectorySearcher
	purger   AnalysisPurger
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, searcher DirectorySearcher, purger AnalysisPurger, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		searcher: searcher,
		purger:   purger,
		log:      log,
	}

	mux.HandleFunc(TaskDirectoryRefresh, w.handleDirectoryRefresh)
	mux.HandleFunc(TaskAnalysisExpire, w.handleAnalysisExpire)

	return w, nil
}

func (w *Worker) handleDirectoryRefresh(ctx context.Context, task *asynq.Task) error {
	if w.searcher == nil {
		return nil
	}

	payload, err := ParseDirectoryRefreshPayload(task)
	if err != nil {
		return err
	}

	if payload.Trade == "" {
		return nil
	}

	if err := w.searcher.WarmDirectory(ctx, payload.Trade, payload.Location); err != nil {
		w.log.Warn("directory refresh failed", "trade", payload.Trade, "location", payload.Location, "error", err)
		return err
	}

	return nil
}

func (w *Worker) handleAnalysisExpire(ctx context.Context, task *asynq.Task) error {
	if w.purger == nil {
		return nil
	}

	payload, err := ParseAnalysisExpirePayload(task)
	if err != nil {
		return err
	}

	analysisID, err := uuid.Parse(payload.AnalysisID)
	if err != nil {
		return err
	}

	return w.purger.PurgeOrphanedAnalysis(ctx, analysisID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
