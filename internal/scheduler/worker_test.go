package scheduler

import (
	"context"
	"errors"
	"testing"

	"renoquote_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type schedulerTestConfig struct {
	redisURL string
}

func (c schedulerTestConfig) GetRedisURL() string       { return c.redisURL }
func (c schedulerTestConfig) GetRedisTLSInsecure() bool { return false }
func (c schedulerTestConfig) GetAsynqQueueName() string { return "test" }
func (c schedulerTestConfig) GetAsynqConcurrency() int  { return 1 }

type stubDirectorySearcher struct {
	calls []string
	err   error
}

func (s *stubDirectorySearcher) WarmDirectory(ctx context.Context, trade, location string) error {
	s.calls = append(s.calls, trade+"|"+location)
	return s.err
}

type stubAnalysisPurger struct {
	purged []uuid.UUID
	err    error
}

func (s *stubAnalysisPurger) PurgeOrphanedAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	s.purged = append(s.purged, analysisID)
	return s.err
}

func newTestWorker(t *testing.T, searcher DirectorySearcher, purger AnalysisPurger) *Worker {
	t.Helper()
	w, err := NewWorker(schedulerTestConfig{redisURL: "redis://127.0.0.1:6379"}, searcher, purger, logger.New("development"))
	if err != nil {
		t.Fatalf("worker construction failed: %v", err)
	}
	return w
}

func TestWorkerRequiresRedisURL(t *testing.T) {
	_, err := NewWorker(schedulerTestConfig{}, nil, nil, logger.New("development"))
	if err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestHandleDirectoryRefreshWarmsCache(t *testing.T) {
	searcher := &stubDirectorySearcher{}
	w := newTestWorker(t, searcher, nil)

	task, err := NewDirectoryRefreshTask(DirectoryRefreshPayload{Trade: "stukadoor", Location: "Utrecht"})
	if err != nil {
		t.Fatalf("task construction failed: %v", err)
	}

	if err := w.handleDirectoryRefresh(context.Background(), task); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if len(searcher.calls) != 1 || searcher.calls[0] != "stukadoor|Utrecht" {
		t.Errorf("unexpected searcher calls: %v", searcher.calls)
	}
}

func TestHandleDirectoryRefreshSkipsEmptyTrade(t *testing.T) {
	searcher := &stubDirectorySearcher{}
	w := newTestWorker(t, searcher, nil)

	task, _ := NewDirectoryRefreshTask(DirectoryRefreshPayload{Location: "Utrecht"})
	if err := w.handleDirectoryRefresh(context.Background(), task); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if len(searcher.calls) != 0 {
		t.Errorf("expected no searcher calls, got %v", searcher.calls)
	}
}

func TestHandleDirectoryRefreshPropagatesFailure(t *testing.T) {
	searcher := &stubDirectorySearcher{err: errors.New("places down")}
	w := newTestWorker(t, searcher, nil)

	task, _ := NewDirectoryRefreshTask(DirectoryRefreshPayload{Trade: "loodgieter"})
	if err := w.handleDirectoryRefresh(context.Background(), task); err == nil {
		t.Fatal("expected error so the task is retried")
	}
}

func TestHandleDirectoryRefreshWithoutSearcherIsNoop(t *testing.T) {
	w := newTestWorker(t, nil, nil)

	task, _ := NewDirectoryRefreshTask(DirectoryRefreshPayload{Trade: "loodgieter"})
	if err := w.handleDirectoryRefresh(context.Background(), task); err != nil {
		t.Fatalf("expected nil without searcher, got %v", err)
	}
}

func TestHandleAnalysisExpirePurges(t *testing.T) {
	purger := &stubAnalysisPurger{}
	w := newTestWorker(t, nil, purger)

	analysisID := uuid.New()
	task, err := NewAnalysisExpireTask(AnalysisExpirePayload{AnalysisID: analysisID.String()})
	if err != nil {
		t.Fatalf("task construction failed: %v", err)
	}

	if err := w.handleAnalysisExpire(context.Background(), task); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != analysisID {
		t.Errorf("unexpected purger calls: %v", purger.purged)
	}
}

func TestHandleAnalysisExpireRejectsBadID(t *testing.T) {
	purger := &stubAnalysisPurger{}
	w := newTestWorker(t, nil, purger)

	task := asynq.NewTask(TaskAnalysisExpire, []byte(`{"analysisId":"not-a-uuid"}`))
	if err := w.handleAnalysisExpire(context.Background(), task); err == nil {
		t.Fatal("expected error for malformed analysis id")
	}
	if len(purger.purged) != 0 {
		t.Errorf("expected no purge, got %v", purger.purged)
	}
}
