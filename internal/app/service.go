// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/okian/scorecard/internal/adapters/mq/queue"
	"github.com/okian/scorecard/internal/adapters/mq/worker"
	"github.com/okian/scorecard/internal/adapters/repository"
	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/internal/domain/period"
	"github.com/okian/scorecard/internal/domain/scoring"
	"github.com/okian/scorecard/internal/domain/task"
	"github.com/okian/scorecard/internal/domain/types"
	"github.com/okian/scorecard/pkg/logger"
	"github.com/okian/scorecard/pkg/metrics"
)

const (
	defaultRefreshInterval = 5 * time.Minute
	defaultQueueSize       = 8
	defaultMaxLimit        = 500
	refresherStopTimeout   = 10 * time.Second
)

// Report is one computed scorecard.
type Report struct {
	Revision  string              `json:"revision"`
	Mode      period.Mode         `json:"filter"`
	From      time.Time           `json:"from"`
	To        time.Time           `json:"to"`
	Periods   []period.Period     `json:"periods"`
	Standings []types.Entry       `json:"standings"`
	Scores    []scoring.UserScore `json:"scores"`
}

// Service keeps the latest snapshot and answers scorecard queries over it.
type Service struct {
	lifecycle sync.Mutex
	mu        sync.RWMutex

	// Collaborators
	source repository.Source
	engine *scoring.Engine
	queue  *queue.InMemoryQueue
	worker *worker.Refresher
	cron   *cron.Cron

	// Configuration
	steps           []model.StepConfig
	loc             *time.Location
	refreshInterval time.Duration
	schedule        string
	queueSize       int
	watch           bool
	defaultMode     period.Mode
	maxLimit        int
	now             func() time.Time

	// Snapshot state, guarded by mu
	snap   model.Snapshot
	loaded bool
	skips  task.SkipCounts

	reloads  atomic.Int64
	failures atomic.Int64
	lastErr  atomic.Value // string

	// Lifecycle, guarded by lifecycle
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		engine:          scoring.NewEngine(),
		loc:             time.UTC,
		refreshInterval: defaultRefreshInterval,
		queueSize:       defaultQueueSize,
		defaultMode:     period.Month,
		maxLimit:        defaultMaxLimit,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.lastErr.Store("")
	return s
}

// Start loads the first snapshot and starts the background refresher. A
// failing first load is returned and leaves the service stopped.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "starting scorecard service...")
	if err := s.Reload(ctx, "startup"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewRefresher(s.queue, s, worker.WithLogger(s.logger.Named("refresher")))
	go s.worker.Run(runCtx)

	if s.refreshInterval > 0 {
		s.wg.Add(1)
		go s.tick(runCtx, s.queue)
	}
	if s.schedule != "" {
		c, err := s.scheduled(runCtx, s.queue)
		if err != nil {
			cancel()
			s.wg.Wait()
			_ = s.worker.Shutdown(ctx)
			_ = s.queue.Close()
			return err
		}
		s.cron = c
	}
	if s.watch {
		if w, ok := s.source.(repository.Watcher); ok {
			changes, err := w.Watch(runCtx)
			if err != nil {
				s.logger.Warn(ctx, "snapshot watch unavailable", logger.Error(err))
			} else {
				s.wg.Add(1)
				go s.follow(runCtx, s.queue, changes)
			}
		}
	}

	s.started = true
	s.logger.Info(ctx, "scorecard service started",
		logger.Duration("refreshInterval", s.refreshInterval),
		logger.String("schedule", s.schedule),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("watch", s.watch),
	)
	return nil
}

// Stop gracefully shuts down the background refresher. It is safe to call
// more than once.
func (s *Service) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scorecard service...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
	s.cancel()
	s.wg.Wait()

	stopCtx, cancel := context.WithTimeout(ctx, refresherStopTimeout)
	defer cancel()
	if err := s.worker.Shutdown(stopCtx); err != nil {
		s.logger.Warn(ctx, "refresher did not stop cleanly", logger.Error(err))
	}
	_ = s.queue.Close()

	s.started = false
	s.logger.Info(ctx, "scorecard service stopped")
}

func (s *Service) tick(ctx context.Context, q *queue.InMemoryQueue) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(ctx, q, "interval")
		}
	}
}

// scheduled enqueues a reload at every activation of the cron schedule,
// evaluated in the service location.
func (s *Service) scheduled(ctx context.Context, q *queue.InMemoryQueue) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.schedule, func() { s.enqueue(ctx, q, "schedule") }); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBadSchedule, s.schedule, err)
	}
	c.Start()
	return c, nil
}

func (s *Service) follow(ctx context.Context, q *queue.InMemoryQueue, changes <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			s.enqueue(ctx, q, "source_changed")
		}
	}
}

// RequestRefresh asks for a reload without waiting for it. It returns
// ErrBackpressure when too many requests are already pending.
func (s *Service) RequestRefresh(ctx context.Context, reason string) (string, error) {
	s.lifecycle.Lock()
	started, q := s.started, s.queue
	s.lifecycle.Unlock()
	if !started {
		return "", ErrNotReady
	}
	id, ok := s.enqueue(ctx, q, reason)
	if !ok {
		return "", ErrBackpressure
	}
	return id, nil
}

func (s *Service) enqueue(ctx context.Context, q *queue.InMemoryQueue, reason string) (string, bool) {
	req := queue.Request{ID: uuid.NewString(), Reason: reason, At: s.now()}
	if !q.Enqueue(ctx, req) {
		s.logger.Warn(ctx, "refresh request rejected", logger.String("reason", reason))
		return "", false
	}
	return req.ID, true
}

// Reload fetches a fresh snapshot from the source and swaps it in. The
// previous snapshot stays active when loading fails.
func (s *Service) Reload(ctx context.Context, reason string) error {
	start := time.Now()
	snap, err := s.source.Load(ctx)
	if err != nil {
		s.failures.Add(1)
		s.lastErr.Store(err.Error())
		metrics.RecordSnapshotReloadFailure()
		s.logger.Warn(ctx, "snapshot reload failed", logger.String("reason", reason), logger.Error(err))
		return fmt.Errorf("reload snapshot: %w", err)
	}

	if snap.Revision == "" {
		snap.Revision = uuid.NewString()
	}
	snap.LoadedAt = s.now()
	if len(s.steps) > 0 {
		snap.Steps = s.steps
	}
	skips := s.engine.Audit(scoring.InputFromSnapshot(snap, dates.Range{}, s.defaultMode))

	s.mu.Lock()
	s.snap = snap
	s.skips = skips
	s.loaded = true
	s.mu.Unlock()

	s.reloads.Add(1)
	s.lastErr.Store("")
	metrics.RecordSnapshotReload(float64(time.Since(start).Milliseconds()), snap.LoadedAt)
	for collection, n := range snap.Counts() {
		metrics.UpdateSnapshotRecords(collection, n)
	}
	metrics.SetRecordsSkipped(skips)
	s.logger.Info(ctx, "snapshot loaded",
		logger.String("revision", snap.Revision),
		logger.String("reason", reason),
		logger.Int("users", len(snap.Users)),
		logger.Int("skipped", skips.Total()),
	)
	return nil
}

// Snapshot returns the active snapshot.
func (s *Service) Snapshot() (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return model.Snapshot{}, ErrNotReady
	}
	return s.snap, nil
}

// prepare resolves q against the active snapshot.
func (s *Service) prepare(q Query) (scoring.Input, model.Snapshot, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return scoring.Input{}, model.Snapshot{}, err
	}
	w, err := s.resolve(q, snap, s.now().In(s.loc))
	if err != nil {
		return scoring.Input{}, model.Snapshot{}, err
	}
	return scoring.InputFromSnapshot(snap, w.Range, w.Mode), snap, nil
}

// Scores computes the ranked scorecard for q.
func (s *Service) Scores(ctx context.Context, q Query) (Report, error) {
	limit, err := s.limit(q.Limit)
	if err != nil {
		return Report{}, err
	}
	in, snap, err := s.prepare(q)
	if err != nil {
		return Report{}, err
	}

	start := time.Now()
	scores := s.engine.ComputeScores(in)
	periods := s.engine.Periods(in)
	s.record(in.Mode, start, scores, len(periods))

	standings := scoring.Standings(scores)
	if len(scores) > limit {
		scores = scores[:limit]
		standings = standings[:limit]
	}
	return Report{
		Revision:  snap.Revision,
		Mode:      in.Mode,
		From:      in.Range.From,
		To:        in.Range.To,
		Periods:   periods,
		Standings: standings,
		Scores:    scores,
	}, nil
}

// UserScore computes one user's scorecard for q.
func (s *Service) UserScore(ctx context.Context, username string, q Query) (scoring.UserScore, error) {
	in, _, err := s.prepare(q)
	if err != nil {
		return scoring.UserScore{}, err
	}
	us, ok := s.engine.ComputeUser(in, username)
	if !ok {
		return scoring.UserScore{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return us, nil
}

// UserTasks lists the tasks behind one user's scorecard for q.
func (s *Service) UserTasks(ctx context.Context, username string, q Query) ([]scoring.TaskRow, error) {
	in, _, err := s.prepare(q)
	if err != nil {
		return nil, err
	}
	rows, ok := s.engine.UserTasks(in, username, s.now())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return rows, nil
}

// Periods returns the trend buckets for q.
func (s *Service) Periods(ctx context.Context, q Query) ([]period.Period, error) {
	in, _, err := s.prepare(q)
	if err != nil {
		return nil, err
	}
	return s.engine.Periods(in), nil
}

// TopN returns the top n leaderboard entries under the default filter.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	r, err := s.Scores(ctx, Query{Limit: n})
	if err != nil {
		return nil, err
	}
	return r.Standings, nil
}

// Rank returns one user's leaderboard entry under the default filter.
func (s *Service) Rank(ctx context.Context, username string) (types.Entry, error) {
	in, _, err := s.prepare(Query{})
	if err != nil {
		return types.Entry{}, err
	}
	start := time.Now()
	scores := s.engine.ComputeScores(in)
	s.record(in.Mode, start, scores, len(s.engine.Periods(in)))

	for _, e := range scoring.Standings(scores) {
		if task.SameUser(e.Username, username) {
			return e, nil
		}
	}
	return types.Entry{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

func (s *Service) record(mode period.Mode, start time.Time, scores []scoring.UserScore, periods int) {
	metrics.RecordComputation(string(mode), float64(time.Since(start).Milliseconds()), len(scores), periods)
	var del, chk, pipe int
	for _, us := range scores {
		del += us.PerSource.Delegation.Total
		chk += us.PerSource.Checklist.Total
		pipe += us.PerSource.Pipeline.Total
	}
	metrics.AddTasksNormalized(task.Delegation.String(), del)
	metrics.AddTasksNormalized(task.Checklist.String(), chk)
	metrics.AddTasksNormalized(task.PipelineStep.String(), pipe)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.lifecycle.Lock()
	started := s.started
	var queueLen, queueCap int
	if started {
		queueLen = s.queue.Len(context.Background())
		queueCap = s.queue.Capacity()
	}
	s.lifecycle.Unlock()

	stats := map[string]interface{}{
		"started":         started,
		"refreshInterval": s.refreshInterval.String(),
		"refreshSchedule": s.schedule,
		"queueLength":     queueLen,
		"queueCapacity":   queueCap,
		"reloads":         s.reloads.Load(),
		"reloadFailures":  s.failures.Load(),
		"lastError":       s.lastErr.Load(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loaded {
		stats["revision"] = s.snap.Revision
		stats["loadedAt"] = s.snap.LoadedAt
		stats["snapshotAgeSeconds"] = int64(s.now().Sub(s.snap.LoadedAt) / time.Second)
		stats["records"] = s.snap.Counts()
		stats["skipped"] = map[string]int(s.skips)
	}
	return stats
}
