package core

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skryldev/steg-extractor/config"
	apperrors "github.com/Skryldev/steg-extractor/errors"
	"github.com/Skryldev/steg-extractor/utils"
)

// Service is the central orchestrator.  It is safe for concurrent use.
// Each extraction request owns its own Artifact; nothing is shared between
// concurrent invocations.
type Service struct {
	cfg      config.Config
	registry Registry
	storage  StorageAdapter
	hooks    []Hook
	logger   Logger
	metrics  MetricsCollector

	// Worker pool.
	jobQueue chan Job
	wg       sync.WaitGroup
	once     sync.Once
	shutdown chan struct{}

	// Atomic counters for lightweight internal metrics.
	processedCount int64
	errorCount     int64
	sweptCount     int64
}

// NewService creates a Service with the given config.  Call Start() before
// submitting jobs; call Stop() when done.
func NewService(cfg config.Config, reg Registry) *Service {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Service{
		cfg:      cfg,
		registry: reg,
		jobQueue: make(chan Job, queueSize),
		shutdown: make(chan struct{}),
	}
}

// SetLogger attaches a structured logger.
func (s *Service) SetLogger(l Logger) { s.logger = l }

// SetMetrics attaches a metrics collector.
func (s *Service) SetMetrics(m MetricsCollector) { s.metrics = m }

// SetStorage attaches the extracted-file store; required for the retention
// janitor to run.
func (s *Service) SetStorage(st StorageAdapter) { s.storage = st }

// AddHook registers a pipeline hook.
func (s *Service) AddHook(h Hook) { s.hooks = append(s.hooks, h) }

// Registry returns the underlying registry so callers can register
// decoders/encoders after construction.
func (s *Service) Registry() Registry { return s.registry }

// Storage returns the attached file store, or nil.
func (s *Service) Storage() StorageAdapter { return s.storage }

// Start launches the worker pool and the retention janitor.  It is idempotent.
func (s *Service) Start() {
	s.once.Do(func() {
		workerCount := s.cfg.WorkerCount
		if workerCount <= 0 {
			workerCount = runtime.NumCPU()
		}
		for i := 0; i < workerCount; i++ {
			s.wg.Add(1)
			go s.worker()
		}
		if s.storage != nil {
			s.wg.Add(1)
			go s.janitor()
		}
	})
}

// Stop drains the queue and shuts down all workers.
func (s *Service) Stop() {
	close(s.shutdown)
	s.wg.Wait()
}

// Process is the primary synchronous API.  It materialises the source into an
// Artifact and runs the steps over it.
func (s *Service) Process(ctx context.Context, src Source, steps ...Step) (*ExtractionResult, error) {
	if len(steps) == 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, "process", apperrors.ErrEmptyInput)
	}

	start := time.Now()

	artifact := &Artifact{
		SourceURL:     src.URL,
		CarrierFormat: FormatUnknown,
	}
	if src.Name != "" {
		artifact.SourceURL = src.Name
	}

	// Reader-backed sources are drained up front (respecting the size limit);
	// URL-backed sources are left for a FetchStep.
	if src.Reader != nil {
		limitedR := src.Reader
		if s.cfg.MaxImageBytes > 0 {
			limitedR = &utils.LimitedReader{R: src.Reader, Max: s.cfg.MaxImageBytes}
		}
		buf, err := utils.DrainReader(ctx, limitedR, s.cfg.ChunkSize)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryInput, "process.drain", err)
		}
		artifact.CarrierData = utils.CloneBytes(buf.Bytes())
		utils.ReleaseBuffer(buf)
	}

	timings := make(map[string]time.Duration, len(steps))
	current := artifact
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			atomic.AddInt64(&s.errorCount, 1)
			return nil, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), err)
		}
		s.notifyBefore(ctx, step.Name(), current)
		t := time.Now()
		next, stepErr := s.runWithRetry(ctx, step, current)
		elapsed := time.Since(t)
		timings[step.Name()] = elapsed
		s.notifyAfter(ctx, step.Name(), next, elapsed, stepErr)
		if stepErr != nil {
			atomic.AddInt64(&s.errorCount, 1)
			return nil, stepErr
		}
		current = next
	}

	atomic.AddInt64(&s.processedCount, 1)

	return &ExtractionResult{
		Artifact:       current,
		ProcessingTime: time.Since(start),
		StepTimings:    timings,
	}, nil
}

// Submit enqueues an async job.  Returns ErrWorkerPoolFull if the queue is full.
func (s *Service) Submit(job Job) error {
	select {
	case s.jobQueue <- job:
		return nil
	default:
		return apperrors.New(apperrors.CategoryPipeline, "submit", apperrors.ErrWorkerPoolFull)
	}
}

// Batch processes multiple sources concurrently (fan-out / fan-in).
func (s *Service) Batch(ctx context.Context, sources []Source, steps ...Step) ([]*ExtractionResult, []error) {
	results := make([]*ExtractionResult, len(sources))
	errs := make([]error, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, sc Source) {
			defer wg.Done()
			r, e := s.Process(ctx, sc, steps...)
			results[idx] = r
			errs[idx] = e
		}(i, src)
	}
	wg.Wait()
	return results, errs
}

// ── worker pool internals ──────────────────────────────────────────────────────

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.shutdown:
			return
		case job, ok := <-s.jobQueue:
			if !ok {
				return
			}
			s.processJob(job)
		}
	}
}

func (s *Service) processJob(job Job) {
	ctx := job.Ctx
	timeout := s.cfg.JobTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.Process(ctx, job.Source, job.Steps...)
	if job.ResultCh != nil {
		job.ResultCh <- JobResult{JobID: job.ID, Result: result, Err: err}
	}
}

func (s *Service) runWithRetry(ctx context.Context, step Step, a *Artifact) (*Artifact, error) {
	maxRetries := s.cfg.MaxRetries
	delay := s.cfg.RetryDelay

	var (
		result *Artifact
		err    error
	)
	for i := 0; i <= maxRetries; i++ {
		result, err = step.Execute(ctx, a)
		if err == nil || !apperrors.IsRetryable(err) {
			return result, err
		}
		if i < maxRetries {
			select {
			case <-ctx.Done():
				return nil, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), ctx.Err())
			case <-time.After(delay):
			}
		}
	}
	return result, err
}

// ── retention janitor ──────────────────────────────────────────────────────────

// janitor periodically deletes stored files older than the retention window.
func (s *Service) janitor() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.SweepNow(context.Background())
		}
	}
}

// SweepNow runs one retention sweep and returns how many files were removed.
func (s *Service) SweepNow(ctx context.Context) int {
	if s.storage == nil {
		return 0
	}
	removed, err := s.storage.SweepExpired(ctx, s.cfg.Retention)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("janitor.sweep.failed", "error", err.Error())
		}
		return removed
	}
	if removed > 0 && s.logger != nil {
		s.logger.Info("janitor.sweep.done", "removed", removed)
	}
	atomic.AddInt64(&s.sweptCount, int64(removed))
	return removed
}

func (s *Service) notifyBefore(ctx context.Context, name string, a *Artifact) {
	for _, h := range s.hooks {
		h.BeforeStep(ctx, name, a)
	}
}

func (s *Service) notifyAfter(ctx context.Context, name string, a *Artifact, d time.Duration, err error) {
	for _, h := range s.hooks {
		h.AfterStep(ctx, name, a, d, err)
	}
}

// ProcessedCount returns the total number of successful extractions.
func (s *Service) ProcessedCount() int64 { return atomic.LoadInt64(&s.processedCount) }

// ErrorCount returns the total number of processing errors.
func (s *Service) ErrorCount() int64 { return atomic.LoadInt64(&s.errorCount) }

// SweptCount returns the total number of files removed by retention sweeps.
func (s *Service) SweptCount() int64 { return atomic.LoadInt64(&s.sweptCount) }
