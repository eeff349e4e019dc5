package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hotelhub/service-booking/internal/clock"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/internal/metrics"
	"github.com/hotelhub/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// DefaultSweepBatchSize bounds the number of bookings one pass loads.
const DefaultSweepBatchSize = 500

// Sweep results recorded in metrics.
const (
	sweepResultOK      = "ok"
	sweepResultError   = "error"
	sweepResultSkipped = "skipped"
)

// Sweeper applies the system transitions that are due: pending bookings past checkout are
// cancelled and confirmed bookings past checkout are completed.
type Sweeper struct {
	bookings  *BookingService
	batchSize int
	logger    *zap.Logger
}

// NewSweeper creates a Sweeper that writes through the booking service.
func NewSweeper(bookings *BookingService, batchSize int, logger *zap.Logger) *Sweeper {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &Sweeper{bookings: bookings, batchSize: batchSize, logger: logger}
}

// Sweep runs one pass for the given instant and returns the transitions it applied.
// Failures on individual bookings are logged and skipped; only a failure to load the
// candidates is returned. Running it twice with the same now applies nothing the second time.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) ([]bookingDomain.TransitionResult, error) {
	results, _, err := s.sweep(ctx, now)
	return results, err
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) ([]bookingDomain.TransitionResult, int, error) {
	lc := s.bookings.lifecycle
	today := lc.Policy().Today(now)

	candidates, err := s.bookings.repo.FindDueForSweep(ctx, today, s.batchSize)
	if err != nil {
		return nil, 0, err
	}
	if len(candidates) == s.batchSize {
		s.logger.Info("sweep batch full, remaining bookings wait for the next pass",
			zap.Int("batch_size", s.batchSize))
	}

	results := make([]bookingDomain.TransitionResult, 0, len(candidates))
	failures := 0
	for _, bk := range candidates {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep interrupted",
				zap.Int("applied", len(results)),
				zap.Int("failed", failures),
			)
			return results, failures, nil
		default:
		}

		action, due := lc.DueAction(bk, now)
		if !due {
			continue
		}

		res, err := s.bookings.applyTransition(ctx, bk, bookingDomain.TransitionRequest{
			Action: action,
			Actor:  bookingDomain.SystemActor,
		}, now)
		if err != nil {
			failures++
			if errors.Is(err, domain.ErrConflict) {
				s.logger.Info("sweep lost race, booking changed concurrently",
					zap.String("booking_id", bk.ID().String()))
				continue
			}
			s.logger.Error("sweep failed to transition booking",
				zap.String("booking_id", bk.ID().String()),
				zap.String("action", string(action)),
				zap.Error(err),
			)
			continue
		}
		results = append(results, *res)
	}

	return results, failures, nil
}

// Locker grants a lease on a key. TryLock returns ok=false when another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

// SweepRunnerConfig holds scheduling settings for SweepRunner.
type SweepRunnerConfig struct {
	// Interval between passes.
	Interval time.Duration
	// LockKey is the distributed lock key; only used with a Locker.
	LockKey string
	// LockTTL bounds how long a crashed replica can hold the lock.
	LockTTL time.Duration
}

// SweepReport summarises one pass.
type SweepReport struct {
	Skipped      bool                             `json:"skipped"`
	Failures     int                              `json:"failures"`
	Transitioned []bookingDomain.TransitionResult `json:"-"`
	Duration     time.Duration                    `json:"-"`
}

// SweepRunner runs the sweeper on a ticker.
type SweepRunner struct {
	cfg     SweepRunnerConfig
	sweeper *Sweeper
	clock   clock.Clock
	locker  Locker
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewSweepRunner creates a SweepRunner. locker may be nil for a single replica.
func NewSweepRunner(cfg SweepRunnerConfig, sweeper *Sweeper, clk clock.Clock, locker Locker, m *metrics.Metrics, logger *zap.Logger) *SweepRunner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.LockKey == "" {
		cfg.LockKey = "service-booking:sweeper"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Interval
	}
	return &SweepRunner{
		cfg:     cfg,
		sweeper: sweeper,
		clock:   clk,
		locker:  locker,
		metrics: m,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start runs a pass immediately and then on every tick until ctx is done or Stop is called.
func (r *SweepRunner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info("lifecycle sweeper started", zap.Duration("interval", r.cfg.Interval))

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	_, _ = r.RunNow(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("lifecycle sweeper stopped by context")
			return
		case <-r.stopCh:
			r.logger.Info("lifecycle sweeper stopped")
			return
		case <-ticker.C:
			_, _ = r.RunNow(ctx)
		}
	}
}

// Stop stops the runner loop.
func (r *SweepRunner) Stop() {
	r.mu.Lock()
	if r.running {
		r.running = false
		close(r.stopCh)
	}
	r.mu.Unlock()
}

// IsRunning reports whether the loop is active.
func (r *SweepRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RunNow runs one pass at the current clock time. When a Locker is configured and another
// replica holds the lock the pass is skipped.
func (r *SweepRunner) RunNow(ctx context.Context) (*SweepReport, error) {
	if r.locker != nil {
		unlock, ok, err := r.locker.TryLock(ctx, r.cfg.LockKey, r.cfg.LockTTL)
		if err != nil {
			r.logger.Error("failed to acquire sweeper lock", zap.Error(err))
			r.metrics.ObserveSweep(sweepResultError, 0, 0)
			return nil, err
		}
		if !ok {
			r.logger.Debug("sweeper lock held by another replica")
			r.metrics.ObserveSweep(sweepResultSkipped, 0, 0)
			return &SweepReport{Skipped: true}, nil
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("failed to release sweeper lock", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	results, failures, err := r.sweeper.sweep(ctx, r.clock.Now())
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("sweep failed", zap.Error(err))
		r.metrics.ObserveSweep(sweepResultError, elapsed.Seconds(), 0)
		return nil, err
	}

	r.metrics.ObserveSweep(sweepResultOK, elapsed.Seconds(), failures)
	if len(results) > 0 || failures > 0 {
		r.logger.Info("sweep completed",
			zap.Int("transitioned", len(results)),
			zap.Int("failed", failures),
			zap.Duration("duration", elapsed),
		)
	}

	return &SweepReport{
		Failures:     failures,
		Transitioned: results,
		Duration:     elapsed,
	}, nil
}
