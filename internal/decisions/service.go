package decisions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/notify"
	"github.com/JaimeStill/underwriter/pkg/lifecycle"
	"github.com/JaimeStill/underwriter/pkg/llm"
	"github.com/JaimeStill/underwriter/pkg/storage"
	"github.com/JaimeStill/underwriter/workflow"
)

const lockPrefix = "decision:"

type service struct {
	rt       *workflow.Runtime
	apps     applications.System
	locker   *redislock.Client
	notifier *notify.Notifier
	archive  storage.System
	lc       *lifecycle.Coordinator
	runs     *semaphore.Weighted
	parallel int
	lockTTL  time.Duration
	maxBatch int
	logger   *slog.Logger
}

// New creates a decision system implementing the System interface.
// It internally constructs the workflow runtime from the provided dependencies.
func New(
	apps applications.System,
	client llm.Client,
	rdb *redis.Client,
	archive storage.System,
	lc *lifecycle.Coordinator,
	pipeline config.PipelineConfig,
	maxBatch int,
	logger *slog.Logger,
) System {
	notifier := notify.New(rdb, logger)
	parallel := max(pipeline.MaxConcurrentRuns, 1)

	rt := &workflow.Runtime{
		LLM:      client,
		Store:    apps,
		Pipeline: pipeline,
		Notifier: notifier,
		Logger:   logger.With("workflow", "decide"),
	}

	return &service{
		rt:       rt,
		apps:     apps,
		locker:   redislock.New(rdb),
		notifier: notifier,
		archive:  archive,
		lc:       lc,
		runs:     semaphore.NewWeighted(int64(parallel)),
		parallel: parallel,
		lockTTL:  pipeline.LockTTLDuration(),
		maxBatch: maxBatch,
		logger:   logger.With("system", "decisions"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) Run(ctx context.Context, id uuid.UUID) (*workflow.Result, error) {
	lock, err := s.locker.Obtain(ctx, LockKey(id), s.lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrInProgress, id)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain run lock: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			s.logger.WarnContext(ctx, "release run lock failed", "application_id", id, "error", err)
		}
	}()

	result, err := workflow.Execute(ctx, s.rt, id)
	if err != nil {
		return nil, err
	}

	s.store(ctx, result)
	return result, nil
}

func (s *service) Submit(ctx context.Context, id uuid.UUID) error {
	if _, err := s.apps.Find(ctx, id); err != nil {
		return err
	}
	s.enqueue(id)
	return nil
}

func (s *service) Apply(ctx context.Context, cmd applications.CreateCommand) (*applications.Application, error) {
	app, err := s.apps.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.enqueue(app.ID)
	return app, nil
}

func (s *service) RunBatch(ctx context.Context, ids []uuid.UUID) ([]BatchItem, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.maxBatch > 0 && len(ids) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ids), s.maxBatch)
	}

	items := make([]BatchItem, len(ids))

	var g errgroup.Group
	g.SetLimit(s.parallel)

	for i, id := range ids {
		g.Go(func() error {
			items[i] = s.batchItem(ctx, id)
			return nil
		})
	}

	_ = g.Wait()
	return items, nil
}

func (s *service) Subscribe(ctx context.Context, id uuid.UUID) (<-chan notify.Event, error) {
	return s.notifier.Subscribe(ctx, id)
}

// LockKey returns the Redis key guarding runs for an application.
func LockKey(id uuid.UUID) string {
	return lockPrefix + id.String()
}

func (s *service) batchItem(ctx context.Context, id uuid.UUID) BatchItem {
	item := BatchItem{ApplicationID: id}

	result, err := s.Run(ctx, id)
	if err != nil {
		item.Error = err.Error()
		if errors.Is(err, workflow.ErrPipelineFailed) {
			item.Status = applications.StatusError
		}
		return item
	}

	item.Status = result.Status
	item.Reason = result.Reason
	item.Confidence = result.Confidence
	return item
}

// enqueue runs id in the background under the coordinator's context,
// waiting for a free run slot first.
func (s *service) enqueue(id uuid.UUID) {
	s.lc.Go(func(ctx context.Context) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.ErrorContext(ctx, "background decision run panic", "application_id", id, "panic", v)
			}
		}()

		if err := s.runs.Acquire(ctx, 1); err != nil {
			s.logger.WarnContext(ctx, "decision run not started", "application_id", id, "error", err)
			return
		}
		defer s.runs.Release(1)

		if _, err := s.Run(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "background decision run failed", "application_id", id, "error", err)
		}
	})
}

// store archives a completed result when blob storage is enabled.
// Archive failures are logged and do not fail the run.
func (s *service) store(ctx context.Context, result *workflow.Result) {
	if !s.archive.Enabled() {
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		s.logger.WarnContext(ctx, "encode decision archive failed", "application_id", result.ApplicationID, "error", err)
		return
	}

	key := s.archive.Key(result.ApplicationID.String(), result.CompletedAt.UTC().Format("20060102T150405Z")+".json")
	if err := s.archive.Put(context.WithoutCancel(ctx), key, body, "application/json"); err != nil {
		s.logger.WarnContext(ctx, "archive decision failed", "key", key, "error", err)
		return
	}

	s.logger.InfoContext(ctx, "decision archived", "key", key)
}
