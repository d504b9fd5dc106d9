package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/go-redsync/redsync/v4"
	redsyncredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

type ILock interface {
	TryLockContext(context.Context) error
	UnlockContext(context.Context) (bool, error)
	Name() string
}

type IRunRegistry interface {
	AcquireRunLock(context.Context, string, time.Duration) (ILock, error)
	ReleaseRunLock(context.Context, ILock) (bool, error)
	SaveRunManifest(context.Context, *RunManifest) error
	GetRunManifest(context.Context, string) (*RunManifest, error)
}

type RunRegistryOptions struct {
	Address   string
	Password  string
	KeyPrefix string
}

// RunRegistry keeps run manifests and a per-output-dir lock in Redis so
// two invocations pointed at the same processed dir cannot interleave
// their writes.
type RunRegistry struct {
	logger *slog.Logger
	client *goredislib.Client
	pool   redsyncredis.Pool
	sync   *redsync.Redsync

	KeyPrefix string
}

func NewRunRegistry(
	ctx context.Context,
	logger *slog.Logger,
	options RunRegistryOptions,
) (*RunRegistry, error) {
	client := goredislib.NewClient(&goredislib.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       0, // use default DB
	})

	redisPool := goredis.NewPool(client)
	mutexSync := redsync.New(redisPool)

	runRegistry := RunRegistry{
		logger:    logger,
		client:    client,
		pool:      redisPool,
		sync:      mutexSync,
		KeyPrefix: options.KeyPrefix,
	}
	return &runRegistry, nil
}

func (obj *RunRegistry) Key(key string) string {
	return fmt.Sprintf("%s-%s", obj.KeyPrefix, key)
}

func (obj *RunRegistry) DerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	derivedCtx, cancelFunc := context.WithTimeout(ctx, time.Second*15)
	return derivedCtx, cancelFunc
}

// AcquireRunLock locks the processed dir for the duration of a run. A
// second invocation against the same dir fails with ErrLockFailed
// instead of clobbering half-written outputs.
func (obj *RunRegistry) AcquireRunLock(
	ctx context.Context, processedDir string, duration time.Duration,
) (ILock, error) {
	mutex := obj.sync.NewMutex(
		obj.Key(fmt.Sprintf("run-lock-%s", processedDir)),
		redsync.WithExpiry(duration),
	)
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, err
	}
	return mutex, nil
}

// ReleaseRunLock unlocks the run lock. An already expired lock is not an
// error for the caller; the run finished, the lock just outlived its TTL.
func (obj *RunRegistry) ReleaseRunLock(ctx context.Context, lock ILock) (bool, error) {
	ok, err := lock.UnlockContext(ctx)
	if errors.Is(err, ErrLockAlreadyExpired) {
		obj.logger.Warn("run lock expired before release", slog.String("lock", lock.Name()))
		return false, nil
	}
	return ok, err
}

func (obj *RunRegistry) SaveRunManifest(ctx context.Context, manifest *RunManifest) error {
	if err := manifest.Validate(); err != nil {
		return errs.Wrap(err)
	}

	data, err := manifest.ToBytes()
	if err != nil {
		return errs.Wrap(err, fmt.Errorf("unable to serialize run manifest %s", manifest.Id))
	}

	derivedCtx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()

	key := obj.Key(fmt.Sprintf("run-manifest-%s", manifest.Id))
	if err := obj.client.Set(derivedCtx, key, data, 0).Err(); err != nil {
		return errs.Wrap(err, fmt.Errorf("unable to store run manifest %s", manifest.Id))
	}

	obj.logger.Info("run manifest saved", slog.String("runId", manifest.Id))
	return nil
}

func (obj *RunRegistry) GetRunManifest(ctx context.Context, runId string) (*RunManifest, error) {
	derivedCtx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()

	key := obj.Key(fmt.Sprintf("run-manifest-%s", runId))
	data, err := obj.client.Get(derivedCtx, key).Bytes()
	if errors.Is(err, goredislib.Nil) {
		return nil, errs.NewStackError(fmt.Errorf("%w| %s", ErrRunNotFound, runId))
	} else if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("unable to read run manifest %s", runId))
	}

	manifest, err := NewRunManifestFromBytes(data)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return manifest, nil
}
