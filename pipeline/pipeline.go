package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"

	arrowops "github.com/rdelcourt/ChequeDataPrep/arrowOps"
	"github.com/rdelcourt/ChequeDataPrep/operations"
	"github.com/rdelcourt/ChequeDataPrep/storage"
)

const (
	TrainFileName      = "train.parquet"
	TestFileName       = "test.parquet"
	QuarantineFileName = "rejected.avro"
	ManifestFileName   = "run_manifest.json"
)

// Pipeline runs the whole preparation job once: scan the raw extract,
// filter and type the rows, derive the hour feature, prune the leakage
// and unused columns, split at the cutoff and persist both partitions.
type Pipeline struct {
	logger    *slog.Logger
	allocator *memory.GoAllocator
	config    Config

	runRegistry   storage.IRunRegistry
	objectStorage storage.IObjectStorage
}

func NewPipeline(ctx context.Context, logger *slog.Logger, config Config) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, errs.Wrap(err)
	}

	pipeline := &Pipeline{
		logger:    logger,
		allocator: memory.NewGoAllocator(),
		config:    config,
	}

	if config.RedisAddress != "" {
		runRegistry, err := storage.NewRunRegistry(ctx, logger, storage.RunRegistryOptions{
			Address:   config.RedisAddress,
			Password:  config.RedisPassword,
			KeyPrefix: config.RedisKeyPrefix,
		})
		if err != nil {
			return nil, errs.Wrap(err)
		}
		pipeline.runRegistry = runRegistry
	}

	if config.S3Bucket != "" {
		objectStorage, err := storage.NewObjectStorage(ctx, logger, storage.ObjectStorageOptions{
			Endpoint:     config.S3Endpoint,
			Region:       config.S3Region,
			AuthKey:      config.S3AuthKey,
			AuthSecret:   config.S3AuthSecret,
			UsePathStyle: config.S3UsePathStyle,
			AuthType:     storage.ObjectStorageAuthTypeStatic,
		})
		if err != nil {
			return nil, errs.Wrap(err)
		}
		pipeline.objectStorage = objectStorage
	}

	return pipeline, nil
}

// Run executes one invocation and returns the run manifest. Either both
// output files are produced or none: the partitions are written to
// temporary paths and only renamed into place once every write has
// succeeded.
func (obj *Pipeline) Run(ctx context.Context) (*storage.RunManifest, error) {
	manifest := &storage.RunManifest{
		Id:        uuid.New().String(),
		InputPath: obj.config.RawDataPath,
		StartedAt: time.Now().UTC(),
	}
	obj.logger.Info(
		"starting data preparation run",
		slog.String("runId", manifest.Id),
		slog.String("rawDataPath", obj.config.RawDataPath),
	)

	runErr := obj.run(ctx, manifest)
	manifest.FinishedAt = time.Now().UTC()
	if runErr != nil {
		manifest.Status = storage.RunStatusFailed
		obj.saveManifest(ctx, manifest)
		return nil, runErr
	}

	manifest.Status = storage.RunStatusSucceeded
	obj.saveManifest(ctx, manifest)

	if err := obj.uploadArtifacts(ctx, manifest); err != nil {
		return nil, err
	}

	obj.logger.Info(
		"data preparation run finished",
		slog.String("runId", manifest.Id),
		slog.Int64("trainRows", manifest.TrainRows),
		slog.Int64("testRows", manifest.TestRows),
		slog.String("trainPath", manifest.TrainPath),
		slog.String("testPath", manifest.TestPath),
	)
	return manifest, nil
}

func (obj *Pipeline) run(ctx context.Context, manifest *storage.RunManifest) error {
	// fail before any parsing when the extract is absent
	if _, err := os.Stat(obj.config.RawDataPath); os.IsNotExist(err) {
		return errs.NewStackError(fmt.Errorf(
			"%w| %s, download the raw extract to the repository root first",
			ErrInputFileNotFound, obj.config.RawDataPath,
		))
	} else if err != nil {
		return errs.Wrap(err, fmt.Errorf("unable to stat %s", obj.config.RawDataPath))
	}

	if obj.runRegistry != nil {
		lock, err := obj.runRegistry.AcquireRunLock(ctx, obj.config.ProcessedDir, obj.config.RunLockDuration)
		if errors.Is(err, storage.ErrLockFailed) {
			return errs.Wrap(err, fmt.Errorf("another run holds the lock for %s", obj.config.ProcessedDir))
		} else if err != nil {
			return errs.Wrap(err, fmt.Errorf("unable to acquire the run lock for %s", obj.config.ProcessedDir))
		}
		defer func() {
			if _, unlockErr := obj.runRegistry.ReleaseRunLock(ctx, lock); unlockErr != nil {
				obj.logger.Error("unable to release run lock", slog.String("error", unlockErr.Error()))
			}
		}()
	}

	raw, err := operations.ScanCSV(obj.allocator, obj.config.RawDataPath, operations.ScanOptions{
		Delimiter: obj.config.Delimiter,
		BatchSize: obj.config.ScanBatchSize,
	})
	if err != nil {
		return errs.Wrap(err, fmt.Errorf("unable to scan %s", obj.config.RawDataPath))
	}
	defer raw.Release()
	obj.logger.Info("raw extract scanned", slog.Int64("numRows", raw.NumRows()), slog.Int64("numCols", raw.NumCols()))

	plan, err := operations.NewTransformPlan(obj.logger, obj.allocator, obj.config.Schema, operations.TransformPlanOptions{
		CastPolicy: obj.config.CastPolicy,
	})
	if err != nil {
		return errs.Wrap(err)
	}

	result, err := plan.Collect(ctx, raw)
	if err != nil {
		return errs.Wrap(err)
	}
	defer result.Release()

	manifest.ScannedRows = result.ScannedRows
	manifest.SentinelRows = result.SentinelRows
	manifest.RejectedRows = int64(len(result.RejectedRows))

	train, test, err := operations.SplitByTimestamp(
		obj.allocator, result.Record, obj.config.Schema.TimestampColumn(), obj.config.SplitDate,
	)
	if err != nil {
		return errs.Wrap(err)
	}
	defer train.Release()
	defer test.Release()

	manifest.TrainRows = train.NumRows()
	manifest.TestRows = test.NumRows()
	obj.logger.Info(
		"temporal split done",
		slog.Time("cutoff", obj.config.SplitDate),
		slog.Int64("trainRows", manifest.TrainRows),
		slog.Int64("testRows", manifest.TestRows),
	)

	if err := os.MkdirAll(obj.config.ProcessedDir, 0o755); err != nil {
		return errs.Wrap(err, fmt.Errorf("unable to create processed dir %s", obj.config.ProcessedDir))
	}

	trainPath := filepath.Join(obj.config.ProcessedDir, TrainFileName)
	testPath := filepath.Join(obj.config.ProcessedDir, TestFileName)

	// stage every artifact, then rename; a failure part way through
	// leaves no half-written final file behind
	trainTmp := trainPath + ".tmp"
	testTmp := testPath + ".tmp"
	quarantineTmp := ""
	cleanupTmp := func() {
		os.Remove(trainTmp)
		os.Remove(testTmp)
		if quarantineTmp != "" {
			os.Remove(quarantineTmp)
		}
	}

	if err := arrowops.WriteRecordToParquetFile(ctx, obj.allocator, train, trainTmp); err != nil {
		cleanupTmp()
		return errs.Wrap(err, fmt.Errorf("unable to write train partition"))
	}
	if err := arrowops.WriteRecordToParquetFile(ctx, obj.allocator, test, testTmp); err != nil {
		cleanupTmp()
		return errs.Wrap(err, fmt.Errorf("unable to write test partition"))
	}

	quarantinePath := ""
	if len(result.RejectedRows) > 0 {
		quarantinePath = filepath.Join(obj.config.ProcessedDir, QuarantineFileName)
		quarantineTmp = quarantinePath + ".tmp"
		if err := operations.WriteQuarantineFile(quarantineTmp, result.FilteredRaw, result.RejectedRows); err != nil {
			cleanupTmp()
			return errs.Wrap(err, fmt.Errorf("unable to write quarantine file"))
		}
	}

	if err := os.Rename(trainTmp, trainPath); err != nil {
		cleanupTmp()
		return errs.Wrap(err, fmt.Errorf("unable to move train partition into place"))
	}
	if err := os.Rename(testTmp, testPath); err != nil {
		os.Remove(trainPath)
		cleanupTmp()
		return errs.Wrap(err, fmt.Errorf("unable to move test partition into place"))
	}
	if quarantineTmp != "" {
		if err := os.Rename(quarantineTmp, quarantinePath); err != nil {
			os.Remove(trainPath)
			os.Remove(testPath)
			cleanupTmp()
			return errs.Wrap(err, fmt.Errorf("unable to move quarantine file into place"))
		}
		manifest.QuarantinePath = quarantinePath
		obj.logger.Warn(
			"rows with malformed cells were nulled and quarantined",
			slog.Int("numRows", len(result.RejectedRows)),
			slog.String("quarantinePath", quarantinePath),
		)
	}

	manifest.TrainPath = trainPath
	manifest.TestPath = testPath
	return nil
}

func (obj *Pipeline) saveManifest(ctx context.Context, manifest *storage.RunManifest) {
	if obj.runRegistry == nil {
		return
	}
	if err := obj.runRegistry.SaveRunManifest(ctx, manifest); err != nil {
		obj.logger.Error(
			"unable to save run manifest",
			slog.String("runId", manifest.Id),
			slog.String("error", errs.ErrorWithStack(err)),
		)
	}
}

func (obj *Pipeline) uploadArtifacts(ctx context.Context, manifest *storage.RunManifest) error {
	if obj.objectStorage == nil {
		return nil
	}

	keyPrefix := fmt.Sprintf("%s/%s", obj.config.S3KeyPrefix, manifest.Id)
	artifacts := []struct {
		key      string
		filePath string
	}{
		{fmt.Sprintf("%s/%s", keyPrefix, TrainFileName), manifest.TrainPath},
		{fmt.Sprintf("%s/%s", keyPrefix, TestFileName), manifest.TestPath},
	}
	if manifest.QuarantinePath != "" {
		artifacts = append(artifacts, struct {
			key      string
			filePath string
		}{fmt.Sprintf("%s/%s", keyPrefix, QuarantineFileName), manifest.QuarantinePath})
	}

	for _, artifact := range artifacts {
		if err := obj.objectStorage.UploadFile(ctx, obj.config.S3Bucket, artifact.key, artifact.filePath); err != nil {
			return errs.Wrap(err)
		}
	}

	manifestData, err := manifest.ToBytes()
	if err != nil {
		return errs.Wrap(err)
	}
	manifestKey := fmt.Sprintf("%s/%s", keyPrefix, ManifestFileName)
	if err := obj.objectStorage.Upload(ctx, obj.config.S3Bucket, manifestKey, manifestData); err != nil {
		return errs.Wrap(err)
	}
	return nil
}
