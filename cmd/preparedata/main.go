package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alekLukanen/errs"

	"github.com/rdelcourt/ChequeDataPrep/pipeline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting cheque data preparation")

	ctx := context.Background()

	config, err := pipeline.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", errs.ErrorWithStack(err)))
		os.Exit(1)
	}

	p, err := pipeline.NewPipeline(ctx, logger, config)
	if err != nil {
		logger.Error("unable to build pipeline", slog.String("error", errs.ErrorWithStack(err)))
		os.Exit(1)
	}

	manifest, err := p.Run(ctx)
	if err != nil {
		logger.Error("data preparation failed", slog.String("error", errs.ErrorWithStack(err)))
		os.Exit(1)
	}

	logger.Info(
		"data preparation succeeded",
		slog.String("runId", manifest.Id),
		slog.Int64("trainRows", manifest.TrainRows),
		slog.Int64("testRows", manifest.TestRows),
		slog.String("trainPath", manifest.TrainPath),
		slog.String("testPath", manifest.TestPath),
	)
}
