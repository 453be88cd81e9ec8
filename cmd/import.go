package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/sheetify/internal/formatter"
	"github.com/desertthunder/sheetify/internal/models"
	"github.com/desertthunder/sheetify/internal/repositories"
	"github.com/desertthunder/sheetify/internal/shared"
	"github.com/desertthunder/sheetify/internal/sheets"
	"github.com/desertthunder/sheetify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Import reads the input spreadsheet, resolves every row on Spotify, and creates the playlist.
//
// Credentials are checked and the spreadsheet is read before any remote call is made.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	r.applyImportFlags(cmd)
	opts := r.config.Import

	if err := r.config.Validate(); err != nil {
		return err
	}

	requests, err := sheets.ReadSongRequests(opts.InputPath)
	if err != nil {
		return err
	}
	logger := shared.WithLogger(r.logger, "input", filepath.Base(opts.InputPath))
	logger.Info("read spreadsheet", "songs", len(requests))

	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	importer := tasks.NewImporter(catalog, logger, tasks.ImportOpts{
		PlaylistName:  opts.PlaylistName,
		Public:        opts.Public,
		BatchSize:     opts.EffectiveBatchSize(),
		SearchRate:    opts.SearchRate,
		SearchTimeout: time.Duration(opts.SearchTimeout) * time.Second,
		ReportPath:    opts.NotFoundPath,
	})

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if !r.quiet {
				r.writePlain("%s\n", r.palette.Progress(update))
			}
		}
	}()

	progress <- tasks.ReadRowsUpdate(opts.InputPath, len(requests))
	result, err := importer.Import(ctx, requests, tasks.Description(opts.InputPath, r.now()), progress)
	close(progress)
	wg.Wait()

	if result != nil {
		if missing := result.MissingNames(); len(missing) > 0 {
			logger.Debug("songs not found", "songs", strings.Join(missing, "; "))
		}
		if cmd.Bool("plain") {
			r.writePlain("%s", formatter.SummaryText(result))
		} else {
			r.writePlainln("%s", r.palette.Summary(result))
		}
	}
	if err != nil {
		return err
	}

	r.recordRun(ctx, opts.InputPath, result)
	return nil
}

func (r *Runner) applyImportFlags(cmd *cli.Command) {
	if v := cmd.String("input"); v != "" {
		r.config.Import.InputPath = v
	}
	if v := cmd.String("output"); v != "" {
		r.config.Import.NotFoundPath = v
	}
	if v := cmd.String("name"); v != "" {
		r.config.Import.PlaylistName = v
	}
	if cmd.Bool("private") {
		r.config.Import.Public = false
	}
	if v := cmd.Int("batch-size"); v > 0 {
		r.config.Import.BatchSize = v
	}
}

// recordRun stores a completed run in the history database when one is configured.
//
// Failures are logged; the import itself already succeeded.
func (r *Runner) recordRun(ctx context.Context, inputPath string, result *models.ImportResult) {
	repo, closeFn, err := r.historyRepo()
	if errors.Is(err, shared.ErrHistoryDisabled) {
		return
	}
	if err != nil {
		r.logger.Warn("failed to open history", "err", err)
		return
	}
	defer closeFn()

	run := models.NewImportRun(shared.GenerateID(), inputPath, result, r.now().UTC())
	if err := repo.Create(ctx, run); err != nil {
		r.logger.Warn("failed to record run", "err", err)
		return
	}
	r.logger.Debug("recorded run", "id", run.ID)
}

// historyRepo returns the configured run repository and a function that releases it.
func (r *Runner) historyRepo() (*repositories.RunRepository, func(), error) {
	if r.history != nil {
		return r.history, func() {}, nil
	}

	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewRunRepository(db), func() { db.Close() }, nil
}
