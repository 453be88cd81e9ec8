package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/sheetify/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded imports, or shows a single run when an ID is given.
// With --delete the run is removed instead.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if cmd.Bool("delete") && id == "" {
		return fmt.Errorf("%w: history --delete needs a run ID", shared.ErrInvalidInput)
	}

	repo, closeFn, err := r.historyRepo()
	if errors.Is(err, shared.ErrHistoryDisabled) {
		return fmt.Errorf("%w: set database.path in %s", err, r.configPath)
	}
	if err != nil {
		return err
	}
	defer closeFn()

	if cmd.Bool("delete") {
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		r.logger.Info("deleted run", "id", id)
		return r.writePlain("Deleted import %s\n", id)
	}

	if id != "" {
		run, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		return r.writePlain("%s", r.palette.Run(run))
	}

	runs, err := repo.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.writePlain("%s", r.palette.History(runs))
}
