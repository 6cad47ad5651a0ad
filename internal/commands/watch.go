package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/dtig-project/dtig/internal/config"
	"github.com/dtig-project/dtig/internal/watch"
)

// WatchOptions configures the watch command
type WatchOptions struct {
	Debounce time.Duration
}

// Watch generates the project, then regenerates whenever the project file,
// the model, the type table or a template changes. Generation errors are
// logged and watching continues. The watched set is fixed at start.
func (c *Controller) Watch(ctx context.Context, opts WatchOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := c.config()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	regenerate := func() {
		if err := c.Generate(ctx, GenerateOptions{KeepGoing: true}); err != nil && ctx.Err() == nil {
			c.Logger.Error().Err(err).Msg("generation failed")
		}
	}
	regenerate()

	files := append(cfg.Files(), filepath.Join(cfg.Dir, config.FileName))
	w, err := watch.New(files,
		watch.WithExclude(cfg.Watch.Exclude),
		watch.WithDebounce(opts.Debounce),
		watch.WithLogger(c.Logger),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(c.out(), "watching %d file(s) of %s, press Ctrl+C to stop\n", len(files), cfg.Name)

	err = w.Run(ctx, func(changed []string) {
		c.Logger.Info().Strs("files", changed).Msg("regenerating")
		regenerate()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
