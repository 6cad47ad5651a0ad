// Package runner expands sets of templates into output files.
package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dtig-project/dtig/internal/directive"
	"github.com/dtig-project/dtig/internal/expand"
	"github.com/dtig-project/dtig/internal/schema"
	"github.com/dtig-project/dtig/internal/types"
)

// Job expands one template file into one output file
type Job struct {
	Template string
	Output   string
}

// Option configures a Runner
type Option func(*Runner)

// WithParallelism bounds the number of jobs running at once
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithKeepGoing makes Run finish the remaining jobs after a failure and
// report every error together
func WithKeepGoing(keepGoing bool) Option {
	return func(r *Runner) {
		r.keepGoing = keepGoing
	}
}

// WithLogger sets the runner's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger.With().Str("component", "runner").Logger()
	}
}

// WithExpandOptions passes options to the evaluator of every job
func WithExpandOptions(opts ...expand.Option) Option {
	return func(r *Runner) {
		r.expandOpts = append(r.expandOpts, opts...)
	}
}

// Runner expands templates against one model and type table
type Runner struct {
	model       *schema.Model
	table       *types.Table
	parallelism int
	keepGoing   bool
	logger      zerolog.Logger
	expandOpts  []expand.Option
}

// New creates a runner
func New(model *schema.Model, table *types.Table, opts ...Option) *Runner {
	r := &Runner{
		model:       model,
		table:       table,
		parallelism: runtime.NumCPU(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run expands every job. Without keep-going the first failure cancels the
// jobs that have not started yet. A failed job never touches its output.
func (r *Runner) Run(ctx context.Context, jobs []Job) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	var (
		mu   sync.Mutex
		errs error
	)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := r.runJob(job)
			if err == nil || !r.keepGoing {
				return err
			}
			mu.Lock()
			errs = multierr.Append(errs, err)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errs
}

// Check parses every template without expanding or writing anything
func (r *Runner) Check(jobs []Job) error {
	var errs error
	for _, job := range jobs {
		if _, err := parseFile(job.Template); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (r *Runner) runJob(job Job) error {
	start := time.Now()
	logger := r.logger.With().Str("template", job.Template).Logger()

	tpl, err := parseFile(job.Template)
	if err != nil {
		logger.Error().Err(err).Msg("parse failed")
		return err
	}

	opts := append([]expand.Option{expand.WithLogger(logger)}, r.expandOpts...)
	out, err := expand.New(r.model, r.table, opts...).Expand(tpl)
	if err != nil {
		logger.Error().Err(err).Msg("expansion failed")
		return err
	}

	written, err := writeFile(job.Output, []byte(out))
	if err != nil {
		logger.Error().Err(err).Str("output", job.Output).Msg("write failed")
		return err
	}

	event := logger.Info()
	if !written {
		event = logger.Debug()
	}
	event.
		Str("output", job.Output).
		Int("bytes", len(out)).
		Bool("changed", written).
		Dur("elapsed", time.Since(start)).
		Msg("generated")
	return nil
}

func parseFile(path string) (*directive.Template, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read template")
	}
	return directive.Parse(path, string(src))
}

// writeFile replaces path with data through a temporary file in the same
// directory. It reports false when the file already held exactly data.
func writeFile(path string, data []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, errors.Wrapf(err, "failed to replace %s", path)
	}
	return true, nil
}
