package commands

import (
	"github.com/pkg/errors"

	"github.com/dtig-project/dtig/internal/config"
	"github.com/dtig-project/dtig/internal/expand"
	"github.com/dtig-project/dtig/internal/runner"
	"github.com/dtig-project/dtig/internal/schema"
	"github.com/dtig-project/dtig/internal/types"
)

// project is a loaded and validated dtig.json
type project struct {
	cfg   *config.Config
	model *schema.Model
	table *types.Table
}

// loadProject reads the project file, the model and the type table, and
// checks every model item against the table
func (c *Controller) loadProject() (*project, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}

	table, err := c.resolveTable(cfg.Target, cfg.Types)
	if err != nil {
		return nil, err
	}
	model, err := loadModel(cfg.Model, table)
	if err != nil {
		return nil, err
	}

	c.Logger.Debug().
		Str("project", cfg.Name).
		Str("target", table.Target()).
		Int("templates", len(cfg.Templates)).
		Msg("loaded project")
	return &project{cfg: cfg, model: model, table: table}, nil
}

func (p *project) jobs() []runner.Job {
	jobs := make([]runner.Job, len(p.cfg.Templates))
	for i, t := range p.cfg.Templates {
		jobs[i] = runner.Job{Template: t.Source, Output: t.Output}
	}
	return jobs
}

func (c *Controller) newRunner(p *project, keepGoing bool) *runner.Runner {
	return runner.New(p.model, p.table,
		runner.WithParallelism(p.cfg.Parallelism),
		runner.WithKeepGoing(keepGoing),
		runner.WithLogger(c.Logger),
		runner.WithExpandOptions(
			expand.WithMaxDepth(p.cfg.MaxDepth),
			expand.WithVars(p.cfg.Vars),
		),
	)
}

// resolveTable loads a type table file when one is given, otherwise the builtin table of target
func (c *Controller) resolveTable(target, file string) (*types.Table, error) {
	if file != "" {
		table, err := types.LoadFile(file, c.registry())
		if err != nil {
			return nil, errors.Wrap(err, "failed to load type table")
		}
		return table, nil
	}
	table, err := c.registry().Get(target)
	if err != nil {
		return nil, errors.Wrapf(err, "available targets: %v", c.registry().Targets())
	}
	return table, nil
}

func loadModel(path string, table *types.Table) (*schema.Model, error) {
	model, err := schema.LoadModel(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model")
	}
	if err := model.Validate(table); err != nil {
		return nil, err
	}
	return model, nil
}
