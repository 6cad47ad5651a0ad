package commands

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/dtig-project/dtig/internal/config"
	"github.com/dtig-project/dtig/internal/expand"
	"github.com/dtig-project/dtig/internal/runner"
)

// ExpandOptions configures the expand command
type ExpandOptions struct {
	Template string
	Model    string
	Target   string
	Types    string
	Vars     []string
	Output   string
	MaxDepth int
}

// Expand runs a single template without a project file. The result goes to
// Output when set, otherwise to the controller's writer.
func (c *Controller) Expand(ctx context.Context, opts ExpandOptions) error {
	if opts.Template == "" {
		return errors.New("a template is required")
	}
	if opts.Model == "" {
		return errors.New("--model is required")
	}
	if opts.Target == "" {
		opts.Target = config.DefaultTarget
	}

	vars, err := parseVars(opts.Vars)
	if err != nil {
		return err
	}
	table, err := c.resolveTable(opts.Target, opts.Types)
	if err != nil {
		return err
	}
	model, err := loadModel(opts.Model, table)
	if err != nil {
		return err
	}

	expandOpts := []expand.Option{
		expand.WithMaxDepth(opts.MaxDepth),
		expand.WithVars(vars),
	}

	if opts.Output != "" {
		r := runner.New(model, table,
			runner.WithLogger(c.Logger),
			runner.WithExpandOptions(expandOpts...),
		)
		return r.Run(ctx, []runner.Job{{Template: opts.Template, Output: opts.Output}})
	}

	src, err := os.ReadFile(opts.Template)
	if err != nil {
		return errors.Wrap(err, "failed to read template")
	}
	expandOpts = append(expandOpts, expand.WithLogger(c.Logger))
	out, err := expand.New(model, table, expandOpts...).ExpandString(opts.Template, string(src))
	if err != nil {
		return err
	}
	_, err = c.out().Write([]byte(out))
	return err
}

// parseVars turns KEY=VALUE pairs into a map; later pairs win
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("invalid variable %q, expected KEY=VALUE", pair)
		}
		vars[k] = v
	}
	return vars, nil
}
