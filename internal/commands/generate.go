package commands

import (
	"context"
	"fmt"
	"time"
)

// GenerateOptions configures the generate command
type GenerateOptions struct {
	KeepGoing bool
}

// Generate expands every template of the project
func (c *Controller) Generate(ctx context.Context, opts GenerateOptions) error {
	start := time.Now()
	p, err := c.loadProject()
	if err != nil {
		return err
	}

	if err := c.newRunner(p, opts.KeepGoing).Run(ctx, p.jobs()); err != nil {
		return err
	}

	fmt.Fprintf(c.out(), "generated %d file(s) for %s in %s\n", len(p.cfg.Templates), p.cfg.Name, time.Since(start).Round(time.Millisecond))
	return nil
}
