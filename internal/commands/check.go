package commands

import (
	"context"
	"fmt"
)

// Check parses every template and validates the model without writing files
func (c *Controller) Check(ctx context.Context) error {
	p, err := c.loadProject()
	if err != nil {
		return err
	}
	if err := c.newRunner(p, true).Check(p.jobs()); err != nil {
		return err
	}

	fmt.Fprintf(c.out(), "%s: model and %d template(s) ok\n", p.cfg.Name, len(p.cfg.Templates))
	return nil
}
