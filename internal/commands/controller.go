// Package commands contains the CLI commands for the application
package commands

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/dtig-project/dtig/internal/config"
	"github.com/dtig-project/dtig/internal/types"
)

// Flags holds the global command line flags
type Flags struct {
	LogLevel string
}

// Controller runs the CLI commands. Zero-valued fields fall back to the
// process defaults: stdout, the working directory's dtig.json and the
// builtin targets.
type Controller struct {
	Flags      *Flags
	Logger     zerolog.Logger
	Out        io.Writer
	LoadConfig func() (*config.Config, error)
	Registry   *types.Registry
}

func (c *Controller) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Controller) registry() *types.Registry {
	if c.Registry == nil {
		c.Registry = types.DefaultRegistry()
	}
	return c.Registry
}

func (c *Controller) config() (*config.Config, error) {
	load := c.LoadConfig
	if load == nil {
		load = config.Load
	}
	return load()
}
