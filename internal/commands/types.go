package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/dtig-project/dtig/internal/codegen/protobuf"
	"github.com/dtig-project/dtig/internal/config"
	"github.com/dtig-project/dtig/internal/types"
)

// TypesOptions configures the types command
type TypesOptions struct {
	Target     string
	Types      string
	Proto      string
	Descriptor string
	GoPackage  string
}

// Types prints a type table, or writes its wrapper messages as a .proto
// file and as a serialized FileDescriptorSet. "-" writes to the controller's writer.
func (c *Controller) Types(ctx context.Context, opts TypesOptions) error {
	if opts.Target == "" {
		opts.Target = config.DefaultTarget
	}
	table, err := c.resolveTable(opts.Target, opts.Types)
	if err != nil {
		return err
	}

	if opts.Proto == "" && opts.Descriptor == "" {
		return c.printTable(table)
	}

	if opts.Proto != "" {
		src, err := protobuf.NewGenerator(opts.GoPackage).Generate(table)
		if err != nil {
			return err
		}
		if err := c.writeOutput(opts.Proto, []byte(src)); err != nil {
			return err
		}
	}

	if opts.Descriptor != "" {
		fd, err := types.Descriptor(table)
		if err != nil {
			return err
		}
		data, err := proto.Marshal(&descriptorpb.FileDescriptorSet{
			File: []*descriptorpb.FileDescriptorProto{fd},
		})
		if err != nil {
			return errors.Wrap(err, "failed to marshal descriptor")
		}
		if err := c.writeOutput(opts.Descriptor, data); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) printTable(table *types.Table) error {
	fmt.Fprintf(c.out(), "target %s, %s quoting\n\n", table.Target(), table.QuoteStyle())

	tw := tabwriter.NewWriter(c.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tACCESSOR\tWRAPPER\tMESSAGE\tPROPERTIES")
	for _, e := range table.Entries() {
		props := make([]string, len(e.Props))
		for i, p := range e.Props {
			props[i] = p.Name + ":" + p.Type
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Tag, e.Accessor, e.Wrapper, e.Message, strings.Join(props, " "))
	}
	return tw.Flush()
}

func (c *Controller) writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := c.out().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	c.Logger.Info().Str("output", path).Int("bytes", len(data)).Msg("written")
	return nil
}
