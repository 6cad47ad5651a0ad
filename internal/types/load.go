package types

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk form of a type table
type tableFile struct {
	// Extends names a registered target whose entries are inherited
	Extends string     `yaml:"extends"`
	Target  string     `yaml:"target"`
	Quote   QuoteStyle `yaml:"quote"`
	Types   []Entry    `yaml:"types"`
}

// LoadFile reads a YAML type table, resolving extends against the registry
func LoadFile(path string, registry *Registry) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read type table")
	}

	t, err := Parse(data, registry)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return t, nil
}

// Parse decodes a YAML type table.
//
// Entries whose tag already exists in the extended table replace the fields
// they set; props, when given, replace the whole property list. Other entries
// are appended.
func Parse(data []byte, registry *Registry) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(ErrInvalidTable, "failed to parse YAML: %v", err)
	}

	var entries []Entry
	target := f.Target
	quote := f.Quote

	if f.Extends != "" {
		if registry == nil {
			registry = DefaultRegistry()
		}
		base, err := registry.Get(f.Extends)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidTable, "extends: %v", err)
		}
		entries = base.Entries()
		if target == "" {
			target = base.Target()
		}
		if quote == "" {
			quote = base.QuoteStyle()
		}
	}
	if quote == "" {
		quote = QuoteC
	}

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Tag] = i
	}

	for _, e := range f.Types {
		i, exists := index[e.Tag]
		if !exists {
			index[e.Tag] = len(entries)
			entries = append(entries, e)
			continue
		}
		entries[i] = merge(entries[i], e)
	}

	return NewTable(target, quote, entries)
}

func merge(base, override Entry) Entry {
	if override.Accessor != "" {
		base.Accessor = override.Accessor
	}
	if override.Wrapper != "" {
		base.Wrapper = override.Wrapper
	}
	if override.Message != "" {
		base.Message = override.Message
	}
	if override.Scalar != "" {
		base.Scalar = override.Scalar
	}
	if override.Props != nil {
		base.Props = override.Props
	}
	return base
}
