package schema

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// TypeChecker is the part of a type table the model is validated against
type TypeChecker interface {
	Has(tag string) bool
}

// Validate checks every item's type tag against the table and reports all unknown tags at once
func (m *Model) Validate(table TypeChecker) error {
	var errs error
	for _, c := range Collections {
		for _, item := range m.Items(c) {
			if !table.Has(item.Type) {
				errs = multierr.Append(errs, errors.Wrapf(ErrSchema, "%s[%d] %q: unknown type %q", c, item.Index, item.Name, item.Type))
			}
		}
	}
	if errs != nil && m.Path != "" {
		return errors.Wrapf(errs, "%s", m.Path)
	}
	return errs
}
