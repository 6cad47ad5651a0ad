// Package types implements the type table: the mapping from an item's type tag
// to the accessor, wrapper message and sub-properties used by generated code.
package types

import (
	"regexp"
	"sort"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
)

var (
	// ErrUnknownType is returned when a tag is not present in the table
	ErrUnknownType = errors.New("unknown type")
	// ErrNotComposite is returned when sub-properties are requested from a scalar type
	ErrNotComposite = errors.New("type has no sub-properties")
	// ErrUnknownProp is returned when a composite type lacks the requested sub-property
	ErrUnknownProp = errors.New("unknown sub-property")
	// ErrInvalidTable is the cause of every table validation failure
	ErrInvalidTable = errors.New("invalid type table")
)

// ValueProp is the implicit field holding the payload of every scalar wrapper message
const ValueProp = "value"

var identRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// scalarKinds are the protobuf scalar types a non-composite entry may be carried as
var scalarKinds = map[string]bool{
	"double": true, "float": true,
	"int32": true, "int64": true,
	"uint32": true, "uint64": true,
	"sint32": true, "sint64": true,
	"bool": true, "string": true, "bytes": true,
}

// Entry describes how one type tag is read, written and boxed by generated code.
// Entries returned by a Table must be treated as read-only.
type Entry struct {
	// Tag is the lower-case identifier used by model items
	Tag string `yaml:"tag"`
	// Accessor is the target-language primitive used for raw transport data
	Accessor string `yaml:"accessor"`
	// Wrapper is the target-language identifier of the boxed message
	Wrapper string `yaml:"wrapper"`
	// Message is the protobuf full name of the wrapper message
	Message string `yaml:"message"`
	// Scalar is the protobuf scalar carried by a non-composite wrapper
	Scalar string `yaml:"scalar"`
	// Props lists the sub-properties of a composite type, in field order
	Props []Prop `yaml:"props"`
}

// Composite reports whether the entry exposes sub-properties
func (e Entry) Composite() bool {
	return len(e.Props) > 0
}

// Prop is one named sub-property of a composite type
type Prop struct {
	Name string `yaml:"name"`
	// Type is the tag of a non-composite entry of the same table
	Type string `yaml:"type"`
	// Index is the position of the property, and its field number minus one
	Index int `yaml:"-"`
}

// Table is an immutable, validated set of entries for one target language
type Table struct {
	target  string
	quote   QuoteStyle
	entries map[string]Entry
	order   []string
	props   map[string]bool
}

// NewTable validates the entries and builds a table. Entry order is kept for listing.
func NewTable(target string, quote QuoteStyle, entries []Entry) (*Table, error) {
	if target == "" {
		return nil, errors.Wrap(ErrInvalidTable, "missing target name")
	}
	if _, err := quote.quoter(); err != nil {
		return nil, err
	}

	t := &Table{
		target:  target,
		quote:   quote,
		entries: make(map[string]Entry, len(entries)),
		props:   map[string]bool{ValueProp: true},
	}

	for _, e := range entries {
		if !identRegex.MatchString(e.Tag) {
			return nil, errors.Wrapf(ErrInvalidTable, "invalid tag %q", e.Tag)
		}
		if _, dup := t.entries[e.Tag]; dup {
			return nil, errors.Wrapf(ErrInvalidTable, "duplicate tag %q", e.Tag)
		}

		props := make([]Prop, len(e.Props))
		for i, p := range e.Props {
			p.Index = i
			props[i] = p
		}
		e.Props = props

		t.entries[e.Tag] = e
		t.order = append(t.order, e.Tag)
	}

	for _, tag := range t.order {
		if err := t.validateEntry(t.entries[tag]); err != nil {
			return nil, err
		}
		for _, p := range t.entries[tag].Props {
			t.props[p.Name] = true
		}
	}

	return t, nil
}

func (t *Table) validateEntry(e Entry) error {
	if e.Accessor == "" {
		return errors.Wrapf(ErrInvalidTable, "type %q: missing accessor", e.Tag)
	}
	if e.Wrapper == "" {
		return errors.Wrapf(ErrInvalidTable, "type %q: missing wrapper", e.Tag)
	}
	if !protoreflect.FullName(e.Message).IsValid() {
		return errors.Wrapf(ErrInvalidTable, "type %q: invalid message name %q", e.Tag, e.Message)
	}

	if !e.Composite() {
		if !scalarKinds[e.Scalar] {
			return errors.Wrapf(ErrInvalidTable, "type %q: invalid scalar %q", e.Tag, e.Scalar)
		}
		return nil
	}

	seen := make(map[string]bool, len(e.Props))
	for _, p := range e.Props {
		if !identRegex.MatchString(p.Name) {
			return errors.Wrapf(ErrInvalidTable, "type %q: invalid property name %q", e.Tag, p.Name)
		}
		if seen[p.Name] {
			return errors.Wrapf(ErrInvalidTable, "type %q: duplicate property %q", e.Tag, p.Name)
		}
		seen[p.Name] = true

		pt, ok := t.entries[p.Type]
		if !ok {
			return errors.Wrapf(ErrInvalidTable, "type %q: property %q has unknown type %q", e.Tag, p.Name, p.Type)
		}
		if pt.Composite() {
			return errors.Wrapf(ErrInvalidTable, "type %q: property %q has composite type %q", e.Tag, p.Name, p.Type)
		}
	}
	return nil
}

// Target returns the name of the target language the table was built for
func (t *Table) Target() string {
	return t.target
}

// QuoteStyle returns the string literal style of the target language
func (t *Table) QuoteStyle() QuoteStyle {
	return t.quote
}

// Lookup returns the entry of a tag
func (t *Table) Lookup(tag string) (Entry, error) {
	e, ok := t.entries[tag]
	if !ok {
		return Entry{}, errors.Wrapf(ErrUnknownType, "%q (target %s)", tag, t.target)
	}
	return e, nil
}

// Has reports whether the tag exists
func (t *Table) Has(tag string) bool {
	_, ok := t.entries[tag]
	return ok
}

// Accessor returns the accessor of a tag
func (t *Table) Accessor(tag string) (string, error) {
	e, err := t.Lookup(tag)
	if err != nil {
		return "", err
	}
	return e.Accessor, nil
}

// Wrapper returns the wrapper identifier of a tag
func (t *Table) Wrapper(tag string) (string, error) {
	e, err := t.Lookup(tag)
	if err != nil {
		return "", err
	}
	return e.Wrapper, nil
}

// Props returns the ordered sub-properties of a composite tag
func (t *Table) Props(tag string) ([]Prop, error) {
	e, err := t.Lookup(tag)
	if err != nil {
		return nil, err
	}
	if !e.Composite() {
		return nil, errors.Wrapf(ErrNotComposite, "%q", tag)
	}
	return e.Props, nil
}

// Prop returns one sub-property of a composite tag
func (t *Table) Prop(tag, name string) (Prop, error) {
	props, err := t.Props(tag)
	if err != nil {
		return Prop{}, err
	}
	for _, p := range props {
		if p.Name == name {
			return p, nil
		}
	}
	return Prop{}, errors.Wrapf(ErrUnknownProp, "%q has no property %q", tag, name)
}

// KnownProp reports whether any composite type declares the property, or it is the scalar value field
func (t *Table) KnownProp(name string) bool {
	return t.props[name]
}

// Tags returns the tags in declaration order
func (t *Table) Tags() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Entries returns the entries in declaration order
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, tag := range t.order {
		out = append(out, t.entries[tag])
	}
	return out
}

// PropNames returns every known property name, sorted
func (t *Table) PropNames() []string {
	names := make([]string, 0, len(t.props))
	for name := range t.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
