// Package protobuf renders the wrapper messages of a type table as a .proto file.
package protobuf

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/dtig-project/dtig/internal/codegen/writer"
	"github.com/dtig-project/dtig/internal/types"
)

// Generator renders proto3 source for a type table
type Generator struct {
	goPackage string
}

// NewGenerator creates a generator. A non-empty goPackage is emitted as the go_package option.
func NewGenerator(goPackage string) *Generator {
	return &Generator{goPackage: goPackage}
}

// Generate renders the table's wrapper messages. The output always describes
// the same file as types.Descriptor.
func (g *Generator) Generate(t *types.Table) (string, error) {
	fd, err := types.File(t)
	if err != nil {
		return "", err
	}

	w := writer.New("  ")
	w.Line("// Code generated by dtig. DO NOT EDIT.")
	w.Linef("// Wrapper messages of the %s type table.", t.Target())
	w.Blank()
	w.Linef("syntax = %q;", fd.Syntax().String())
	w.Blank()
	w.Linef("package %s;", fd.Package())
	if g.goPackage != "" {
		w.Blank()
		w.Linef("option go_package = %q;", g.goPackage)
	}

	tags := tagsByMessage(t)
	msgs := fd.Messages()
	for i := 0; i < msgs.Len(); i++ {
		msg := msgs.Get(i)
		w.Blank()
		w.Comment("Types: " + strings.Join(tags[msg.FullName()], ", "))
		w.Block("message "+string(msg.Name()), func() {
			fields := msg.Fields()
			for j := 0; j < fields.Len(); j++ {
				f := fields.Get(j)
				w.Linef("%s %s = %d;", fieldType(fd, f), f.Name(), f.Number())
			}
		})
	}
	return w.String(), nil
}

func tagsByMessage(t *types.Table) map[protoreflect.FullName][]string {
	tags := make(map[protoreflect.FullName][]string)
	for _, e := range t.Entries() {
		name := protoreflect.FullName(e.Message)
		tags[name] = append(tags[name], e.Tag)
	}
	return tags
}

// fieldType names a field's type relative to the file's package
func fieldType(fd protoreflect.FileDescriptor, f protoreflect.FieldDescriptor) string {
	if f.Kind() != protoreflect.MessageKind {
		return f.Kind().String()
	}
	m := f.Message()
	if m.FullName().Parent() == fd.Package() {
		return string(m.Name())
	}
	return string(m.FullName())
}
