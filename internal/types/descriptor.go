package types

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Descriptor describes the wrapper messages of a table as a proto3 file.
// Scalar wrappers carry a single "value" field; composite wrappers carry one
// message field per sub-property, numbered by property index plus one.
func Descriptor(t *Table) (*descriptorpb.FileDescriptorProto, error) {
	pkg, err := messagePackage(t)
	if err != nil {
		return nil, err
	}

	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(strings.ReplaceAll(string(pkg), ".", "/") + "/types.proto"),
		Package: proto.String(string(pkg)),
		Syntax:  proto.String("proto3"),
	}

	emitted := make(map[string]Entry)
	for _, e := range t.Entries() {
		if prev, ok := emitted[e.Message]; ok {
			if !sameShape(prev, e) {
				return nil, errors.Wrapf(ErrInvalidTable, "types %q and %q share message %s with different fields", prev.Tag, e.Tag, e.Message)
			}
			continue
		}
		emitted[e.Message] = e

		msg, err := messageDescriptor(t, e)
		if err != nil {
			return nil, err
		}
		fd.MessageType = append(fd.MessageType, msg)
	}

	if _, err := protodesc.NewFile(fd, new(protoregistry.Files)); err != nil {
		return nil, errors.Wrapf(ErrInvalidTable, "descriptor: %v", err)
	}
	return fd, nil
}

// File returns the validated descriptor of a table's wrapper messages
func File(t *Table) (protoreflect.FileDescriptor, error) {
	fd, err := Descriptor(t)
	if err != nil {
		return nil, err
	}
	return protodesc.NewFile(fd, new(protoregistry.Files))
}

func messagePackage(t *Table) (protoreflect.FullName, error) {
	var pkg protoreflect.FullName
	for i, e := range t.Entries() {
		parent := protoreflect.FullName(e.Message).Parent()
		if i == 0 {
			pkg = parent
			continue
		}
		if parent != pkg {
			return "", errors.Wrapf(ErrInvalidTable, "message %s is outside package %q", e.Message, pkg)
		}
	}
	return pkg, nil
}

func messageDescriptor(t *Table, e Entry) (*descriptorpb.DescriptorProto, error) {
	msg := &descriptorpb.DescriptorProto{
		Name: proto.String(string(protoreflect.FullName(e.Message).Name())),
	}

	if !e.Composite() {
		kind, ok := descriptorpb.FieldDescriptorProto_Type_value["TYPE_"+strings.ToUpper(e.Scalar)]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidTable, "type %q: invalid scalar %q", e.Tag, e.Scalar)
		}
		msg.Field = []*descriptorpb.FieldDescriptorProto{{
			Name:     proto.String(ValueProp),
			JsonName: proto.String(ValueProp),
			Number:   proto.Int32(1),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     descriptorpb.FieldDescriptorProto_Type(kind).Enum(),
		}}
		return msg, nil
	}

	for _, p := range e.Props {
		pe, err := t.Lookup(p.Type)
		if err != nil {
			return nil, err
		}
		msg.Field = append(msg.Field, &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(p.Name),
			JsonName: proto.String(jsonName(p.Name)),
			Number:   proto.Int32(int32(p.Index + 1)),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
			TypeName: proto.String("." + pe.Message),
		})
	}
	return msg, nil
}

func sameShape(a, b Entry) bool {
	return a.Scalar == b.Scalar && reflect.DeepEqual(a.Props, b.Props)
}

// jsonName converts snake_case to lowerCamelCase the way protoc does
func jsonName(name string) string {
	var b strings.Builder
	upper := false
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = false
		b.WriteRune(r)
	}
	return b.String()
}
