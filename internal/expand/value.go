package expand

import (
	"strconv"
	"strings"

	"github.com/dtig-project/dtig/internal/schema"
	"github.com/dtig-project/dtig/internal/types"
)

// kind tags the dynamic type of a Value
type kind int

const (
	kindNull kind = iota
	kindString
	kindInt
	kindBool
	kindList
	kindItem
	kindProp
)

func (k kind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindString:
		return "string"
	case kindInt:
		return "integer"
	case kindBool:
		return "boolean"
	case kindList:
		return "collection"
	case kindItem:
		return "item"
	case kindProp:
		return "property"
	}
	return "unknown"
}

// Value is the result of evaluating an expression or placeholder
type Value struct {
	kind kind
	str  string
	num  int
	flag bool
	list []Value
	item schema.Item
	prop types.Prop
}

var null = Value{}

func stringValue(s string) Value { return Value{kind: kindString, str: s} }
func intValue(n int) Value       { return Value{kind: kindInt, num: n} }
func boolValue(b bool) Value     { return Value{kind: kindBool, flag: b} }
func listValue(l []Value) Value  { return Value{kind: kindList, list: l} }
func itemValue(i schema.Item) Value {
	return Value{kind: kindItem, item: i}
}
func propValue(p types.Prop) Value {
	return Value{kind: kindProp, prop: p}
}

// optional maps an empty attribute to null
func optional(s string) Value {
	if s == "" {
		return null
	}
	return stringValue(s)
}

func (v Value) isNull() bool { return v.kind == kindNull }

// truthy: non-empty strings and collections, nonzero integers, true, items and properties
func (v Value) truthy() bool {
	switch v.kind {
	case kindString:
		return v.str != ""
	case kindInt:
		return v.num != 0
	case kindBool:
		return v.flag
	case kindList:
		return len(v.list) > 0
	case kindItem, kindProp:
		return true
	}
	return false
}

// text renders a non-null value; ok is false for null
func (v Value) text(style types.QuoteStyle) (string, bool) {
	switch v.kind {
	case kindString:
		return v.str, true
	case kindInt:
		return strconv.Itoa(v.num), true
	case kindBool:
		if style == types.QuotePython {
			if v.flag {
				return "True", true
			}
			return "False", true
		}
		return strconv.FormatBool(v.flag), true
	case kindList:
		parts := make([]string, 0, len(v.list))
		for _, e := range v.list {
			s, ok := e.text(style)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), true
	case kindItem:
		return v.item.Name, true
	case kindProp:
		return v.prop.Name, true
	}
	return "", false
}

// number coerces integers, booleans and integer strings
func (v Value) number() (int, bool) {
	switch v.kind {
	case kindInt:
		return v.num, true
	case kindBool:
		if v.flag {
			return 1, true
		}
		return 0, true
	case kindString:
		n, err := strconv.Atoi(strings.TrimSpace(v.str))
		return n, err == nil
	}
	return 0, false
}

// equal compares numerically when both sides are numbers, otherwise by rendered text
func (v Value) equal(o Value) bool {
	if v.isNull() || o.isNull() {
		return v.isNull() && o.isNull()
	}
	if a, ok := v.number(); ok {
		if b, ok := o.number(); ok {
			return a == b
		}
	}
	if v.kind == kindList || o.kind == kindList {
		if v.kind != o.kind || len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	a, _ := v.text(types.QuoteC)
	b, _ := o.text(types.QuoteC)
	return a == b
}

// identical is the strict comparison of IS: same kind and equal
func (v Value) identical(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	return v.equal(o)
}

// tag returns the type tag a value designates for type queries
func (v Value) tag() (string, bool) {
	switch v.kind {
	case kindItem:
		return v.item.Type, true
	case kindProp:
		return v.prop.Type, true
	case kindString:
		return strings.ToLower(v.str), true
	}
	return "", false
}
