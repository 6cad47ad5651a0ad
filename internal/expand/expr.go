package expand

import (
	"strconv"
	"strings"

	"github.com/dtig-project/dtig/internal/directive"
)

// eval evaluates an expression in the current scope. It never writes output.
func (r *run) eval(x directive.Expr) (Value, error) {
	switch x := x.(type) {
	case *directive.StringLit:
		return stringValue(x.Value), nil

	case *directive.IntLit:
		return intValue(x.Value), nil

	case *directive.NameRef:
		return r.lookup(x.Name, x.Pos)

	case *directive.ParamRef:
		return r.param(x.Name, x.Pos)

	case *directive.Call:
		return r.evalCall(x)

	case *directive.Concat:
		var b strings.Builder
		for _, part := range x.Parts {
			v, err := r.eval(part)
			if err != nil {
				return null, err
			}
			s, err := r.render(v, part.Position(), describe(part))
			if err != nil {
				return null, err
			}
			b.WriteString(s)
		}
		return stringValue(b.String()), nil

	case *directive.Fragment:
		return r.fragment(x)

	case *directive.Unary:
		return r.evalUnary(x)

	case *directive.Binary:
		return r.evalBinary(x)
	}
	return null, directive.Resolvef(x.Position(), "unsupported expression %T", x)
}

func (r *run) evalCall(x *directive.Call) (Value, error) {
	switch x.Name {
	case directive.BuiltinStr:
		v, err := r.eval(x.Args[0])
		if err != nil {
			return null, err
		}
		s, err := r.render(v, x.Pos, describe(x.Args[0]))
		if err != nil {
			return null, err
		}
		return stringValue(r.ev.table.Quote(s)), nil

	case directive.BuiltinToType, directive.BuiltinTypeToFunction, directive.BuiltinToProtoMessage:
		v, err := r.eval(x.Args[0])
		if err != nil {
			return null, err
		}
		q := directive.QueryAccessor
		if x.Name == directive.BuiltinToProtoMessage {
			q = directive.QueryWrapper
		}
		s, err := r.typeQuery(v, q, x.Pos)
		if err != nil {
			return null, err
		}
		return stringValue(s), nil
	}

	var b strings.Builder
	if err := r.call(x.Name, x.Args, x.Pos, &b); err != nil {
		return null, err
	}
	return stringValue(b.String()), nil
}

// fragment binds a macro argument. A lone placeholder or parameter keeps its
// value so collections and items pass through; anything else is rendered.
func (r *run) fragment(x *directive.Fragment) (Value, error) {
	if len(x.Nodes) == 1 {
		switch n := x.Nodes[0].(type) {
		case *directive.Placeholder:
			return r.lookup(n.Name, n.Pos)
		case *directive.Param:
			return r.param(n.Name, n.Pos)
		case *directive.Text:
			// integers written in canonical form keep their text and act as numbers
			if i, err := strconv.Atoi(n.Value); err == nil && strconv.Itoa(i) == n.Value {
				return intValue(i), nil
			}
			return stringValue(n.Value), nil
		}
	}

	var b strings.Builder
	if err := r.nodes(x.Nodes, &b); err != nil {
		return null, err
	}
	return stringValue(b.String()), nil
}

func (r *run) evalUnary(x *directive.Unary) (Value, error) {
	v, err := r.eval(x.X)
	if err != nil {
		return null, err
	}

	switch x.Op {
	case directive.OpNot:
		return boolValue(!v.truthy()), nil
	case directive.OpHas:
		return boolValue(!v.isNull()), nil
	case directive.OpNeg:
		n, ok := v.number()
		if !ok {
			return null, directive.Resolvef(x.Pos, "cannot negate a %s", v.kind)
		}
		return intValue(-n), nil
	}
	return null, directive.Resolvef(x.Pos, "unsupported operator %s", x.Op)
}

func (r *run) evalBinary(x *directive.Binary) (Value, error) {
	left, err := r.eval(x.Left)
	if err != nil {
		return null, err
	}

	// AND and OR only evaluate the right side when it decides the result
	switch x.Op {
	case directive.OpAnd:
		if !left.truthy() {
			return boolValue(false), nil
		}
		right, err := r.eval(x.Right)
		if err != nil {
			return null, err
		}
		return boolValue(right.truthy()), nil
	case directive.OpOr:
		if left.truthy() {
			return boolValue(true), nil
		}
		right, err := r.eval(x.Right)
		if err != nil {
			return null, err
		}
		return boolValue(right.truthy()), nil
	}

	right, err := r.eval(x.Right)
	if err != nil {
		return null, err
	}

	switch x.Op {
	case directive.OpEq:
		return boolValue(left.equal(right)), nil
	case directive.OpNe:
		return boolValue(!left.equal(right)), nil
	case directive.OpIs:
		return boolValue(left.identical(right)), nil
	case directive.OpIsNot:
		return boolValue(!left.identical(right)), nil
	case directive.OpIn, directive.OpNotIn:
		in, err := r.contains(right, left, x)
		if err != nil {
			return null, err
		}
		return boolValue(in == (x.Op == directive.OpIn)), nil
	case directive.OpLt, directive.OpGt, directive.OpLe, directive.OpGe:
		c, err := r.compare(left, right, x)
		if err != nil {
			return null, err
		}
		switch x.Op {
		case directive.OpLt:
			return boolValue(c < 0), nil
		case directive.OpGt:
			return boolValue(c > 0), nil
		case directive.OpLe:
			return boolValue(c <= 0), nil
		}
		return boolValue(c >= 0), nil
	}

	return r.arith(left, right, x)
}

func (r *run) contains(haystack, needle Value, x *directive.Binary) (bool, error) {
	switch haystack.kind {
	case kindList:
		for _, e := range haystack.list {
			if e.equal(needle) {
				return true, nil
			}
		}
		return false, nil
	case kindString:
		s, ok := needle.text(r.ev.table.QuoteStyle())
		if !ok {
			return false, nil
		}
		return strings.Contains(haystack.str, s), nil
	}
	return false, directive.Resolvef(x.Pos, "right side of %s is a %s, not a collection or string", x.Op, haystack.kind)
}

// compare orders numbers numerically and everything else by text
func (r *run) compare(left, right Value, x *directive.Binary) (int, error) {
	if a, ok := left.number(); ok {
		if b, ok := right.number(); ok {
			switch {
			case a < b:
				return -1, nil
			case a > b:
				return 1, nil
			}
			return 0, nil
		}
	}

	style := r.ev.table.QuoteStyle()
	a, okA := left.text(style)
	b, okB := right.text(style)
	if !okA || !okB || left.kind == kindList || right.kind == kindList {
		return 0, directive.Resolvef(x.Pos, "cannot order a %s and a %s", left.kind, right.kind)
	}
	return strings.Compare(a, b), nil
}

func (r *run) arith(left, right Value, x *directive.Binary) (Value, error) {
	a, okA := left.number()
	b, okB := right.number()

	if !okA || !okB {
		if x.Op == directive.OpAdd {
			style := r.ev.table.QuoteStyle()
			ls, okL := left.text(style)
			rs, okR := right.text(style)
			if okL && okR {
				return stringValue(ls + rs), nil
			}
		}
		return null, directive.Resolvef(x.Pos, "operator %s needs numbers, got a %s and a %s", x.Op, left.kind, right.kind)
	}

	switch x.Op {
	case directive.OpAdd:
		return intValue(a + b), nil
	case directive.OpSub:
		return intValue(a - b), nil
	case directive.OpMul:
		return intValue(a * b), nil
	case directive.OpDiv, directive.OpMod:
		if b == 0 {
			return null, directive.Resolvef(x.Pos, "division by zero")
		}
		if x.Op == directive.OpDiv {
			return intValue(a / b), nil
		}
		return intValue(a % b), nil
	}
	return null, directive.Resolvef(x.Pos, "unsupported operator %s", x.Op)
}
