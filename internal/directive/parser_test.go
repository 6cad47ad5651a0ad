package directive

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan:
// - text without directives is a single Text node
// - escapes and non-directive sentinels stay literal
// - standalone block markers are removed with their line
// - names stop at embedded sentinels
// - blocks nest and conditional chains are validated
// - macro definitions and calls, including the undefined-call errors
// - every error is a located parse error

func parse(t *testing.T, src string) *Template {
	t.Helper()
	tpl, err := Parse("test.dtig", src)
	require.NoError(t, err)
	return tpl
}

func TestParse_PlainText(t *testing.T) {
	src := "int main() {\n\treturn 0;\n}\n"
	tpl := parse(t, src)

	require.Len(t, tpl.Nodes, 1)
	assert.Equal(t, src, tpl.Nodes[0].(*Text).Value)
	assert.Empty(t, tpl.Macros)
}

func TestParse_Empty(t *testing.T) {
	tpl := parse(t, "")
	assert.Empty(t, tpl.Nodes)
}

func TestParse_EscapesAndLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"name escape", "x DTIG__FOR y", "x DTIG_FOR y"},
		{"param escape", "DTIG>>x", "DTIG>x"},
		{"bare sentinel", "DTIGER", "DTIGER"},
		{"lower case after prefix", "DTIG_lower", "DTIG_lower"},
		{"empty param", "DTIG> x", "DTIG> x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := parse(t, tt.src)
			require.Len(t, tpl.Nodes, 1)
			assert.Equal(t, tt.want, tpl.Nodes[0].(*Text).Value)
		})
	}
}

func TestParse_EmbeddedSentinels(t *testing.T) {
	// Test: mDTIG>PREFIXDTIG_ITEM_NAME splits into text, param, placeholder
	tpl := parse(t, "mDTIG>PREFIXDTIG_ITEM_NAME_value")

	require.Len(t, tpl.Nodes, 4)
	assert.Equal(t, "m", tpl.Nodes[0].(*Text).Value)
	assert.Equal(t, "PREFIX", tpl.Nodes[1].(*Param).Name)
	assert.Equal(t, "ITEM_NAME", tpl.Nodes[2].(*Placeholder).Name)
	assert.Equal(t, "_value", tpl.Nodes[3].(*Text).Value)
}

func TestParse_PlaceholderFollowedByParen(t *testing.T) {
	// Test: placeholders never take arguments, the paren stays literal
	tpl := parse(t, "mutable_DTIG>TYPE()")
	require.Len(t, tpl.Nodes, 3)
	assert.Equal(t, "TYPE", tpl.Nodes[1].(*Param).Name)
	assert.Equal(t, "()", tpl.Nodes[2].(*Text).Value)

	tpl = parse(t, "f(DTIG_ITEM_NAME)")
	require.Len(t, tpl.Nodes, 3)
	assert.Equal(t, ")", tpl.Nodes[2].(*Text).Value)
}

func TestParse_StandaloneMarkers(t *testing.T) {
	src := "begin\n  DTIG_FOR(DTIG_INPUTS)\n    x;\n  DTIG_END_FOR\nend\n"
	tpl := parse(t, src)

	require.Len(t, tpl.Nodes, 3)
	assert.Equal(t, "begin\n", tpl.Nodes[0].(*Text).Value)

	loop := tpl.Nodes[1].(*For)
	require.Len(t, loop.Body, 1)
	assert.Equal(t, "    x;\n", loop.Body[0].(*Text).Value)
	assert.Equal(t, "INPUTS", loop.Source.(*NameRef).Name)

	assert.Equal(t, "end\n", tpl.Nodes[2].(*Text).Value)
}

func TestParse_InlineMarkersKeepWhitespace(t *testing.T) {
	tpl := parse(t, "a DTIG_IF(DTIG_TRUE) b DTIG_END_IF c\n")

	require.Len(t, tpl.Nodes, 3)
	assert.Equal(t, "a ", tpl.Nodes[0].(*Text).Value)
	cond := tpl.Nodes[1].(*If)
	assert.Equal(t, " b ", cond.Branches[0].Body[0].(*Text).Value)
	assert.Equal(t, " c\n", tpl.Nodes[2].(*Text).Value)
}

func TestParse_StandaloneWithCRLF(t *testing.T) {
	tpl := parse(t, "DTIG_IF(DTIG_TRUE)\r\nx\r\nDTIG_END_IF\r\n")
	require.Len(t, tpl.Nodes, 1)
	assert.Equal(t, "x\r\n", tpl.Nodes[0].(*If).Branches[0].Body[0].(*Text).Value)
}

func TestParse_ConditionalChain(t *testing.T) {
	src := `DTIG_IF(DTIG_INDEX == 0)
first
DTIG_ELSE_IF(DTIG_INDEX == 1)
second
DTIG_ELSE
rest
DTIG_END_IF
`
	tpl := parse(t, src)
	require.Len(t, tpl.Nodes, 1)

	cond := tpl.Nodes[0].(*If)
	require.Len(t, cond.Branches, 2)
	assert.True(t, cond.HasElse)
	assert.Equal(t, "first\n", cond.Branches[0].Body[0].(*Text).Value)
	assert.Equal(t, "second\n", cond.Branches[1].Body[0].(*Text).Value)
	assert.Equal(t, "rest\n", cond.Else[0].(*Text).Value)
	assert.Equal(t, 3, cond.Branches[1].Pos.Line)

	eq := cond.Branches[1].Cond.(*Binary)
	assert.Equal(t, OpEq, eq.Op)
	assert.Equal(t, 1, eq.Right.(*IntLit).Value)
}

func TestParse_NestedBlocks(t *testing.T) {
	src := `DTIG_FOR(DTIG_INPUTS)
DTIG_IF(DTIG_ITEM_TYPE == DTIG_TYPE_FORCE)
DTIG_FOR(DTIG_ITEM_PROPS)
read(DTIG_STR(DTIG_PROP_NAME));
DTIG_END_FOR
DTIG_END_IF
DTIG_END_FOR
`
	tpl := parse(t, src)
	outer := tpl.Nodes[0].(*For)
	cond := outer.Body[0].(*If)
	inner := cond.Branches[0].Body[0].(*For)
	require.Len(t, inner.Body, 3)
	str := inner.Body[1].(*StringLiteral)
	assert.Equal(t, "PROP_NAME", str.Expr.(*NameRef).Name)
}

func TestParse_Macros(t *testing.T) {
	src := `DTIG_DEF DTIG_GREET(x)
hello, DTIG>x
DTIG_END_DEF
DTIG_GREET("world")
DTIG_GREET(world)
`
	tpl := parse(t, src)
	assert.Equal(t, []string{"GREET"}, tpl.Macros)

	def := tpl.Nodes[0].(*MacroDef)
	assert.Equal(t, "GREET", def.Name)
	assert.Equal(t, []string{"x"}, def.Params)
	require.Len(t, def.Body, 2)
	assert.Equal(t, "hello, ", def.Body[0].(*Text).Value)
	assert.Equal(t, "x", def.Body[1].(*Param).Name)

	// standalone calls own their line ending
	require.Len(t, tpl.Nodes, 3)
	call := tpl.Nodes[1].(*MacroCall)
	require.Len(t, call.Args, 1)
	assert.Equal(t, `"world"`, fragmentText(t, call.Args[0]))
	assert.Equal(t, "\n", call.LineEnd)

	bare := tpl.Nodes[2].(*MacroCall)
	assert.Equal(t, "world", fragmentText(t, bare.Args[0]))
}

func TestParse_DefHeaderSpacing(t *testing.T) {
	src := "DTIG_DEF DTIG_READ_FROM_DATA (TYPE, PREFIX)\nDTIG>PREFIX\nDTIG_END_DEF\nDTIG_READ_FROM_DATA(double, m_)\n"
	tpl := parse(t, src)

	def := tpl.Nodes[0].(*MacroDef)
	assert.Equal(t, "READ_FROM_DATA", def.Name)
	assert.Equal(t, []string{"TYPE", "PREFIX"}, def.Params)
	assert.Len(t, tpl.Nodes[1].(*MacroCall).Args, 2)
}

// fragmentText returns the text of an argument made of one Text node
func fragmentText(t *testing.T, x Expr) string {
	t.Helper()
	frag, ok := x.(*Fragment)
	require.True(t, ok, "argument is a %T", x)
	require.Len(t, frag.Nodes, 1)
	return frag.Nodes[0].(*Text).Value
}

func TestParse_MacroArguments(t *testing.T) {
	def := "DTIG_DEF DTIG_M(A)\nDTIG_END_DEF\n"

	tests := []struct {
		name string
		call string
		want []string
	}{
		{"reference type", "DTIG_M(const double&)", []string{"const double&"}},
		{"template type", "DTIG_M(std::vector<double>)", []string{"std::vector<double>"}},
		{"words", "DTIG_M(hello world)", []string{"hello world"}},
		{"nested call", "DTIG_M(ret.values()[0])", []string{"ret.values()[0]"}},
		{"hyphen", "DTIG_M(my-name)", []string{"my-name"}},
		{"commas inside parens", "DTIG_M(f(a, b), c)", []string{"f(a, b)", "c"}},
		{"commas inside brackets", "DTIG_M({1, 2}, [3, 4])", []string{"{1, 2}", "[3, 4]"}},
		{"commas inside strings", `DTIG_M("a, b)", c)`, []string{`"a, b)"`, "c"}},
		{"trimmed", "DTIG_M(  a ,\n  b  )", []string{"a", "b"}},
		{"empty argument", "DTIG_M(a, )", []string{"a", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := parse(t, def+tt.call)
			call := tpl.Nodes[1].(*MacroCall)
			require.Len(t, call.Args, len(tt.want))

			for i, want := range tt.want {
				frag := call.Args[i].(*Fragment)
				if want == "" {
					assert.Empty(t, frag.Nodes)
					continue
				}
				assert.Equal(t, want, fragmentText(t, frag))
			}
		})
	}
}

func TestParse_MacroArgumentDirectives(t *testing.T) {
	src := "DTIG_DEF DTIG_M(A, B, C)\nDTIG_END_DEF\nDTIG_M(DTIG_TYPE_PROP_VALUE, pre_DTIG_ITEM_NAME, DTIG_STR(DTIG>X))DTIG_M()DTIG_M( )"
	tpl := parse(t, src)

	call := tpl.Nodes[1].(*MacroCall)
	require.Len(t, call.Args, 3)
	assert.Empty(t, call.LineEnd)

	first := call.Args[0].(*Fragment)
	require.Len(t, first.Nodes, 1)
	assert.Equal(t, "TYPE_PROP_VALUE", first.Nodes[0].(*Placeholder).Name)

	second := call.Args[1].(*Fragment)
	require.Len(t, second.Nodes, 2)
	assert.Equal(t, "pre_", second.Nodes[0].(*Text).Value)
	assert.Equal(t, "ITEM_NAME", second.Nodes[1].(*Placeholder).Name)
	assert.Equal(t, Pos{File: "test.dtig", Line: 3, Column: 30}, second.Pos)

	third := call.Args[2].(*Fragment)
	require.Len(t, third.Nodes, 1)
	assert.Equal(t, "X", third.Nodes[0].(*StringLiteral).Expr.(*ParamRef).Name)

	assert.Empty(t, tpl.Nodes[2].(*MacroCall).Args)
	assert.Empty(t, tpl.Nodes[3].(*MacroCall).Args)
}

func TestParse_MacroCallInCondition(t *testing.T) {
	tpl := parse(t, "DTIG_DEF DTIG_M(A)\nDTIG>A\nDTIG_END_DEF\nDTIG_IF(DTIG_M(a b) == x)\nDTIG_END_IF\n")
	cond := tpl.Nodes[1].(*If).Branches[0].Cond.(*Binary)
	call := cond.Left.(*Call)
	assert.Equal(t, "M", call.Name)
	assert.Equal(t, "a b", fragmentText(t, call.Args[0]))
}

func TestParse_RecursiveMacroIsSyntacticallyValid(t *testing.T) {
	tpl := parse(t, "DTIG_DEF DTIG_LOOP(n)\nDTIG_LOOP(DTIG>n)\nDTIG_END_DEF\n")
	def := tpl.Nodes[0].(*MacroDef)
	assert.Equal(t, "LOOP", def.Body[0].(*MacroCall).Name)
}

func TestParse_Builtins(t *testing.T) {
	tpl := parse(t, "DTIG_TO_TYPE(DTIG_ITEM_TYPE) DTIG_TYPE_TO_FUNCTION(x) DTIG_TO_PROTO_MESSAGE(DTIG>T)")

	q1 := tpl.Nodes[0].(*TypeQuery)
	assert.Equal(t, QueryAccessor, q1.Query)
	q2 := tpl.Nodes[2].(*TypeQuery)
	assert.Equal(t, QueryAccessor, q2.Query)
	q3 := tpl.Nodes[4].(*TypeQuery)
	assert.Equal(t, QueryWrapper, q3.Query)
	assert.Equal(t, "T", q3.Expr.(*ParamRef).Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		line        int
		errContains string
	}{
		{"unclosed for", "a\nDTIG_FOR(DTIG_INPUTS)\nx\n", 2, "without matching DTIG_END_FOR"},
		{"unclosed if", "DTIG_IF(DTIG_TRUE)\n", 1, "without matching DTIG_END_IF"},
		{"stray end for", "x\n\nDTIG_END_FOR\n", 3, "DTIG_END_FOR without matching opening marker"},
		{"stray else", "DTIG_ELSE\n", 1, "DTIG_ELSE without matching opening marker"},
		{"second else", "DTIG_IF(1)\nDTIG_ELSE\nDTIG_ELSE\nDTIG_END_IF\n", 3, "second DTIG_ELSE"},
		{"else if after else", "DTIG_IF(1)\nDTIG_ELSE\nDTIG_ELSE_IF(0)\nDTIG_END_IF\n", 3, "DTIG_ELSE_IF after DTIG_ELSE"},
		{"mismatched close", "DTIG_FOR(DTIG_INPUTS)\nDTIG_END_IF\n", 2, "unexpected DTIG_END_IF inside DTIG_FOR"},
		{"forward reference", "DTIG_LATER(1)\nDTIG_DEF DTIG_LATER(x)\nDTIG_END_DEF\n", 1, "call to undefined macro DTIG_LATER"},
		{"undefined macro in expression", "DTIG_IF(DTIG_F(1))\nDTIG_END_IF\n", 1, "call to undefined macro DTIG_F"},
		{"for without expression", "DTIG_FOR\n", 1, "requires a parenthesized expression"},
		{"missing close paren", "DTIG_IF(DTIG_TRUE\nx\n", 2, "expected ')'"},
		{"empty condition", "DTIG_IF()\nDTIG_END_IF", 1, "unexpected ')'"},
		{"unterminated string", "DTIG_STR(\"abc)", 1, "unterminated string"},
		{"reserved macro name", "DTIG_DEF DTIG_ITEM_NAME(x)\nDTIG_END_DEF\n", 1, "reserved"},
		{"duplicate macro parameter", "DTIG_DEF DTIG_M(a, a)\nDTIG_END_DEF\n", 1, "duplicate parameter"},
		{"macro without parens", "DTIG_DEF DTIG_M(a)\nDTIG_END_DEF\nDTIG_M\n", 3, "called without an argument list"},
		{"str without argument", "DTIG_STR x", 1, "requires an argument"},
		{"bad character", "DTIG_IF(a = b)\nDTIG_END_IF", 1, "unexpected character"},
		{"legacy arity", "DTIG_IF(DTIG_EQ(1))\nDTIG_END_IF", 1, "takes 2 arguments"},
		{"unterminated macro arguments", "DTIG_DEF DTIG_M(a)\nDTIG_END_DEF\nDTIG_M(f(x)\n", 3, "unterminated argument list of macro DTIG_M"},
		{"unterminated string argument", "DTIG_DEF DTIG_M(a)\nDTIG_END_DEF\nDTIG_M(\"x)\n", 3, "unterminated string in arguments"},
		{"block in macro argument", "DTIG_DEF DTIG_M(a)\nDTIG_END_DEF\nDTIG_M(DTIG_END_IF)\n", 3, "DTIG_END_IF inside an argument of macro DTIG_M"},
		{"def header without parameters", "DTIG_DEF DTIG_M x\nDTIG_END_DEF\n", 1, "requires a parameter list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.dtig", tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))
			assert.False(t, errors.Is(err, ErrResolve))
			assert.Contains(t, err.Error(), tt.errContains)

			var derr *Error
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, KindParse, derr.Kind)
			assert.Equal(t, "bad.dtig", derr.Pos.File)
			assert.Equal(t, tt.line, derr.Pos.Line)
		})
	}
}
