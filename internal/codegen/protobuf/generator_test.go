package protobuf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtig-project/dtig/internal/types"
)

// Test plan:
// - header, package and go_package option
// - scalar wrappers carry one value field
// - composite wrappers number fields by property index
// - messages shared by several tags are emitted once
// - invalid tables are rejected

func TestGenerator_Header(t *testing.T) {
	out, err := NewGenerator("example.com/sim/dtigpb").Generate(types.CPP())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "// Code generated by dtig. DO NOT EDIT.\n// Wrapper messages of the cpp type table.\n\n"))
	assert.Contains(t, out, "syntax = \"proto3\";\n\npackage dtig;\n\noption go_package = \"example.com/sim/dtigpb\";\n")

	out, err = NewGenerator("").Generate(types.Python())
	require.NoError(t, err)
	assert.NotContains(t, out, "go_package")
	assert.Contains(t, out, "python type table")
}

func TestGenerator_Messages(t *testing.T) {
	out, err := NewGenerator("").Generate(types.CPP())
	require.NoError(t, err)

	assert.Contains(t, out, "// Types: float32\nmessage MF32 {\n  float value = 1;\n}\n")
	assert.Contains(t, out, "message MU8 {\n  uint32 value = 1;\n}\n")

	wantForce := "// Types: force\nmessage MForce {\n" +
		"  MF64 magnitude = 1;\n" +
		"  MString object = 2;\n" +
		"  MString reference = 3;\n" +
		"  MString direction = 4;\n" +
		"}\n"
	assert.Contains(t, out, wantForce)
	assert.Contains(t, out, "  MF64 youngs_modulus = 3;\n")
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.NotContains(t, out, "\n\n\n")
}

func TestGenerator_SharedMessage(t *testing.T) {
	table, err := types.NewTable("tiny", types.QuoteGo, []types.Entry{
		{Tag: "meters", Accessor: "float64", Wrapper: "Meters", Message: "tiny.Scalar", Scalar: "double"},
		{Tag: "seconds", Accessor: "float64", Wrapper: "Seconds", Message: "tiny.Scalar", Scalar: "double"},
		{Tag: "span", Accessor: "Span", Wrapper: "SpanMsg", Message: "tiny.Span", Props: []types.Prop{
			{Name: "start_at", Type: "seconds"},
			{Name: "length", Type: "meters"},
		}},
	})
	require.NoError(t, err)

	out, err := NewGenerator("").Generate(table)
	require.NoError(t, err)

	want := `// Code generated by dtig. DO NOT EDIT.
// Wrapper messages of the tiny type table.

syntax = "proto3";

package tiny;

// Types: meters, seconds
message Scalar {
  double value = 1;
}

// Types: span
message Span {
  Scalar start_at = 1;
  Scalar length = 2;
}
`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("generated proto mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_InvalidTable(t *testing.T) {
	table, err := types.NewTable("bad", types.QuoteC, []types.Entry{
		{Tag: "a", Accessor: "A", Wrapper: "A", Message: "one.A", Scalar: "double"},
		{Tag: "b", Accessor: "B", Wrapper: "B", Message: "two.B", Scalar: "double"},
	})
	require.NoError(t, err)

	_, err = NewGenerator("").Generate(table)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidTable)
}
