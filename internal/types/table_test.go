package types

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan:
// - builtin tables resolve scalar and composite tags
// - lookups are pure: repeated calls return identical results
// - composite sub-properties keep declaration order and carry their index
// - unknown tags, props on scalars and unknown props are distinct errors
// - NewTable rejects malformed entries

func TestCPP_Scalars(t *testing.T) {
	table := CPP()

	tests := []struct {
		tag      string
		accessor string
		wrapper  string
	}{
		{"float32", "float", "dtig::MF32"},
		{"float64", "double", "dtig::MF64"},
		{"int8", "int8_t", "dtig::MI8"},
		{"uint64", "uint64_t", "dtig::MU64"},
		{"string", "std::string", "dtig::MString"},
		{"bool", "bool", "dtig::MBool"},
		{"bytes", "std::string", "dtig::MBytes"},
		{"value", "double", "dtig::MValue"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			accessor, err := table.Accessor(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.accessor, accessor)

			wrapper, err := table.Wrapper(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.wrapper, wrapper)
		})
	}
}

func TestPython_Scalars(t *testing.T) {
	table := Python()

	accessor, err := table.Accessor("float64")
	require.NoError(t, err)
	assert.Equal(t, "float", accessor)

	wrapper, err := table.Wrapper("float64")
	require.NoError(t, err)
	assert.Equal(t, "dtig_utils.MF64()", wrapper)

	wrapper, err = table.Wrapper("force")
	require.NoError(t, err)
	assert.Equal(t, "dtig_utils.MForce()", wrapper)
	assert.Equal(t, QuotePython, table.QuoteStyle())
}

func TestTable_Props(t *testing.T) {
	table := CPP()

	props, err := table.Props("force")
	require.NoError(t, err)
	require.Len(t, props, 4)

	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
		assert.Equal(t, i, p.Index)
	}
	assert.Equal(t, []string{"magnitude", "object", "reference", "direction"}, names)

	p, err := table.Prop("material", "poisson_ratio")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Index)
	assert.Equal(t, "float64", p.Type)
}

func TestTable_LookupIsIdempotent(t *testing.T) {
	// Test: same tag twice yields identical entries
	table := CPP()

	first, err := table.Lookup("fixture")
	require.NoError(t, err)
	second, err := table.Lookup("fixture")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTable_Errors(t *testing.T) {
	table := CPP()

	_, err := table.Lookup("quaternion")
	assert.True(t, errors.Is(err, ErrUnknownType))
	assert.Contains(t, err.Error(), `"quaternion"`)

	_, err = table.Props("float64")
	assert.True(t, errors.Is(err, ErrNotComposite))

	_, err = table.Prop("force", "density")
	assert.True(t, errors.Is(err, ErrUnknownProp))
}

func TestTable_KnownProp(t *testing.T) {
	table := CPP()

	assert.True(t, table.KnownProp("value"))
	assert.True(t, table.KnownProp("magnitude"))
	assert.True(t, table.KnownProp("youngs_modulus"))
	assert.False(t, table.KnownProp("velocity"))
}

func TestNewTable_Validation(t *testing.T) {
	scalar := Entry{Tag: "float64", Accessor: "double", Wrapper: "M", Message: "pkg.MF64", Scalar: "double"}

	tests := []struct {
		name        string
		entries     []Entry
		errContains string
	}{
		{
			name:        "duplicate tag",
			entries:     []Entry{scalar, scalar},
			errContains: "duplicate tag",
		},
		{
			name:        "upper case tag",
			entries:     []Entry{{Tag: "Float", Accessor: "a", Wrapper: "w", Message: "pkg.M", Scalar: "double"}},
			errContains: "invalid tag",
		},
		{
			name:        "invalid message name",
			entries:     []Entry{{Tag: "x", Accessor: "a", Wrapper: "w", Message: "pkg..M", Scalar: "double"}},
			errContains: "invalid message name",
		},
		{
			name:        "missing scalar",
			entries:     []Entry{{Tag: "x", Accessor: "a", Wrapper: "w", Message: "pkg.M"}},
			errContains: "invalid scalar",
		},
		{
			name: "prop of unknown type",
			entries: []Entry{scalar, {Tag: "pair", Accessor: "a", Wrapper: "w", Message: "pkg.MPair",
				Props: []Prop{{Name: "left", Type: "int128"}}}},
			errContains: "unknown type",
		},
		{
			name: "prop of composite type",
			entries: []Entry{
				scalar,
				{Tag: "inner", Accessor: "a", Wrapper: "w", Message: "pkg.MInner", Props: []Prop{{Name: "v", Type: "float64"}}},
				{Tag: "outer", Accessor: "a", Wrapper: "w", Message: "pkg.MOuter", Props: []Prop{{Name: "in", Type: "inner"}}},
			},
			errContains: "composite type",
		},
		{
			name: "duplicate prop",
			entries: []Entry{scalar, {Tag: "pair", Accessor: "a", Wrapper: "w", Message: "pkg.MPair",
				Props: []Prop{{Name: "v", Type: "float64"}, {Name: "v", Type: "float64"}}}},
			errContains: "duplicate property",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable("test", QuoteC, tt.entries)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTable))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name   string
		style  QuoteStyle
		input  string
		output string
	}{
		{"c plain", QuoteC, "mass", `"mass"`},
		{"c escapes", QuoteC, "a\"b\\c\n", `"a\"b\\c\n"`},
		{"c control", QuoteC, "x\x01", `"x\001"`},
		{"python escapes", QuotePython, "it's \"q\"\t", `"it's \"q\"\t"`},
		{"python control", QuotePython, "\x1b", `"\x1b"`},
		{"go", QuoteGo, "héllo\n", `"héllo\n"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable("test", tt.style, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.output, table.Quote(tt.input))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	table, err := r.Get("C++")
	require.NoError(t, err)
	assert.Equal(t, "cpp", table.Target())

	table, err = r.Get("py")
	require.NoError(t, err)
	assert.Equal(t, "python", table.Target())

	_, err = r.Get("fortran")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported target: fortran")

	assert.Equal(t, []string{"c++", "cpp", "py", "python"}, r.Targets())
}
