package types

// scalar describes one primitive tag independently of the target language
type scalar struct {
	tag     string
	proto   string
	cpp     string
	python  string
	message string
}

var scalars = []scalar{
	{tag: "float32", proto: "float", cpp: "float", python: "float", message: "MF32"},
	{tag: "float64", proto: "double", cpp: "double", python: "float", message: "MF64"},
	{tag: "int8", proto: "int32", cpp: "int8_t", python: "int", message: "MI8"},
	{tag: "int16", proto: "int32", cpp: "int16_t", python: "int", message: "MI16"},
	{tag: "int32", proto: "int32", cpp: "int32_t", python: "int", message: "MI32"},
	{tag: "int64", proto: "int64", cpp: "int64_t", python: "int", message: "MI64"},
	{tag: "uint8", proto: "uint32", cpp: "uint8_t", python: "int", message: "MU8"},
	{tag: "uint16", proto: "uint32", cpp: "uint16_t", python: "int", message: "MU16"},
	{tag: "uint32", proto: "uint32", cpp: "uint32_t", python: "int", message: "MU32"},
	{tag: "uint64", proto: "uint64", cpp: "uint64_t", python: "int", message: "MU64"},
	{tag: "bool", proto: "bool", cpp: "bool", python: "bool", message: "MBool"},
	{tag: "string", proto: "string", cpp: "std::string", python: "str", message: "MString"},
	{tag: "bytes", proto: "bytes", cpp: "std::string", python: "bytes", message: "MBytes"},
	{tag: "value", proto: "double", cpp: "double", python: "float", message: "MValue"},
}

// composite describes one structured tag; props are ordered as on the wire
type composite struct {
	tag     string
	message string
	props   []Prop
}

var composites = []composite{
	{tag: "force", message: "MForce", props: []Prop{
		{Name: "magnitude", Type: "float64"},
		{Name: "object", Type: "string"},
		{Name: "reference", Type: "string"},
		{Name: "direction", Type: "string"},
	}},
	{tag: "fixture", message: "MFixture", props: []Prop{
		{Name: "magnitude", Type: "float64"},
		{Name: "object", Type: "string"},
		{Name: "reference", Type: "string"},
		{Name: "direction", Type: "string"},
	}},
	{tag: "material", message: "MMaterial", props: []Prop{
		{Name: "state", Type: "float64"},
		{Name: "name", Type: "string"},
		{Name: "youngs_modulus", Type: "float64"},
		{Name: "poisson_ratio", Type: "float64"},
		{Name: "density", Type: "float64"},
	}},
}

// MessagePackage is the protobuf package of the builtin wrapper messages
const MessagePackage = "dtig"

// CPP returns the builtin table of the C++ target
func CPP() *Table {
	return mustBuiltin("cpp", QuoteC, func(s scalar) (string, string) {
		return s.cpp, "dtig::" + s.message
	}, "std::string", "dtig::")
}

// Python returns the builtin table of the Python target
func Python() *Table {
	return mustBuiltin("python", QuotePython, func(s scalar) (string, string) {
		return s.python, "dtig_utils." + s.message + "()"
	}, "bytes", "dtig_utils.")
}

func mustBuiltin(target string, quote QuoteStyle, scalarNames func(scalar) (string, string), compositeAccessor, wrapperPrefix string) *Table {
	entries := make([]Entry, 0, len(scalars)+len(composites))
	for _, s := range scalars {
		accessor, wrapper := scalarNames(s)
		entries = append(entries, Entry{
			Tag:      s.tag,
			Accessor: accessor,
			Wrapper:  wrapper,
			Message:  MessagePackage + "." + s.message,
			Scalar:   s.proto,
		})
	}
	for _, c := range composites {
		wrapper := wrapperPrefix + c.message
		if quote == QuotePython {
			wrapper += "()"
		}
		entries = append(entries, Entry{
			Tag:      c.tag,
			Accessor: compositeAccessor,
			Wrapper:  wrapper,
			Message:  MessagePackage + "." + c.message,
			Props:    c.props,
		})
	}

	t, err := NewTable(target, quote, entries)
	if err != nil {
		panic(err)
	}
	return t
}
