package directive

import "strings"

const (
	// Sentinel starts every directive
	Sentinel = "DTIG"
	// NamePrefix introduces directive, placeholder and macro names
	NamePrefix = Sentinel + "_"
	// ParamPrefix introduces scoped parameter references
	ParamPrefix = Sentinel + ">"
)

// Block keywords
const (
	kwFor    = "FOR"
	kwEndFor = "END_FOR"
	kwIf     = "IF"
	kwElseIf = "ELSE_IF"
	kwElse   = "ELSE"
	kwEndIf  = "END_IF"
	kwDef    = "DEF"
	kwEndDef = "END_DEF"
)

var keywords = map[string]bool{
	kwFor: true, kwEndFor: true,
	kwIf: true, kwElseIf: true, kwElse: true, kwEndIf: true,
	kwDef: true, kwEndDef: true,
}

// Builtin functions
const (
	BuiltinStr            = "STR"
	BuiltinToType         = "TO_TYPE"
	BuiltinTypeToFunction = "TYPE_TO_FUNCTION"
	BuiltinToProtoMessage = "TO_PROTO_MESSAGE"
)

var builtins = map[string]bool{
	BuiltinStr:            true,
	BuiltinToType:         true,
	BuiltinTypeToFunction: true,
	BuiltinToProtoMessage: true,
}

// legacy functional operators, only valid inside expressions
var legacyOps = map[string]Op{
	"NOT": OpNot,
	"EQ":  OpEq,
	"AND": OpAnd,
	"OR":  OpOr,
}

// Placeholder names
const (
	PhIndex           = "INDEX"
	PhItemName        = "ITEM_NAME"
	PhItemType        = "ITEM_TYPE"
	PhItemNamespace   = "ITEM_NAMESPACE"
	PhItemID          = "ITEM_ID"
	PhItemUnit        = "ITEM_UNIT"
	PhItemDescription = "ITEM_DESCRIPTION"
	PhItemDefault     = "ITEM_DEFAULT"
	PhItemModifier    = "ITEM_MODIFIER"
	PhItemIndex       = "ITEM_INDEX"
	PhItemProps       = "ITEM_PROPS"
	PhPropName        = "PROP_NAME"
	PhPropType        = "PROP_TYPE"
	PhPropIndex       = "PROP_INDEX"
	PhElement         = "ELEMENT"
	PhParameters      = "PARAMETERS"
	PhInputs          = "INPUTS"
	PhOutputs         = "OUTPUTS"
	PhName            = "NAME"
	PhVersion         = "VERSION"
	PhDescription     = "DESCRIPTION"
	PhFormalism       = "FORMALISM"
	PhStepSize        = "STEP_SIZE"
	PhStopTime        = "STOP_TIME"
	PhLookahead       = "LOOKAHEAD"
	PhAuthors         = "AUTHORS"
	PhModelPath       = "MODEL_PATH"
	PhDir             = "DIR"
	PhTarget          = "TARGET"
	PhTrue            = "TRUE"
	PhFalse           = "FALSE"
	PhNone            = "NONE"

	// Suffixes of the collection placeholders
	SuffixLength = "_LENGTH"
	SuffixNames  = "_NAMES"

	// Prefixes of the parameterized placeholders
	PrefixTypeProp  = "TYPE_PROP_"
	PrefixType      = "TYPE_"
	PrefixFormalism = "FORMALISM_"
	PrefixItemProp  = "ITEM_PROP_"
)

var placeholders = func() map[string]bool {
	m := make(map[string]bool)
	for _, name := range []string{
		PhIndex, PhItemName, PhItemType, PhItemNamespace, PhItemID, PhItemUnit,
		PhItemDescription, PhItemDefault, PhItemModifier, PhItemIndex, PhItemProps,
		PhPropName, PhPropType, PhPropIndex, PhElement,
		PhName, PhVersion, PhDescription, PhFormalism, PhStepSize, PhStopTime,
		PhLookahead, PhAuthors, PhModelPath, PhDir, PhTarget,
		PhTrue, PhFalse, PhNone,
	} {
		m[name] = true
	}
	for _, c := range []string{PhParameters, PhInputs, PhOutputs} {
		m[c] = true
		m[c+SuffixLength] = true
		m[c+SuffixNames] = true
	}
	return m
}()

var placeholderPrefixes = []string{PrefixTypeProp, PrefixType, PrefixFormalism, PrefixItemProp}

// IsPlaceholder reports whether name belongs to the placeholder vocabulary
func IsPlaceholder(name string) bool {
	if placeholders[name] {
		return true
	}
	for _, prefix := range placeholderPrefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return true
		}
	}
	return false
}

// IsReserved reports whether name cannot be used as a macro name
func IsReserved(name string) bool {
	if keywords[name] || builtins[name] || IsPlaceholder(name) {
		return true
	}
	_, legacy := legacyOps[name]
	return legacy
}
