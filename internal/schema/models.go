package schema

// Collection identifies one of the three ordered item lists of a model
type Collection string

const (
	Parameters Collection = "parameters"
	Inputs     Collection = "inputs"
	Outputs    Collection = "outputs"
)

// Collections lists the collections in the order they appear in a model file
var Collections = []Collection{Parameters, Inputs, Outputs}

// Model is the root of a parsed model description
type Model struct {
	Meta       Metadata `json:"meta"`
	Parameters []Item   `json:"parameters"`
	Inputs     []Item   `json:"inputs"`
	Outputs    []Item   `json:"outputs"`

	// Path is the file the model was loaded from, empty for in-memory models
	Path string `json:"-"`
}

// Metadata represents the model-level attributes of a description
type Metadata struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Formalism   string   `json:"formalism"`
	StepSize    string   `json:"stepSize"`
	StopTime    string   `json:"stopTime"`
	Lookahead   string   `json:"lookahead"`
	Authors     []string `json:"authors"`
}

// Item is one named, typed entry of a collection.
// Items are created by the loader and never modified afterwards.
type Item struct {
	Name        string     `json:"name"`
	Namespace   string     `json:"namespace"`
	Type        string     `json:"type"`
	Index       int        `json:"index"`
	Collection  Collection `json:"collection"`
	ID          string     `json:"id"`
	Unit        string     `json:"unit"`
	Description string     `json:"description"`
	Default     string     `json:"default"`
	Modifier    string     `json:"modifier"`
}

// Items returns the ordered items of the given collection
func (m *Model) Items(c Collection) []Item {
	switch c {
	case Parameters:
		return m.Parameters
	case Inputs:
		return m.Inputs
	case Outputs:
		return m.Outputs
	}
	return nil
}

// Lookup finds an item by name in a collection
func (m *Model) Lookup(c Collection, name string) (Item, bool) {
	for _, item := range m.Items(c) {
		if item.Name == name {
			return item, true
		}
	}
	return Item{}, false
}

// Tags returns every distinct type tag referenced by the model, in first-use order
func (m *Model) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, c := range Collections {
		for _, item := range m.Items(c) {
			if !seen[item.Type] {
				seen[item.Type] = true
				tags = append(tags, item.Type)
			}
		}
	}
	return tags
}
