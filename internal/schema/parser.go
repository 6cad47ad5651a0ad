package schema

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrSchema is the cause of every error reported while loading or validating a model
var ErrSchema = errors.New("schema error")

// Format is the encoding of a model description file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath guesses the model format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.Wrapf(ErrSchema, "unsupported model file extension %q", filepath.Ext(path))
}

// rawModel mirrors the on-disk model description
type rawModel struct {
	Name        string    `json:"name" yaml:"name" toml:"name"`
	Version     string    `json:"version" yaml:"version" toml:"version"`
	Description string    `json:"description" yaml:"description" toml:"description"`
	Formalism   string    `json:"formalism" yaml:"formalism" toml:"formalism"`
	StepSize    any       `json:"step_size" yaml:"step_size" toml:"step_size"`
	StopTime    any       `json:"stop_time" yaml:"stop_time" toml:"stop_time"`
	Lookahead   any       `json:"lookahead" yaml:"lookahead" toml:"lookahead"`
	Authors     []string  `json:"authors" yaml:"authors" toml:"authors"`
	Parameters  []rawItem `json:"parameters" yaml:"parameters" toml:"parameters"`
	Inputs      []rawItem `json:"inputs" yaml:"inputs" toml:"inputs"`
	Outputs     []rawItem `json:"outputs" yaml:"outputs" toml:"outputs"`
}

type rawItem struct {
	ID          any    `json:"id" yaml:"id" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Type        string `json:"type" yaml:"type" toml:"type"`
	Namespace   string `json:"namespace" yaml:"namespace" toml:"namespace"`
	Unit        string `json:"unit" yaml:"unit" toml:"unit"`
	Description string `json:"description" yaml:"description" toml:"description"`
	Default     any    `json:"default" yaml:"default" toml:"default"`
	Modifier    string `json:"modifier" yaml:"modifier" toml:"modifier"`
}

// LoadModel reads and parses a model description, choosing the decoder from the file extension
func LoadModel(path string) (*Model, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model file")
	}

	model, err := ParseModel(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	model.Path = path
	return model, nil
}

// ParseModel decodes a model description and assigns item indices
func ParseModel(data []byte, format Format) (*Model, error) {
	var raw rawModel

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrapf(ErrSchema, "failed to parse JSON model: %v", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrapf(ErrSchema, "failed to parse YAML model: %v", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, errors.Wrapf(ErrSchema, "failed to parse TOML model: %v", err)
		}
	default:
		return nil, errors.Wrapf(ErrSchema, "unsupported model format %q", format)
	}

	return raw.build()
}

func (r *rawModel) build() (*Model, error) {
	m := &Model{
		Meta: Metadata{
			Name:        r.Name,
			Version:     r.Version,
			Description: r.Description,
			Formalism:   r.Formalism,
			StepSize:    scalarString(r.StepSize),
			StopTime:    scalarString(r.StopTime),
			Lookahead:   scalarString(r.Lookahead),
			Authors:     r.Authors,
		},
	}

	var err error
	if m.Parameters, err = buildItems(Parameters, r.Parameters); err != nil {
		return nil, err
	}
	if m.Inputs, err = buildItems(Inputs, r.Inputs); err != nil {
		return nil, err
	}
	if m.Outputs, err = buildItems(Outputs, r.Outputs); err != nil {
		return nil, err
	}

	return m, nil
}

func buildItems(c Collection, raw []rawItem) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for i, r := range raw {
		if r.Name == "" {
			return nil, errors.Wrapf(ErrSchema, "%s[%d]: missing name", c, i)
		}
		if r.Type == "" {
			return nil, errors.Wrapf(ErrSchema, "%s[%d] %q: missing type", c, i, r.Name)
		}
		if prev, dup := seen[r.Name]; dup {
			return nil, errors.Wrapf(ErrSchema, "%s[%d] %q: duplicate of %s[%d]", c, i, r.Name, c, prev)
		}
		seen[r.Name] = i

		items = append(items, Item{
			Name:        r.Name,
			Namespace:   r.Namespace,
			Type:        strings.ToLower(r.Type),
			Index:       i,
			Collection:  c,
			ID:          scalarString(r.ID),
			Unit:        r.Unit,
			Description: r.Description,
			Default:     scalarString(r.Default),
			Modifier:    r.Modifier,
		})
	}

	return items, nil
}

// scalarString renders a decoded scalar the way a template author wrote it
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		out, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(out)
	}
}
