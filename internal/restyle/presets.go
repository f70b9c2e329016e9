package restyle

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yml
var builtinPresets []byte

// Preset is a named prompt with its default attempt budget.
type Preset struct {
	Name        string `yaml:"-"`
	Prompt      string `yaml:"prompt"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// Presets maps preset names to presets.
type Presets map[string]Preset

type presetsFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// LoadPresets reads presets from yaml. Names are case-insensitive and
// stored lowercased.
func LoadPresets(r io.Reader) (Presets, error) {
	var f presetsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode presets: %w", err)
	}

	res := make(Presets, len(f.Presets))
	for name, p := range f.Presets {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("preset with empty name")
		}
		p.Prompt = strings.TrimSpace(p.Prompt)
		if p.Prompt == "" {
			return nil, fmt.Errorf("preset %q has no prompt", name)
		}
		if p.MaxAttempts < 0 {
			return nil, fmt.Errorf("preset %q has negative max_attempts %d", name, p.MaxAttempts)
		}
		p.Name = name
		res[name] = p
	}
	return res, nil
}

// BuiltinPresets returns the presets embedded in the binary.
func BuiltinPresets() Presets {
	res, err := LoadPresets(bytes.NewReader(builtinPresets))
	if err != nil {
		panic(fmt.Sprintf("embedded presets are broken: %v", err))
	}
	return res
}

// Get returns the preset by name.
func (p Presets) Get(name string) (Preset, error) {
	res, ok := p[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q, available: %s", name, strings.Join(p.Names(), ", "))
	}
	return res, nil
}

// Merge returns a copy of p with other's presets added, other wins on
// name clashes.
func (p Presets) Merge(other Presets) Presets {
	res := make(Presets, len(p)+len(other))
	for k, v := range p {
		res[k] = v
	}
	for k, v := range other {
		res[k] = v
	}
	return res
}

// Names returns sorted preset names.
func (p Presets) Names() []string {
	res := make([]string, 0, len(p))
	for k := range p {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
