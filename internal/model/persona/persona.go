package persona

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Default is the persona every new connection starts with.
const Default = "Samantha"

// Voice carries the client-side speech synthesis tuning for a persona.
type Voice struct {
	Pitch  float64 `json:"pitch" yaml:"pitch"`
	Rate   float64 `json:"rate" yaml:"rate"`
	Volume float64 `json:"volume" yaml:"volume"`
}

// Persona captures the co-pilot voice exposed to the frontend and the model.
type Persona struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Title         string   `json:"title" yaml:"title"`
	Tone          string   `json:"tone" yaml:"tone"`
	Voice         Voice    `json:"voice" yaml:"voice"`
	AlertPrefixes []string `json:"alertPrefixes" yaml:"alertPrefixes"`
	Prompt        string   `json:"-" yaml:"prompt"`
}

//go:embed personas.yaml
var builtin []byte

// Seed provides the built-in Samantha, Jarvis and KITT personas.
func Seed() []Persona {
	items, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("persona: embedded catalog is invalid: %v", err))
	}
	return items
}

// Parse decodes a YAML persona catalog.
func Parse(data []byte) ([]Persona, error) {
	var items []Persona
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode persona catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("persona #%d has no id", i)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", item.ID)
		}
		if len(item.AlertPrefixes) == 0 {
			return nil, fmt.Errorf("persona %q has no alert prefixes", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return items, nil
}
