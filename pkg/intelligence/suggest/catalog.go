package suggest

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Context requirements a tool may declare
const (
	RequireCompany = "company"
	RequirePerson  = "person"
	RequireLead    = "lead"
	RequireRole    = "role"
)

type Tool struct {
	ID          string             `yaml:"id" json:"id"`
	Label       string             `yaml:"label" json:"label"`
	Description string             `yaml:"description" json:"description"`
	Priority    int                `yaml:"priority" json:"priority"`
	Intents     map[string]float64 `yaml:"intents" json:"intents"`
	Roles       []string           `yaml:"roles" json:"roles"`
	Requires    []string           `yaml:"requires" json:"requires"`
}

type Catalog struct {
	Tools []Tool `yaml:"tools"`
}

// DefaultCatalog returns the embedded tool catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalogFile reads a catalog from disk. An empty path yields the default catalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suggestion catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse suggestion catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Tools) == 0 {
		return fmt.Errorf("suggestion catalog has no tools")
	}
	seen := make(map[string]struct{}, len(c.Tools))
	for _, t := range c.Tools {
		if t.ID == "" {
			return fmt.Errorf("suggestion catalog: tool without id")
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("suggestion catalog: duplicate tool id %q", t.ID)
		}
		seen[t.ID] = struct{}{}

		for intentType, relevance := range t.Intents {
			if relevance < 0 || relevance > 1 {
				return fmt.Errorf("suggestion catalog: tool %q relevance for %q out of range", t.ID, intentType)
			}
		}
		for _, r := range t.Requires {
			switch r {
			case RequireCompany, RequirePerson, RequireLead, RequireRole:
			default:
				return fmt.Errorf("suggestion catalog: tool %q has unknown requirement %q", t.ID, r)
			}
		}
	}
	return nil
}
