package normative

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/yalicar/string-compliance-iq/internal/faults"
)

//go:embed standards.yaml
var standardsYAML []byte

// Catalog holds the base parameter sets for every recognized standard.
// It is loaded once at startup from the embedded YAML and read-only after.
type Catalog struct {
	standards map[Standard]ParameterSet
}

type catalogFile struct {
	Standards map[string]struct {
		DisplayName string             `yaml:"display_name"`
		Description string             `yaml:"description"`
		Country     string             `yaml:"country"`
		Sections    map[string]Section `yaml:"sections"`
	} `yaml:"standards"`
}

// LoadCatalog parses the embedded standards catalog. A malformed catalog is
// a build defect, so main treats an error here as fatal.
func LoadCatalog() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(standardsYAML, &file); err != nil {
		return nil, fmt.Errorf("parse standards catalog: %w", err)
	}
	if len(file.Standards) == 0 {
		return nil, fmt.Errorf("standards catalog defines no standards")
	}

	cat := &Catalog{standards: make(map[Standard]ParameterSet, len(file.Standards))}
	for name, entry := range file.Standards {
		std, err := ParseStandard(name)
		if err != nil {
			return nil, fmt.Errorf("standards catalog: %w", err)
		}
		if len(entry.Sections) == 0 {
			return nil, fmt.Errorf("standard %s defines no parameter sections", name)
		}
		cat.standards[std] = ParameterSet{
			Standard:    std,
			DisplayName: entry.DisplayName,
			Description: entry.Description,
			Country:     entry.Country,
			Sections:    entry.Sections,
		}
	}
	return cat, nil
}

// Base returns a copy of the base parameter set for a standard.
func (c *Catalog) Base(std Standard) (ParameterSet, error) {
	ps, ok := c.standards[std]
	if !ok {
		return ParameterSet{}, faults.Validation("base_norm", "standard %q not in catalog", std)
	}
	return ps.clone(), nil
}

// StandardInfo is the list-view shape for available standards.
type StandardInfo struct {
	Name        Standard `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Country     string   `json:"country"`
}

// Available lists the catalog's standards in stable name order.
func (c *Catalog) Available() []StandardInfo {
	out := make([]StandardInfo, 0, len(c.standards))
	for _, ps := range c.standards {
		out = append(out, StandardInfo{
			Name:        ps.Standard,
			DisplayName: ps.DisplayName,
			Description: ps.Description,
			Country:     ps.Country,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
