// Package npc loads the catalog of scripted characters the player can talk
// to. The catalog is static configuration: a missing file or an incomplete
// definition is a startup error, never a per-request one.
package npc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedPost is timeline content published under an NPC's account when the
// catalog is seeded into the store.
type SeedPost struct {
	Content string `yaml:"content"`
	Likes   int    `yaml:"likes"`
}

// Definition describes one NPC: its account identity, the persona handed to
// the model, and the fixed fallback line used when the model is unavailable.
type Definition struct {
	ID          string     `yaml:"id"`
	Kind        string     `yaml:"kind"`
	DisplayName string     `yaml:"display_name"`
	AvatarRef   string     `yaml:"avatar_ref"`
	Persona     string     `yaml:"persona"`
	Knowledge   string     `yaml:"knowledge"`
	Fallback    string     `yaml:"fallback"`
	Posts       []SeedPost `yaml:"posts"`
}

type Catalog struct {
	byID  map[string]*Definition
	order []string
}

type catalogFile struct {
	NPCs []*Definition `yaml:"npcs"`
}

// LoadCatalog reads and validates the YAML catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("npc: read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("npc: parse catalog: %w", err)
	}
	return NewCatalog(file.NPCs)
}

// NewCatalog validates definitions and indexes them by id.
func NewCatalog(defs []*Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("npc: catalog is empty")
	}
	c := &Catalog{byID: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		switch {
		case def.ID == "":
			return nil, fmt.Errorf("npc: definition missing id")
		case def.DisplayName == "":
			return nil, fmt.Errorf("npc %q: missing display_name", def.ID)
		case def.Persona == "":
			return nil, fmt.Errorf("npc %q: missing persona", def.ID)
		case def.Fallback == "":
			return nil, fmt.Errorf("npc %q: missing fallback", def.ID)
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("npc %q: duplicate id", def.ID)
		}
		c.byID[def.ID] = def
		c.order = append(c.order, def.ID)
	}
	return c, nil
}

// Get returns the definition for an NPC id.
func (c *Catalog) Get(id string) (*Definition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// All returns every definition in catalog order.
func (c *Catalog) All() []*Definition {
	defs := make([]*Definition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.byID[id])
	}
	return defs
}
