package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ActorTemplate holds database data for one actor loaded from YAML.
type ActorTemplate struct {
	ActorID         int32  `yaml:"actor_id"`
	Name            string `yaml:"name"`
	ClassID         int32  `yaml:"class_id"`
	CharacterName   string `yaml:"character_name"`
	CharacterIndex  int    `yaml:"character_index"`
	AlwaysStepAnime bool   `yaml:"always_step_anime"`
}

type actorListFile struct {
	Actors []ActorTemplate `yaml:"actors"`
}

// ActorTable holds all actor templates indexed by ActorID, plus file order.
type ActorTable struct {
	templates map[int32]*ActorTemplate
	order     []int32
}

// LoadActorTable loads actor templates from a YAML file.
func LoadActorTable(path string) (*ActorTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actor_list: %w", err)
	}
	var f actorListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse actor_list: %w", err)
	}
	t := &ActorTable{templates: make(map[int32]*ActorTemplate, len(f.Actors))}
	for i := range f.Actors {
		a := &f.Actors[i]
		if a.ActorID <= 0 {
			return nil, fmt.Errorf("parse actor_list: actor %q has id %d", a.Name, a.ActorID)
		}
		if _, dup := t.templates[a.ActorID]; dup {
			return nil, fmt.Errorf("parse actor_list: duplicate actor id %d", a.ActorID)
		}
		t.templates[a.ActorID] = a
		t.order = append(t.order, a.ActorID)
	}
	return t, nil
}

// Get returns a template by ActorID, or nil.
func (t *ActorTable) Get(actorID int32) *ActorTemplate {
	return t.templates[actorID]
}

// All returns templates in file order.
func (t *ActorTable) All() []*ActorTemplate {
	out := make([]*ActorTemplate, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.templates[id])
	}
	return out
}

// Count returns the number of loaded actor templates.
func (t *ActorTable) Count() int {
	return len(t.templates)
}
