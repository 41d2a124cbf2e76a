package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EventCommand is one interpreter command: a code plus free-form arguments.
type EventCommand struct {
	Code string         `yaml:"code"`
	Args map[string]any `yaml:"args"`
}

// CommonEvent is a reusable command list invoked with call_common_event.
type CommonEvent struct {
	ID       int32          `yaml:"id"`
	Name     string         `yaml:"name"`
	Commands []EventCommand `yaml:"commands"`
}

// ThreadSpec starts one event-execution thread when the scenario begins
// (or at StartTick).
type ThreadSpec struct {
	EventID   int32          `yaml:"event_id"`
	StartTick int            `yaml:"start_tick"`
	Commands  []EventCommand `yaml:"commands"`
}

// Scenario is the script a host run executes.
type Scenario struct {
	CommonEvents []CommonEvent `yaml:"common_events"`
	Threads      []ThreadSpec  `yaml:"threads"`

	common map[int32]*CommonEvent
}

type scenarioFile struct {
	Scenario Scenario `yaml:"scenario"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	s := &f.Scenario
	if err := s.index(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewScenario builds a scenario in code (tests, embedded demos).
func NewScenario(common []CommonEvent, threads []ThreadSpec) (*Scenario, error) {
	s := &Scenario{CommonEvents: common, Threads: threads}
	if err := s.index(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scenario) index() error {
	s.common = make(map[int32]*CommonEvent, len(s.CommonEvents))
	for i := range s.CommonEvents {
		ce := &s.CommonEvents[i]
		if _, dup := s.common[ce.ID]; dup {
			return fmt.Errorf("scenario: duplicate common event %d", ce.ID)
		}
		s.common[ce.ID] = ce
	}
	return nil
}

// CommonEvent returns a common event by ID, or nil.
func (s *Scenario) CommonEvent(id int32) *CommonEvent {
	return s.common[id]
}
