package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Source is one named feed endpoint belonging to a topic
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Topic is a named category aggregating one or more feed sources
type Topic struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Enabled *bool    `json:"enabled,omitempty"`
	Sources []Source `json:"sources"`
}

// IsEnabled reports whether the topic should be fetched. Defaults to true
// when the enabled field is absent from the configuration file.
func (t *Topic) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Topics is the full topic configuration, in declared order
type Topics struct {
	Topics []Topic `json:"topics"`
}

// Enabled returns the topics whose enabled flag is true, in declared order
func (ts *Topics) Enabled() []Topic {
	var enabled []Topic
	for _, t := range ts.Topics {
		if t.IsEnabled() {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

// Find returns the topic with the given id, or nil if none matches
func (ts *Topics) Find(id string) *Topic {
	for i := range ts.Topics {
		if ts.Topics[i].ID == id {
			return &ts.Topics[i]
		}
	}
	return nil
}

// NameFor returns the display name for a topic id, falling back to the id
// itself when the topic is not declared
func (ts *Topics) NameFor(id string) string {
	if t := ts.Find(id); t != nil && t.Name != "" {
		return t.Name
	}
	return id
}

// LoadTopics reads and validates the topic configuration file
func LoadTopics(path string) (*Topics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file: %w", err)
	}

	var topics Topics
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parsing topics file: %w", err)
	}

	if err := topics.Validate(); err != nil {
		return nil, err
	}

	return &topics, nil
}

// Validate checks the structural invariants of the topic configuration:
// a non-empty topic list, unique non-empty topic ids, and a non-empty
// source list per topic where every source carries a name and a URL.
func (ts *Topics) Validate() error {
	if len(ts.Topics) == 0 {
		return fmt.Errorf("topics must be a non-empty list")
	}

	ids := make(map[string]bool)
	for _, t := range ts.Topics {
		if t.ID == "" {
			return fmt.Errorf("each topic must have a non-empty id")
		}
		if ids[t.ID] {
			return fmt.Errorf("duplicate topic id: %s", t.ID)
		}
		ids[t.ID] = true

		if len(t.Sources) == 0 {
			return fmt.Errorf("topic %q must have a non-empty sources list", t.ID)
		}
		for _, s := range t.Sources {
			if s.Name == "" || s.URL == "" {
				return fmt.Errorf("topic %q sources must contain name and url", t.ID)
			}
		}
	}

	return nil
}
