package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// WeightedTermCount is how many labels the analyzer must produce for each weighted category.
const WeightedTermCount = 3

// Vibe description keys as they appear on the wire.
const (
	KeyLighting  = "lighting"
	KeyTimeOfDay = "time_of_day"
	KeyMood      = "mood"
	KeyColors    = "colors"
	KeyObjects   = "objects"
	KeyStyle     = "style"
)

var vibeKeys = []string{KeyLighting, KeyTimeOfDay, KeyMood, KeyColors, KeyObjects, KeyStyle}

// WeightedTerms maps a label to its weight in [0.0, 1.0].
type WeightedTerms map[string]float64

// VibeDescription is the structured aesthetic summary of a playlist. It is sent to
// the client, possibly edited there, and sent back for image generation.
type VibeDescription struct {
	Lighting  []string      `json:"lighting"`
	TimeOfDay []string      `json:"time_of_day"`
	Mood      WeightedTerms `json:"mood"`
	Colors    WeightedTerms `json:"colors"`
	Objects   WeightedTerms `json:"objects"`
	Style     string        `json:"style"`
}

// VibeFieldError reports the first key of a vibe description that is absent or malformed.
type VibeFieldError struct {
	Field   string
	Problem string
}

func (e *VibeFieldError) Error() string {
	return fmt.Sprintf("vibe description: %q %s", e.Field, e.Problem)
}

// ParseVibe decodes a vibe description and checks that every key is present.
// Values are not range-checked here; use Validate or ValidateEdited.
func ParseVibe(data []byte) (VibeDescription, error) {
	data = bytes.TrimSpace(data)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return VibeDescription{}, fmt.Errorf("vibe description: not a JSON object: %w", err)
	}
	for _, key := range vibeKeys {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return VibeDescription{}, &VibeFieldError{Field: key, Problem: "is missing"}
		}
	}

	var vibe VibeDescription
	if err := json.Unmarshal(data, &vibe); err != nil {
		return VibeDescription{}, fmt.Errorf("vibe description: %w", err)
	}
	return vibe, nil
}

// Validate enforces the analyzer contract: non-empty lighting and time_of_day,
// exactly three weighted terms per category with weights in [0, 1], and a style.
func (v VibeDescription) Validate() error {
	return v.validate(func(field string, terms WeightedTerms) error {
		if len(terms) != WeightedTermCount {
			return &VibeFieldError{Field: field, Problem: fmt.Sprintf("must have exactly %d entries, got %d", WeightedTermCount, len(terms))}
		}
		return nil
	})
}

// ValidateEdited is the looser check applied to descriptions edited by a client,
// which may add or remove weighted terms.
func (v VibeDescription) ValidateEdited() error {
	return v.validate(func(field string, terms WeightedTerms) error {
		if len(terms) == 0 {
			return &VibeFieldError{Field: field, Problem: "must not be empty"}
		}
		return nil
	})
}

func (v VibeDescription) validate(countRule func(string, WeightedTerms) error) error {
	if err := nonEmptyPhrases(KeyLighting, v.Lighting); err != nil {
		return err
	}
	if err := nonEmptyPhrases(KeyTimeOfDay, v.TimeOfDay); err != nil {
		return err
	}

	weighted := []struct {
		field string
		terms WeightedTerms
	}{
		{KeyMood, v.Mood},
		{KeyColors, v.Colors},
		{KeyObjects, v.Objects},
	}
	for _, w := range weighted {
		if err := countRule(w.field, w.terms); err != nil {
			return err
		}
		for label, weight := range w.terms {
			if label == "" {
				return &VibeFieldError{Field: w.field, Problem: "has an empty label"}
			}
			if math.IsNaN(weight) || weight < 0 || weight > 1 {
				return &VibeFieldError{Field: w.field, Problem: fmt.Sprintf("weight for %q is outside [0, 1]", label)}
			}
		}
	}

	if v.Style == "" {
		return &VibeFieldError{Field: KeyStyle, Problem: "must not be empty"}
	}
	return nil
}

func nonEmptyPhrases(field string, phrases []string) error {
	if len(phrases) == 0 {
		return &VibeFieldError{Field: field, Problem: "must have at least one phrase"}
	}
	for _, p := range phrases {
		if p == "" {
			return &VibeFieldError{Field: field, Problem: "contains an empty phrase"}
		}
	}
	return nil
}
