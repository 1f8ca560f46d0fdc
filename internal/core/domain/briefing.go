package domain

import "time"

// BriefingConfig is the declarative input for one briefing run: the
// sources to gather and the prompt the aggregate is handed to.
type BriefingConfig struct {
	// Name identifies the briefing (e.g. "weekly-customer-review").
	Name string `yaml:"name"`

	// Prompt is the instruction given to the language model alongside
	// the gathered context. May contain {{params.x}} placeholders.
	Prompt string `yaml:"prompt"`

	// Params are runtime parameters applied to every source.
	Params map[string]any `yaml:"params,omitempty"`

	// Sources lists the fetches to run, in output order.
	Sources []SourceRef `yaml:"sources"`
}

// Validate checks the minimal shape of a briefing config.
func (c *BriefingConfig) Validate() error {
	if c.Name == "" {
		return ErrInvalidInput
	}
	if len(c.Sources) == 0 {
		return ErrInvalidInput
	}
	for i := range c.Sources {
		if c.Sources[i].Kind() == RefInvalid {
			return ErrInvalidInput
		}
	}
	return nil
}

// SourceStatus summarises one source's outcome inside a stored briefing.
type SourceStatus struct {
	SourceID   string `json:"sourceId"`
	SourceName string `json:"sourceName"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// Briefing is the persisted record of one completed run.
type Briefing struct {
	// ID is a generated unique identifier.
	ID string

	// Name is the briefing config name.
	Name string

	// Model names the language model that produced the output.
	Model string

	// Prompt is the fully assembled prompt that was sent.
	Prompt string

	// Output is the generated briefing text.
	Output string

	// Sources records the per-source outcomes of the gather phase.
	Sources []SourceStatus

	// CreatedAt is when the run completed.
	CreatedAt time.Time
}
