package domain

import "fmt"

// RefKind discriminates the two accepted source reference shapes.
type RefKind int

const (
	// RefInvalid is a reference matching neither shape.
	RefInvalid RefKind = iota
	// RefConnector names a registered connector and one of its fetches.
	RefConnector
	// RefDirect carries an inline subprocess invocation, bypassing the
	// registry and resolver entirely.
	RefDirect
)

// SourceRef is a caller's request to invoke one fetch.
//
// Two shapes are accepted. The connector shape names a registered connector
// and fetch with optional overrides. The legacy direct shape embeds the
// subprocess command and tool inline and is dispatched straight to the
// process executor. Kind reports which shape a reference matches.
type SourceRef struct {
	// Connector shape.
	Connector string         `yaml:"connector,omitempty" json:"connector,omitempty"`
	Fetch     string         `yaml:"fetch,omitempty" json:"fetch,omitempty"`
	ID        string         `yaml:"id,omitempty" json:"id,omitempty"`
	Name      string         `yaml:"name,omitempty" json:"name,omitempty"`
	Params    map[string]any `yaml:"params,omitempty" json:"params,omitempty"`

	// Legacy direct shape.
	Connection *DirectConnection `yaml:"connection,omitempty" json:"connection,omitempty"`
	Tool       string            `yaml:"tool,omitempty" json:"tool,omitempty"`
	Args       map[string]any    `yaml:"args,omitempty" json:"args,omitempty"`
}

// DirectConnection is the inline subprocess config of a legacy reference.
type DirectConnection struct {
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Kind reports which reference shape this is. The presence of an inline
// connection is the discriminator; a reference carrying both shapes is
// treated as direct, matching the original precedence.
func (r *SourceRef) Kind() RefKind {
	switch {
	case r.Connection != nil && r.Tool != "":
		return RefDirect
	case r.Connector != "" && r.Fetch != "":
		return RefConnector
	default:
		return RefInvalid
	}
}

// EffectiveID returns the source identity used in result records:
// the explicit id when present, otherwise "{connector}-{fetch}".
func (r *SourceRef) EffectiveID() string {
	if r.ID != "" {
		return r.ID
	}
	if r.Connector != "" && r.Fetch != "" {
		return fmt.Sprintf("%s-%s", r.Connector, r.Fetch)
	}
	if r.Connector != "" {
		return r.Connector
	}
	return "unknown"
}

// EffectiveName returns the best display name available on the reference
// itself, before (or instead of) registry resolution.
func (r *SourceRef) EffectiveName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.EffectiveID()
}

// ExecutionContext is the fully resolved, immutable bundle needed to
// perform one fetch. It is built fresh per invocation by the source
// resolver, handed to exactly one executor, and then discarded. Nothing
// mutates it after construction.
type ExecutionContext struct {
	// Connector is the resolved definition.
	Connector *ConnectorDefinition

	// FetchName names the fetch within the connector.
	FetchName string

	// Fetch is the resolved fetch definition.
	Fetch *FetchDefinition

	// Credentials maps auth field names to resolved secret values.
	// Fields that failed to resolve are absent, so their template
	// placeholders stay verbatim and fail visibly at the point of use.
	Credentials map[string]string

	// Params is the merged and validated parameter map.
	Params map[string]any

	// SourceID and SourceName identify this invocation in results.
	SourceID   string
	SourceName string
}
