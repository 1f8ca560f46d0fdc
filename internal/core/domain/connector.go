package domain

import (
	"fmt"
	"sort"
	"strings"
)

// TransportType identifies how a connector reaches its data source.
type TransportType string

const (
	// TransportMCP runs a subprocess speaking the Model Context Protocol.
	TransportMCP TransportType = "mcp"
	// TransportAPI issues direct HTTP requests against a REST API.
	TransportAPI TransportType = "api"
)

// AuthType identifies how an API connector authenticates requests.
type AuthType string

const (
	// AuthBasic sends base64-encoded username:password.
	AuthBasic AuthType = "basic"
	// AuthToken sends a bearer token.
	AuthToken AuthType = "token"
	// AuthNone sends no auth header.
	AuthNone AuthType = "none"
)

// ConnectorDefinition is a declarative description of one data source.
// Definitions are loaded from YAML files by the connector registry and are
// never computed at runtime.
type ConnectorDefinition struct {
	// ID is the globally unique lowercase-hyphen identifier.
	ID string `yaml:"id"`

	// Name is the human-readable display name.
	Name string `yaml:"name"`

	// Type selects the transport (mcp or api).
	Type TransportType `yaml:"type"`

	// MCP holds subprocess transport config. Set iff Type is mcp.
	MCP *MCPConfig `yaml:"mcp,omitempty"`

	// API holds HTTP transport config. Set iff Type is api.
	API *APIConfig `yaml:"api,omitempty"`

	// Fetches maps fetch names to their definitions. Never empty for a
	// usable connector.
	Fetches map[string]FetchDefinition `yaml:"fetches"`

	// Auth describes the named credential fields this connector needs.
	Auth map[string]AuthField `yaml:"auth,omitempty"`
}

// MCPConfig configures a subprocess-based (MCP) transport.
// Either Package or Command must be set; Command wins when both are present.
type MCPConfig struct {
	// Package is an npm package name run via "npx -y <package>".
	Package string `yaml:"package,omitempty"`

	// Command is an explicit executable, used verbatim with Args.
	Command string `yaml:"command,omitempty"`

	// Args are passed to Command.
	Args []string `yaml:"args,omitempty"`

	// Env maps environment variable names to template strings. Values are
	// resolved before spawn; entries that still contain an unexpanded
	// placeholder after resolution are dropped.
	Env map[string]string `yaml:"env,omitempty"`
}

// APIConfig configures a direct HTTP transport.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.example.test".
	BaseURL string `yaml:"base_url"`

	// Auth describes how requests are authenticated.
	Auth AuthDescriptor `yaml:"auth"`

	// Headers are static extra headers. Values are template strings.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// AuthDescriptor describes the auth scheme for an API connector.
type AuthDescriptor struct {
	// Type is basic, token or none. Empty means none.
	Type AuthType `yaml:"type,omitempty"`

	// Username and Password are template strings for basic auth.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Token is a template string for bearer auth.
	Token string `yaml:"token,omitempty"`

	// Header overrides the header name (default "Authorization").
	Header string `yaml:"header,omitempty"`
}

// FetchDefinition is one named operation exposed by a connector.
type FetchDefinition struct {
	// Tool is the MCP tool name. Set iff the owning connector is mcp.
	Tool string `yaml:"tool,omitempty"`

	// Endpoint is a "METHOD /path" string. Set iff the owning connector
	// is api. The method defaults to GET when omitted.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Description explains what this fetch returns.
	Description string `yaml:"description,omitempty"`

	// Params are the named parameters this fetch accepts.
	Params map[string]ParamDefinition `yaml:"params,omitempty"`

	// Body is an optional template object sent as the JSON request body
	// for mutating HTTP methods.
	Body map[string]any `yaml:"body,omitempty"`
}

// ParamDefinition describes one fetch parameter.
type ParamDefinition struct {
	// Type is a hint for documentation (string, number, boolean).
	Type string `yaml:"type,omitempty"`

	// Default is applied when neither the source reference nor the
	// runtime params provide a value.
	Default any `yaml:"default,omitempty"`

	// Required marks parameters that must be present after merging.
	Required bool `yaml:"required,omitempty"`

	// Description explains the parameter.
	Description string `yaml:"description,omitempty"`
}

// AuthField describes one named credential field.
type AuthField struct {
	// Label is the human-readable prompt label.
	Label string `yaml:"label,omitempty"`

	// Kind is "text" or "password". Password fields are prompted
	// without echo and masked in output.
	Kind string `yaml:"kind,omitempty"`

	// Required defaults to true when omitted.
	Required *bool `yaml:"required,omitempty"`
}

// IsRequired reports whether the field must resolve to a value.
// Fields are required unless explicitly marked otherwise.
func (f AuthField) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// IsSecret reports whether the field should be masked in UI output.
func (f AuthField) IsSecret() bool {
	return f.Kind == "password" || f.Kind == ""
}

// Validate checks the structural invariants of a definition.
// Exactly one transport config must be present and match Type, and every
// fetch must carry the field its transport requires.
func (d *ConnectorDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: connector id is required", ErrInvalidDefinition)
	}
	if !isValidID(d.ID) {
		return fmt.Errorf("%w: connector id %q must be lowercase alphanumeric with hyphens", ErrInvalidDefinition, d.ID)
	}

	switch d.Type {
	case TransportMCP:
		if d.MCP == nil || d.API != nil {
			return fmt.Errorf("%w: connector %q: type mcp requires an mcp block and no api block", ErrInvalidDefinition, d.ID)
		}
		if d.MCP.Package == "" && d.MCP.Command == "" {
			return fmt.Errorf("%w: connector %q: mcp block needs a package or a command", ErrInvalidDefinition, d.ID)
		}
	case TransportAPI:
		if d.API == nil || d.MCP != nil {
			return fmt.Errorf("%w: connector %q: type api requires an api block and no mcp block", ErrInvalidDefinition, d.ID)
		}
		if d.API.BaseURL == "" {
			return fmt.Errorf("%w: connector %q: api block needs a base_url", ErrInvalidDefinition, d.ID)
		}
	default:
		return fmt.Errorf("%w: connector %q: type must be mcp or api, got %q", ErrInvalidDefinition, d.ID, d.Type)
	}

	if len(d.Fetches) == 0 {
		return fmt.Errorf("%w: connector %q: at least one fetch is required", ErrInvalidDefinition, d.ID)
	}
	for name, fetch := range d.Fetches {
		switch d.Type {
		case TransportMCP:
			if fetch.Tool == "" {
				return fmt.Errorf("%w: connector %q: fetch %q needs a tool", ErrInvalidDefinition, d.ID, name)
			}
			if fetch.Endpoint != "" {
				return fmt.Errorf("%w: connector %q: fetch %q sets endpoint on an mcp connector", ErrInvalidDefinition, d.ID, name)
			}
		case TransportAPI:
			if fetch.Endpoint == "" {
				return fmt.Errorf("%w: connector %q: fetch %q needs an endpoint", ErrInvalidDefinition, d.ID, name)
			}
			if fetch.Tool != "" {
				return fmt.Errorf("%w: connector %q: fetch %q sets tool on an api connector", ErrInvalidDefinition, d.ID, name)
			}
		}
	}

	return nil
}

// FetchNames returns the fetch names in lexical order.
func (d *ConnectorDefinition) FetchNames() []string {
	names := make([]string, 0, len(d.Fetches))
	for name := range d.Fetches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isValidID accepts lowercase alphanumeric identifiers with single hyphens
// between segments (e.g. "support-desk").
func isValidID(id string) bool {
	if strings.HasPrefix(id, "-") || strings.HasSuffix(id, "-") || strings.Contains(id, "--") {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return id != ""
}
