package domain

// DiscoveryReport is the outcome of probing a not-yet-registered
// subprocess source for its available operations.
type DiscoveryReport struct {
	// ServerName and ServerVersion are taken from the server's
	// initialize response, when provided.
	ServerName    string
	ServerVersion string

	// Command and Args reproduce the invocation that was probed.
	Command string
	Args    []string

	// Tools lists the operations the server advertises.
	Tools []DiscoveredTool

	// EnvKeys are environment variable names the caller supplied for the
	// probe; the generator turns them into credential fields.
	EnvKeys []string
}

// DiscoveredTool is one operation learned from a probe.
type DiscoveredTool struct {
	Name        string
	Description string

	// Params are derived from the tool's input schema.
	Params map[string]ParamDefinition
}
