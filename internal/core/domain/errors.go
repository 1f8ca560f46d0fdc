package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDefinition indicates a malformed connector definition.
	// Definitions failing this check are never registered, so adapters
	// may treat a violation at execution time as a programming bug.
	ErrInvalidDefinition = errors.New("invalid connector definition")

	// ErrUnknownConnector indicates a source reference names a connector
	// that is not registered.
	ErrUnknownConnector = errors.New("unknown connector")

	// ErrUnknownFetch indicates a source reference names a fetch the
	// connector does not expose.
	ErrUnknownFetch = errors.New("unknown fetch")

	// ErrInvalidParams indicates required fetch parameters are missing
	// after merging defaults, static params and runtime params.
	ErrInvalidParams = errors.New("invalid params")

	// ErrUnresolvedTemplate indicates a template placeholder survived
	// resolution all the way to an outgoing request.
	ErrUnresolvedTemplate = errors.New("unresolved template placeholder")

	// ErrRateLimited indicates the remote API rate limit was exceeded
	// and retries were exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates no language model is configured.
	// Gathering still works; briefing generation is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrNoContext indicates every source in a briefing failed, leaving
	// nothing to hand to the language model.
	ErrNoContext = errors.New("no source produced any context")
)

// UnknownConnectorError reports a lookup miss together with the set of
// registered connector ids, so the message is actionable on its own.
type UnknownConnectorError struct {
	ID    string
	Known []string
}

func (e *UnknownConnectorError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown connector %q (no connectors registered)", e.ID)
	}
	return fmt.Sprintf("unknown connector %q (known: %s)", e.ID, strings.Join(e.Known, ", "))
}

// Unwrap lets errors.Is match ErrUnknownConnector.
func (e *UnknownConnectorError) Unwrap() error { return ErrUnknownConnector }

// UnknownFetchError reports a fetch lookup miss together with the fetch
// names the connector actually exposes.
type UnknownFetchError struct {
	Connector string
	Fetch     string
	Known     []string
}

func (e *UnknownFetchError) Error() string {
	return fmt.Sprintf("connector %q has no fetch %q (known: %s)",
		e.Connector, e.Fetch, strings.Join(e.Known, ", "))
}

// Unwrap lets errors.Is match ErrUnknownFetch.
func (e *UnknownFetchError) Unwrap() error { return ErrUnknownFetch }

// InvalidParamsError lists every missing required parameter at once rather
// than failing on the first, so a caller can fix them in one pass.
type InvalidParamsError struct {
	Connector string
	Fetch     string
	Missing   []string
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("fetch %q on connector %q is missing required params: %s",
		e.Fetch, e.Connector, strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is match ErrInvalidParams.
func (e *InvalidParamsError) Unwrap() error { return ErrInvalidParams }
