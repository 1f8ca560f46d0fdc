// Package file provides credential storage in per-connector KEY=VALUE
// files under a single directory, with environment variables taking
// precedence over file contents at resolution time.
package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

var _ driven.CredentialsStore = (*Store)(nil)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// Store resolves connector credentials from the process environment
// first and per-connector files second. Files live at
// <dir>/<connector-id>.env, one KEY=VALUE per line.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]map[string]string
}

// NewStore creates a store rooted at dir. When dir is empty the default
// ~/.brief/credentials is used.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		dir = filepath.Join(home, ".brief", "credentials")
	}
	return &Store{dir: dir, cache: make(map[string]map[string]string)}, nil
}

// Resolve builds the credential map for a connector definition. Each
// declared auth field is looked up as an environment variable first,
// then in the connector's credential file under the same variable name,
// then under the raw field name. Missing fields are omitted; missing
// required fields are additionally warned about.
func (s *Store) Resolve(ctx context.Context, def *domain.ConnectorDefinition) map[string]string {
	fileVals, err := s.load(def.ID)
	if err != nil {
		logger.Warn("credentials file for %s unreadable: %v", def.ID, err)
		fileVals = map[string]string{}
	}

	creds := make(map[string]string, len(def.Auth))
	var missing []string
	for field, spec := range def.Auth {
		envName := domain.CredentialEnvVar(def.ID, field)
		if v, ok := os.LookupEnv(envName); ok && v != "" {
			creds[field] = v
			continue
		}
		if v, ok := fileVals[envName]; ok && v != "" {
			creds[field] = v
			continue
		}
		if v, ok := fileVals[field]; ok && v != "" {
			creds[field] = v
			continue
		}
		if spec.IsRequired() {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		logger.Warn("connector %s is missing required credentials: %s (set %s)",
			def.ID, strings.Join(missing, ", "), domain.CredentialEnvVar(def.ID, missing[0]))
	}
	return creds
}

// Save writes the given values to the connector's credential file,
// replacing any previous contents. The file is created owner-only.
func (s *Store) Save(ctx context.Context, connectorID string, values map[string]string) error {
	path, err := s.pathFor(connectorID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", k, values[k])
	}
	if err := os.WriteFile(path, []byte(sb.String()), filePerm); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}

	s.mu.Lock()
	delete(s.cache, connectorID)
	s.mu.Unlock()
	return nil
}

// Load returns the raw KEY=VALUE pairs stored for a connector. A
// missing file yields an empty map, not an error.
func (s *Store) Load(ctx context.Context, connectorID string) (map[string]string, error) {
	return s.load(connectorID)
}

// Delete removes the connector's credential file. Deleting credentials
// that were never stored is not an error.
func (s *Store) Delete(ctx context.Context, connectorID string) error {
	path, err := s.pathFor(connectorID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials file: %w", err)
	}

	s.mu.Lock()
	delete(s.cache, connectorID)
	s.mu.Unlock()
	return nil
}

// pathFor maps a connector id to its credential file, sanitizing the id
// so hostile ids cannot escape the store directory.
func (s *Store) pathFor(connectorID string) (string, error) {
	safe := domain.SanitizeConnectorID(connectorID)
	if safe == "" {
		return "", fmt.Errorf("connector id %q: %w", connectorID, domain.ErrInvalidInput)
	}
	return filepath.Join(s.dir, safe+".env"), nil
}

// load reads a connector's credential file through the cache.
func (s *Store) load(connectorID string) (map[string]string, error) {
	s.mu.Lock()
	if cached, ok := s.cache[connectorID]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	path, err := s.pathFor(connectorID)
	if err != nil {
		return nil, err
	}

	vals, err := parseEnvFile(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[connectorID] = vals
	s.mu.Unlock()
	return vals, nil
}

// parseEnvFile reads a KEY=VALUE file. Blank lines and lines starting
// with # are skipped; lines without = are skipped with a warning.
// Values may be wrapped in single or double quotes.
func parseEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("opening credentials file: %w", err)
	}
	defer f.Close()

	vals := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			logger.Warn("%s:%d: skipping malformed line", path, lineNo)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" {
			logger.Warn("%s:%d: skipping line with empty key", path, lineNo)
			continue
		}
		vals[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return vals, nil
}
