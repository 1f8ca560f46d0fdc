package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driving"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

// Ensure ConnectorRegistry implements the interface.
var _ driving.ConnectorCatalog = (*ConnectorRegistry)(nil)

// userConnectorsDir is the per-user connector directory under $HOME.
const userConnectorsDir = ".brief/connectors"

// ConnectorRegistry loads connector definitions from an ordered list of
// search paths and exposes them by id.
//
// Earlier search paths win: when two files declare the same id, the one
// found first is kept and the later one is skipped with a warning. A
// malformed file is likewise skipped with a warning; it never fails the
// whole load.
type ConnectorRegistry struct {
	mu sync.RWMutex

	// overridePath is an explicit directory checked before the standard
	// search paths. Empty means none.
	overridePath string

	connectors map[string]domain.ConnectorDefinition
	origins    map[string]string // id -> file path it was loaded from
	loaded     bool
}

// NewConnectorRegistry creates a registry. overridePath, when non-empty,
// is searched before the standard locations.
func NewConnectorRegistry(overridePath string) *ConnectorRegistry {
	return &ConnectorRegistry{
		overridePath: overridePath,
		connectors:   make(map[string]domain.ConnectorDefinition),
		origins:      make(map[string]string),
	}
}

// SearchPaths returns the directories scanned by Load, in precedence
// order: the explicit override, ./connectors, one and two levels up (for
// workspace layouts where brief runs in a subdirectory), and the user's
// home directory.
func (r *ConnectorRegistry) SearchPaths() []string {
	var paths []string
	if r.overridePath != "" {
		paths = append(paths, r.overridePath)
	}
	paths = append(paths,
		"connectors",
		filepath.Join("..", "connectors"),
		filepath.Join("..", "..", "connectors"),
	)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, userConnectorsDir))
	}
	return paths
}

// Load scans the search paths and registers every valid definition found.
// Idempotent: after one successful load, repeated calls are no-ops until
// Reset is called.
func (r *ConnectorRegistry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}
	r.scanLocked()
	r.loaded = true
	return nil
}

// Reload rescans the search paths, registering definitions that appeared
// since the last load. Already-registered ids keep their first-found
// definition; ids are process-lifetime-stable.
func (r *ConnectorRegistry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanLocked()
	r.loaded = true
}

// scanLocked walks the search paths in order. Caller must hold the lock.
func (r *ConnectorRegistry) scanLocked() {
	for _, dir := range r.SearchPaths() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // missing search path, not an error
		}
		// Deterministic order within one directory.
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext == ".yaml" || ext == ".yml" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(dir, name)
			def, err := loadDefinition(path)
			if err != nil {
				logger.Warn("skipping connector file %s: %v", path, err)
				continue
			}
			if origin, exists := r.origins[def.ID]; exists {
				logger.Warn("connector %q in %s ignored: already registered from %s", def.ID, path, origin)
				continue
			}
			r.connectors[def.ID] = *def
			r.origins[def.ID] = path
			logger.Debug("registered connector %q from %s", def.ID, path)
		}
	}
}

// loadDefinition reads and validates a single connector file.
func loadDefinition(path string) (*domain.ConnectorDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	var def domain.ConnectorDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Get returns the definition registered under id.
func (r *ConnectorRegistry) Get(id string) (*domain.ConnectorDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.connectors[id]
	if !ok {
		return nil, &domain.UnknownConnectorError{ID: id, Known: r.listIDsLocked()}
	}
	return &def, nil
}

// Has reports whether id is registered.
func (r *ConnectorRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connectors[id]
	return ok
}

// List returns all registered definitions, ordered by id.
func (r *ConnectorRegistry) List() []domain.ConnectorDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ConnectorDefinition, 0, len(r.connectors))
	for _, id := range r.listIDsLocked() {
		out = append(out, r.connectors[id])
	}
	return out
}

// ListIDs returns all registered ids in lexical order.
func (r *ConnectorRegistry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listIDsLocked()
}

func (r *ConnectorRegistry) listIDsLocked() []string {
	ids := make([]string, 0, len(r.connectors))
	for id := range r.connectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Register injects a definition directly, bypassing the file scan.
// Unlike Load, a duplicate id here replaces the existing definition;
// direct injection is an explicit caller decision.
func (r *ConnectorRegistry) Register(def *domain.ConnectorDefinition) error {
	if def == nil {
		return domain.ErrInvalidInput
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[def.ID] = *def
	r.origins[def.ID] = "registered"
	return nil
}

// Reset clears all registered definitions and re-arms Load.
func (r *ConnectorRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors = make(map[string]domain.ConnectorDefinition)
	r.origins = make(map[string]string)
	r.loaded = false
}

// Watch reloads the registry whenever a file changes in any existing
// search path. It blocks until ctx is cancelled. Reloads are additive:
// a definition removed on disk stays registered for the process lifetime.
func (r *ConnectorRegistry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watching := 0
	for _, dir := range r.SearchPaths() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Warn("cannot watch %s: %v", dir, err)
			continue
		}
		watching++
	}
	if watching == 0 {
		return fmt.Errorf("no connector directories to watch")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				logger.Debug("connector path changed (%s), reloading", event.Name)
				r.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}
