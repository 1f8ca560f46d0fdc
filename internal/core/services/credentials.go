package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driving"
)

var _ driving.CredentialsManager = (*CredentialsManager)(nil)

// CredentialsManager serves the credential CLI commands: it looks up a
// connector's declared auth fields and delegates persistence to the
// configured store.
type CredentialsManager struct {
	catalog driving.ConnectorCatalog
	store   driven.CredentialsStore
}

func NewCredentialsManager(catalog driving.ConnectorCatalog, store driven.CredentialsStore) *CredentialsManager {
	return &CredentialsManager{catalog: catalog, store: store}
}

// Fields returns the connector's declared auth fields keyed by field
// name, plus the field names in stable order for prompting.
func (m *CredentialsManager) Fields(connectorID string) (map[string]domain.AuthField, []string, error) {
	def, err := m.catalog.Get(connectorID)
	if err != nil {
		return nil, nil, err
	}
	if len(def.Auth) == 0 {
		return nil, nil, fmt.Errorf("connector %s declares no credentials: %w", connectorID, domain.ErrInvalidInput)
	}

	names := make([]string, 0, len(def.Auth))
	for name := range def.Auth {
		names = append(names, name)
	}
	sort.Strings(names)
	return def.Auth, names, nil
}

// Set persists the given field values for a connector. Values are
// stored under the connector's environment variable names so the file
// format matches what an operator would export by hand.
func (m *CredentialsManager) Set(ctx context.Context, connectorID string, values map[string]string) error {
	def, err := m.catalog.Get(connectorID)
	if err != nil {
		return err
	}

	stored := make(map[string]string, len(values))
	for field, value := range values {
		if _, ok := def.Auth[field]; !ok {
			return fmt.Errorf("connector %s has no auth field %q: %w", connectorID, field, domain.ErrInvalidInput)
		}
		stored[domain.CredentialEnvVar(def.ID, field)] = value
	}
	return m.store.Save(ctx, def.ID, stored)
}

// Show returns the stored fields for a connector with secret values
// masked. Non-secret fields (kind "text") are shown in full.
func (m *CredentialsManager) Show(ctx context.Context, connectorID string) (map[string]string, error) {
	def, err := m.catalog.Get(connectorID)
	if err != nil {
		return nil, err
	}

	stored, err := m.store.Load(ctx, def.ID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(stored))
	for field, spec := range def.Auth {
		value, ok := stored[domain.CredentialEnvVar(def.ID, field)]
		if !ok {
			continue
		}
		if spec.IsSecret() {
			value = maskSecret(value)
		}
		out[field] = value
	}
	return out, nil
}

// Delete removes all stored credentials for a connector.
func (m *CredentialsManager) Delete(ctx context.Context, connectorID string) error {
	def, err := m.catalog.Get(connectorID)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, def.ID)
}

// maskSecret keeps the last four characters of long secrets visible.
func maskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
