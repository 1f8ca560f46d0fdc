package services

import (
	"context"
	"sort"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driving"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

// Ensure SourceResolver implements the interface.
var _ driving.SourceResolver = (*SourceResolver)(nil)

// SourceResolver turns generic source references into fully resolved
// execution contexts: connector and fetch lookup, credential resolution,
// parameter merging and validation, and identity computation.
type SourceResolver struct {
	catalog driving.ConnectorCatalog
	creds   driven.CredentialsStore
}

// NewSourceResolver creates a resolver over the given catalog and
// credential store.
func NewSourceResolver(catalog driving.ConnectorCatalog, creds driven.CredentialsStore) *SourceResolver {
	return &SourceResolver{
		catalog: catalog,
		creds:   creds,
	}
}

// ResolveSource builds the execution context for one source reference.
//
// Parameter precedence, lowest first: fetch definition defaults, the
// reference's static params, then runtimeParams. When runtimeParams are
// present the merged params are additionally passed back through the
// template resolver with runtimeParams as the params scope, so a static
// param may itself reference a later-provided runtime value.
func (s *SourceResolver) ResolveSource(
	ctx context.Context,
	ref *domain.SourceRef,
	runtimeParams map[string]any,
) (*domain.ExecutionContext, error) {
	// 1. Look up the connector.
	def, err := s.catalog.Get(ref.Connector)
	if err != nil {
		return nil, err
	}

	// 2. Look up the named fetch.
	fetch, ok := def.Fetches[ref.Fetch]
	if !ok {
		return nil, &domain.UnknownFetchError{
			Connector: def.ID,
			Fetch:     ref.Fetch,
			Known:     def.FetchNames(),
		}
	}

	// 3. Resolve credentials.
	var credentials map[string]string
	if s.creds != nil {
		credentials = s.creds.Resolve(ctx, def)
	}

	// 4. Merge params: defaults <- static <- runtime.
	params := mergeParams(&fetch, ref.Params, runtimeParams)
	if len(runtimeParams) > 0 {
		tc := domain.NewTemplateContext(credentials, runtimeParams)
		params = tc.Resolve(params).(map[string]any)
	}

	// 5. Validate required params, collecting every missing key.
	if missing := missingRequired(&fetch, params); len(missing) > 0 {
		return nil, &domain.InvalidParamsError{
			Connector: def.ID,
			Fetch:     ref.Fetch,
			Missing:   missing,
		}
	}

	// 6. Compute the effective identity.
	sourceID := ref.EffectiveID()
	sourceName := ref.Name
	if sourceName == "" {
		sourceName = def.Name
	}

	logger.Debug("resolved source %s (connector=%s fetch=%s)", sourceID, def.ID, ref.Fetch)

	return &domain.ExecutionContext{
		Connector:   def,
		FetchName:   ref.Fetch,
		Fetch:       &fetch,
		Credentials: credentials,
		Params:      params,
		SourceID:    sourceID,
		SourceName:  sourceName,
	}, nil
}

// mergeParams overlays static and runtime params onto fetch defaults.
func mergeParams(fetch *domain.FetchDefinition, static, runtime map[string]any) map[string]any {
	merged := make(map[string]any)
	for name, p := range fetch.Params {
		if p.Default != nil {
			merged[name] = p.Default
		}
	}
	for k, v := range static {
		merged[k] = v
	}
	for k, v := range runtime {
		merged[k] = v
	}
	return merged
}

// missingRequired returns the sorted names of required params whose key
// is absent after merging. Presence is what counts; a falsy value with
// the key present is acceptable.
func missingRequired(fetch *domain.FetchDefinition, params map[string]any) []string {
	var missing []string
	for name, p := range fetch.Params {
		if !p.Required {
			continue
		}
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
