package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driving"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

// Ensure BriefingRunner implements the interface.
var _ driving.BriefingService = (*BriefingRunner)(nil)

// Generation defaults applied when the config store has no overrides.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.3
)

// BriefingRunner executes briefings end to end: fan-out gathering,
// prompt assembly, language model generation, and history recording.
type BriefingRunner struct {
	gatherer driving.ContextGatherer
	llm      driven.LLMService
	store    driven.BriefingStore

	maxTokens int
}

// NewBriefingRunner creates a runner. llm may be nil (Run then fails
// with domain.ErrLLMUnavailable); store may be nil (runs not recorded).
func NewBriefingRunner(
	gatherer driving.ContextGatherer,
	llm driven.LLMService,
	store driven.BriefingStore,
	maxTokens int,
) *BriefingRunner {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &BriefingRunner{
		gatherer:  gatherer,
		llm:       llm,
		store:     store,
		maxTokens: maxTokens,
	}
}

// Gather performs only the fan-out phase of cfg.
func (b *BriefingRunner) Gather(ctx context.Context, cfg *domain.BriefingConfig) []domain.ResultRecord {
	return b.gatherer.Gather(ctx, cfg.Sources, cfg.Params)
}

// Run executes cfg end to end and returns the stored briefing.
func (b *BriefingRunner) Run(ctx context.Context, cfg *domain.BriefingConfig) (*domain.Briefing, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("briefing config: %w", err)
	}
	if b.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	// 1. Gather context from every source.
	records := b.Gather(ctx, cfg)

	// 2. Tolerate partial failure, but not total failure.
	statuses := make([]domain.SourceStatus, len(records))
	successes := 0
	for i := range records {
		statuses[i] = domain.SourceStatus{
			SourceID:   records[i].SourceID,
			SourceName: records[i].SourceName,
			OK:         records[i].OK(),
			Error:      records[i].Error,
		}
		if records[i].OK() {
			successes++
		} else {
			logger.Warn("source %s failed: %s", records[i].SourceID, records[i].Error)
		}
	}
	if successes == 0 {
		return nil, domain.ErrNoContext
	}

	// 3. Assemble the prompt from the successful subset.
	prompt := ComposePrompt(cfg, records)

	// 4. Generate.
	output, err := b.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   b.maxTokens,
		Temperature: DefaultTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating briefing: %w", err)
	}

	briefing := domain.Briefing{
		ID:        uuid.NewString(),
		Name:      cfg.Name,
		Model:     b.llm.ModelName(),
		Prompt:    prompt,
		Output:    output,
		Sources:   statuses,
		CreatedAt: time.Now(),
	}

	// 5. Record the run when a store is configured.
	if b.store != nil {
		if err := b.store.Save(ctx, briefing); err != nil {
			logger.Warn("briefing not recorded: %v", err)
		}
	}

	return &briefing, nil
}

// ComposePrompt renders the instruction plus one labelled JSON section
// per successful source. Failed sources are listed by name so the model
// knows what is missing, without their errors' detail.
func ComposePrompt(cfg *domain.BriefingConfig, records []domain.ResultRecord) string {
	var sb strings.Builder

	instruction := cfg.Prompt
	if len(cfg.Params) > 0 {
		instruction = domain.NewTemplateContext(nil, cfg.Params).ResolveString(instruction)
	}
	sb.WriteString(instruction)
	sb.WriteString("\n\n# Context\n")

	var failed []string
	for i := range records {
		if !records[i].OK() {
			failed = append(failed, records[i].SourceName)
			continue
		}
		data, err := json.MarshalIndent(records[i].Data, "", "  ")
		if err != nil {
			data = []byte(fmt.Sprintf("%v", records[i].Data))
		}
		fmt.Fprintf(&sb, "\n## %s\n%s\n", records[i].SourceName, data)
	}

	if len(failed) > 0 {
		fmt.Fprintf(&sb, "\n(Unavailable sources: %s)\n", strings.Join(failed, ", "))
	}

	return sb.String()
}

// LoadBriefingConfig reads and validates a YAML briefing config file.
func LoadBriefingConfig(path string) (*domain.BriefingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading briefing file %s: %w", path, err)
	}

	var cfg domain.BriefingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing briefing file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("briefing file %s: %w", path, err)
	}
	return &cfg, nil
}
