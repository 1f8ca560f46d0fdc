package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/brief-cli/internal/adapters/driven/storage/memory"
)

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name        string
		settings    Settings
		wantNil     bool
		wantErr     bool
		errContains string
	}{
		{
			name:     "unconfigured settings returns nil",
			settings: Settings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: Settings{
				Provider: ProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "llama3.2",
			},
		},
		{
			name: "anthropic provider creates service",
			settings: Settings{
				Provider: ProviderAnthropic,
				APIKey:   "test-key",
			},
		},
		{
			name: "anthropic without key returns error",
			settings: Settings{
				Provider: ProviderAnthropic,
			},
			wantErr:     true,
			errContains: "API key",
		},
		{
			name: "unknown provider returns error",
			settings: Settings{
				Provider: Provider("bedrock"),
			},
			wantErr:     true,
			errContains: "unsupported LLM provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if svc != nil {
				defer svc.Close()
			}

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Run("defaults to ollama", func(t *testing.T) {
		settings := SettingsFromConfig(memory.NewConfigStore())
		assert.Equal(t, ProviderOllama, settings.Provider)
	})

	t.Run("reads configured provider and model", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "env-key")
		cfg := memory.NewConfigStore()
		require.NoError(t, cfg.Set("llm.provider", "anthropic"))
		require.NoError(t, cfg.Set("llm.model", "claude-sonnet-4-5"))

		settings := SettingsFromConfig(cfg)
		assert.Equal(t, ProviderAnthropic, settings.Provider)
		assert.Equal(t, "claude-sonnet-4-5", settings.Model)
		assert.Equal(t, "env-key", settings.APIKey)
	})
}

func TestCreateAndValidateLLMService(t *testing.T) {
	t.Run("unconfigured returns nil without error", func(t *testing.T) {
		svc, err := CreateAndValidateLLMService(Settings{})
		require.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("creation failure wraps guidance", func(t *testing.T) {
		_, err := CreateAndValidateLLMService(Settings{Provider: ProviderAnthropic})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "brief config set")
	})
}

func TestValidateLLMConfig(t *testing.T) {
	t.Run("unconfigured is valid", func(t *testing.T) {
		assert.NoError(t, ValidateLLMConfig(Settings{}))
	})

	t.Run("unknown provider is invalid", func(t *testing.T) {
		assert.Error(t, ValidateLLMConfig(Settings{Provider: Provider("unknown")}))
	})
}
