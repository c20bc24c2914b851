package app

import (
	"testing"

	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestModuleGraph(t *testing.T) {
	tests := []struct {
		name      string
		configure func(cfg *config.Config)
	}{
		{name: "http only", configure: func(*config.Config) {}},
		{name: "with postgres", configure: func(cfg *config.Config) {
			cfg.Postgres.Host = "localhost"
		}},
		{name: "with telegram", configure: func(cfg *config.Config) {
			cfg.Telegram.Token = "123:abc"
		}},
		{name: "everything", configure: func(cfg *config.Config) {
			cfg.Postgres.Host = "localhost"
			cfg.Telegram.Token = "123:abc"
			cfg.Redis.Addr = "localhost:6379"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.LLM.Provider = "openai"
			tt.configure(cfg)

			require.NoError(t, fx.ValidateApp(fx.NopLogger, Module(cfg)))
		})
	}
}
