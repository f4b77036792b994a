package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

func ids(providers []domain.Provider) []string {
	out := make([]string, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.ID())
	}

	return out
}

func TestRegistry_Build(t *testing.T) {
	registry := NewRegistry(&mockCommandRunner{})

	providers := registry.Build([]m.ProviderSelection{
		{ID: "changesize", Enabled: false},
		{ID: "semgrep", Enabled: true},
		{ID: "llm", Enabled: true, Command: "review-bot", Timeout: time.Minute},
		{ID: "rules", Enabled: true},
		{ID: "rules", Enabled: false},
	})

	require.Equal(t, []string{"changesize", "llm", "rules"}, ids(providers))
	assert.False(t, providers[0].Enabled())
	assert.True(t, providers[2].Enabled())

	timed, ok := providers[1].(domain.TimeoutProvider)
	require.True(t, ok)
	assert.Equal(t, time.Minute, timed.Timeout())
}

func TestRegistry_BuildWithoutRunner(t *testing.T) {
	providers := NewRegistry(nil).Build([]m.ProviderSelection{
		{ID: "llm", Enabled: true, Command: "review-bot"},
		{ID: "rules", Enabled: true},
	})

	assert.Equal(t, []string{"rules"}, ids(providers))
}

func TestRegistry_BuildDefaults(t *testing.T) {
	providers := NewRegistry(nil).Build(m.DefaultReviewConfig().Providers)

	assert.Equal(t, []string{RulesID, ChangeSizeID}, ids(providers))
}
