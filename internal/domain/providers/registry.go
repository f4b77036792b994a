// Package providers contains the built-in analysis providers and the
// registry that instantiates them from a repository's review config.
package providers

import (
	"log/slog"

	"prscore.dev/pkg/prscore/internal/adapter"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

// Registry builds providers from review config selections.
type Registry interface {
	Build(selections []m.ProviderSelection) []domain.Provider
}

type registry struct {
	runner adapter.CommandRunnerAdapter
}

// NewRegistry creates a Registry. runner backs command providers; nil
// disables them.
func NewRegistry(runner adapter.CommandRunnerAdapter) Registry {
	return &registry{runner: runner}
}

// Build returns one provider per recognised selection, in declaration order.
// A selection with a command is an external analyzer whatever its id.
// Unknown ids and duplicates are logged and skipped.
func (r *registry) Build(selections []m.ProviderSelection) []domain.Provider {
	providers := make([]domain.Provider, 0, len(selections))
	seen := make(map[string]struct{}, len(selections))

	for _, sel := range selections {
		if _, dup := seen[sel.ID]; dup {
			slog.Warn("Skipping duplicate provider", "provider", sel.ID)
			continue
		}

		var provider domain.Provider

		switch {
		case sel.Command != "":
			if r.runner == nil {
				slog.Warn("Skipping command provider without a runner", "provider", sel.ID)
				continue
			}

			provider = NewCommandProvider(CommandOptions{
				ID:      sel.ID,
				Command: sel.Command,
				Args:    append([]string(nil), sel.Args...),
				Timeout: sel.Timeout,
				Enabled: sel.Enabled,
			}, r.runner)
		case sel.ID == RulesID:
			provider = NewRulesProvider(sel.Enabled)
		case sel.ID == ChangeSizeID:
			provider = NewChangeSizeProvider(sel.Enabled, ChangeSizeOptions{})
		default:
			slog.Warn("Skipping unknown provider", "provider", sel.ID)
			continue
		}

		seen[sel.ID] = struct{}{}
		providers = append(providers, provider)
	}

	return providers
}
