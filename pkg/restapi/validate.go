package restapi

import "github.com/sectionforge/sectionforge/pkg/apperr"

// Bounds on the LLM request parameters a principal can set or override,
// per spec.md §3.
const (
	minTemperature = 0.0
	maxTemperature = 2.0
	minMaxTokens   = 100
	maxMaxTokens   = 100000
)

// validateLLMParams enforces the temperature/max_tokens bounds of
// spec.md §3 at every entry point that accepts them (config, generate,
// batch start), per C9's role as the input validation layer.
func validateLLMParams(temperature float64, maxTokens int) error {
	if temperature < minTemperature || temperature > maxTemperature {
		return apperr.Validation("temperature must be between %g and %g", minTemperature, maxTemperature)
	}
	if maxTokens < minMaxTokens || maxTokens > maxMaxTokens {
		return apperr.Validation("max_tokens must be between %d and %d", minMaxTokens, maxMaxTokens)
	}
	return nil
}
