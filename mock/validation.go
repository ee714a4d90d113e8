package mock

import "github.com/fwojciec/civet"

var _ civet.Validator = (*Validator)(nil)

// Validator is a mock implementation of civet.Validator.
type Validator struct {
	ValidateFn func(result *civet.RawExtractionResult, manifest *civet.StructuralManifest, previousItemCount int) *civet.ValidationResult
}

func (v *Validator) Validate(result *civet.RawExtractionResult, manifest *civet.StructuralManifest, previousItemCount int) *civet.ValidationResult {
	return v.ValidateFn(result, manifest, previousItemCount)
}

var _ civet.HealingPolicy = (*HealingPolicy)(nil)

// HealingPolicy is a mock implementation of civet.HealingPolicy.
type HealingPolicy struct {
	EvaluateFn func(result *civet.RawExtractionResult, manifest *civet.StructuralManifest, previousItemCount int, healAttempted bool) *civet.HealingDecision
}

func (p *HealingPolicy) Evaluate(result *civet.RawExtractionResult, manifest *civet.StructuralManifest, previousItemCount int, healAttempted bool) *civet.HealingDecision {
	return p.EvaluateFn(result, manifest, previousItemCount, healAttempted)
}
