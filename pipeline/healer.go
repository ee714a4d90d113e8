package pipeline

import (
	"strings"

	"github.com/fwojciec/civet"
)

var _ civet.HealingPolicy = (*Healer)(nil)

// Healer decides whether a degraded extraction warrants one fresh structural
// analysis. A run may heal at most once: with healAttempted set the answer
// is always no, whatever the validation outcome.
type Healer struct {
	Validator civet.Validator
}

// NewHealer returns a Healer that scores results with the given validator.
func NewHealer(validator civet.Validator) *Healer {
	return &Healer{Validator: validator}
}

// Evaluate validates the result and decides on healing. Validation always
// runs, even when healing is already spent, so the caller can still read the
// quality outcome off the decision.
func (h *Healer) Evaluate(result *civet.RawExtractionResult, manifest *civet.StructuralManifest, previousItemCount int, healAttempted bool) *civet.HealingDecision {
	validation := h.Validator.Validate(result, manifest, previousItemCount)

	if healAttempted {
		return &civet.HealingDecision{
			ShouldHeal: false,
			Reason:     "healing already attempted for this run",
			Validation: validation,
		}
	}
	if validation.Valid {
		return &civet.HealingDecision{
			ShouldHeal: false,
			Reason:     "extraction passed validation",
			Validation: validation,
		}
	}
	return &civet.HealingDecision{
		ShouldHeal: true,
		Reason:     "validation failed: " + strings.Join(validation.ErrorMessages(), "; "),
		Validation: validation,
	}
}
