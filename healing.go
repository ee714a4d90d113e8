package civet

// HealingDecision reports whether a degraded extraction warrants a fresh
// structural analysis. Ephemeral, computed per run; it informs the
// orchestrator but never mutates the manifest store directly.
type HealingDecision struct {
	ShouldHeal bool              `json:"shouldHeal"`
	Reason     string            `json:"reason"`
	Validation *ValidationResult `json:"validation,omitempty"`
}

// HealingPolicy decides whether re-analysis is warranted for a run.
//
// healAttempted is the anti-infinite-loop state: once a run has healed,
// implementations must refuse a second heal regardless of validity, because
// analysis calls are costly and a flapping site could otherwise retry
// without bound.
type HealingPolicy interface {
	Evaluate(result *RawExtractionResult, manifest *StructuralManifest, previousItemCount int, healAttempted bool) *HealingDecision
}
