package pipeline

import (
	"fmt"
	"strings"

	"github.com/fwojciec/civet"
)

// Validation thresholds. Fractions refer to the share of items missing a
// required field; ratios compare the current item count to the previous
// run's count for the same key.
const (
	requiredErrorFraction = 0.5
	requiredWarnFraction  = 0.1
	driftErrorRatio       = 0.5
	driftWarnRatio        = 0.8
	warningDensityFactor  = 2
)

var _ civet.Validator = (*Validator)(nil)

// Validator scores raw extraction results against the manifest's declared
// expectations and the previous run's item count. Each check contributes
// issues independently; a result is valid when no issue reaches error
// severity.
type Validator struct{}

// NewValidator returns a Validator with the default thresholds.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs all quality checks. previousItemCount of zero means no
// baseline is available and the drift check is skipped.
func (v *Validator) Validate(result *civet.RawExtractionResult, manifest *civet.StructuralManifest, previousItemCount int) *civet.ValidationResult {
	vr := &civet.ValidationResult{}

	if !result.Success {
		msg := "extraction reported failure"
		if len(result.Errors) > 0 {
			msg = "extraction reported failure: " + strings.Join(result.Errors, "; ")
		}
		vr.Issues = append(vr.Issues, civet.ValidationIssue{Severity: civet.SeverityError, Message: msg})
	}
	if result.ItemCount() == 0 {
		vr.Issues = append(vr.Issues, civet.ValidationIssue{Severity: civet.SeverityError, Message: "extraction produced no items"})
	}

	vr.Issues = append(vr.Issues, requiredFieldIssues(result, manifest)...)
	vr.Issues = append(vr.Issues, driftIssues(result, previousItemCount)...)

	if len(result.Warnings) > warningDensityFactor*result.ItemCount() {
		vr.Issues = append(vr.Issues, civet.ValidationIssue{
			Severity: civet.SeverityWarning,
			Message:  fmt.Sprintf("%d extraction warnings for %d items", len(result.Warnings), result.ItemCount()),
		})
	}

	vr.Valid = len(vr.ErrorMessages()) == 0
	return vr
}

// requiredFieldIssues checks what share of items is missing each required
// field. Skipped entirely when there are no items or no required fields.
func requiredFieldIssues(result *civet.RawExtractionResult, manifest *civet.StructuralManifest) []civet.ValidationIssue {
	if result.ItemCount() == 0 {
		return nil
	}

	var issues []civet.ValidationIssue
	for _, field := range manifest.ExtractionRules.RequiredFields() {
		fraction := result.MissingFieldFraction(field)
		switch {
		case fraction > requiredErrorFraction:
			issues = append(issues, civet.ValidationIssue{
				Severity: civet.SeverityError,
				Message:  fmt.Sprintf("required field %q missing in %.0f%% of items", field, fraction*100),
			})
		case fraction > requiredWarnFraction:
			issues = append(issues, civet.ValidationIssue{
				Severity: civet.SeverityWarning,
				Message:  fmt.Sprintf("required field %q missing in %.0f%% of items", field, fraction*100),
			})
		}
	}
	return issues
}

// driftIssues compares the current item count to the previous run's count.
// Skipped when no baseline exists or the current result has no items (an
// empty result is already an error from the completeness check).
func driftIssues(result *civet.RawExtractionResult, previousItemCount int) []civet.ValidationIssue {
	current := result.ItemCount()
	if previousItemCount <= 0 || current == 0 {
		return nil
	}

	ratio := float64(current) / float64(previousItemCount)
	switch {
	case ratio < driftErrorRatio:
		return []civet.ValidationIssue{{
			Severity: civet.SeverityError,
			Message:  fmt.Sprintf("item count dropped dramatically from %d to %d", previousItemCount, current),
		}}
	case ratio < driftWarnRatio:
		return []civet.ValidationIssue{{
			Severity: civet.SeverityWarning,
			Message:  fmt.Sprintf("item count dropped from %d to %d", previousItemCount, current),
		}}
	}
	return nil
}
