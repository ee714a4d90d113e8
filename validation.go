package civet

// Severity classifies a validation issue.
type Severity string

// Severity constants. Only error-severity issues make a result invalid.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationIssue is one finding from scoring an extraction result.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ValidationResult is the outcome of scoring one extraction run against the
// manifest's expectations and the historical item count. Ephemeral, computed
// per run.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues"`
}

// ErrorMessages returns the messages of all error-severity issues.
func (r *ValidationResult) ErrorMessages() []string {
	var msgs []string
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			msgs = append(msgs, issue.Message)
		}
	}
	return msgs
}

// WarningMessages returns the messages of all warning-severity issues.
func (r *ValidationResult) WarningMessages() []string {
	var msgs []string
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			msgs = append(msgs, issue.Message)
		}
	}
	return msgs
}

// Validator scores a raw extraction result. previousItemCount is the item
// count of the preceding run for the same key, used for drift detection;
// zero means no baseline is available and drift checks are skipped.
type Validator interface {
	Validate(result *RawExtractionResult, manifest *StructuralManifest, previousItemCount int) *ValidationResult
}
