package civet

import (
	"context"
	"fmt"
	"time"
)

// DataType identifies the kind of civic records a source page carries.
type DataType string

// DataType constants. Each corresponds to a family of downstream domain
// records; the extraction core itself only uses the value as part of the
// manifest key and to pick an analysis prompt template.
const (
	DataTypePropositions    DataType = "propositions"
	DataTypeMeetings        DataType = "meetings"
	DataTypeRepresentatives DataType = "representatives"
	DataTypeCampaignFinance DataType = "campaign_finance"
	DataTypeLobbying        DataType = "lobbying"
)

// Valid reports whether dt is one of the known data types.
func (dt DataType) Valid() bool {
	switch dt {
	case DataTypePropositions, DataTypeMeetings, DataTypeRepresentatives,
		DataTypeCampaignFinance, DataTypeLobbying:
		return true
	}
	return false
}

// ParseDataType converts a string into a DataType.
// Returns EINVALID if the value is not a known data type.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(s)
	if !dt.Valid() {
		return "", Errorf(EINVALID, "unknown data type %q", s)
	}
	return dt, nil
}

// ExtractionMethod selects how a field value is read from a matched element.
type ExtractionMethod string

// ExtractionMethod constants.
const (
	MethodText      ExtractionMethod = "text"
	MethodAttribute ExtractionMethod = "attribute"
	MethodRegex     ExtractionMethod = "regex"
)

// TransformKind identifies a value transformation applied after extraction.
type TransformKind string

// TransformKind constants. Semantics live in the transform package.
const (
	TransformTrim         TransformKind = "trim"
	TransformLowercase    TransformKind = "lowercase"
	TransformUppercase    TransformKind = "uppercase"
	TransformStripHTML    TransformKind = "strip_html"
	TransformURLResolve   TransformKind = "url_resolve"
	TransformRegexReplace TransformKind = "regex_replace"
	TransformNameFormat   TransformKind = "name_format"
	TransformDateParse    TransformKind = "date_parse"
)

// TransformSpec describes one value transformation. Pattern, Replacement and
// Flags are only meaningful for regex_replace.
type TransformSpec struct {
	Kind        TransformKind `json:"kind"`
	Pattern     string        `json:"pattern,omitempty"`
	Replacement string        `json:"replacement,omitempty"`
	Flags       string        `json:"flags,omitempty"`
}

// FieldMapping is one extraction instruction: which descendant to select
// within an item, how to read a value from it, and how to post-process it.
type FieldMapping struct {
	FieldName string           `json:"fieldName"`
	Selector  string           `json:"selector"`
	Method    ExtractionMethod `json:"extractionMethod"`

	// Attribute is read when Method is MethodAttribute.
	Attribute string `json:"attribute,omitempty"`

	// RegexPattern and RegexGroup apply when Method is MethodRegex.
	// RegexGroup zero selects the full match.
	RegexPattern string `json:"regexPattern,omitempty"`
	RegexGroup   int    `json:"regexGroup,omitempty"`

	Required     bool           `json:"required"`
	DefaultValue string         `json:"defaultValue,omitempty"`
	Transform    *TransformSpec `json:"transform,omitempty"`
}

// Validate returns an error if the mapping cannot be applied.
func (m *FieldMapping) Validate() error {
	if m.FieldName == "" {
		return Errorf(EINVALID, "field mapping name required")
	}
	switch m.Method {
	case MethodText:
	case MethodAttribute:
		if m.Attribute == "" {
			return Errorf(EINVALID, "field %q: attribute required for attribute extraction", m.FieldName)
		}
	case MethodRegex:
		if m.RegexPattern == "" {
			return Errorf(EINVALID, "field %q: regex pattern required for regex extraction", m.FieldName)
		}
	default:
		return Errorf(EINVALID, "field %q: unknown extraction method %q", m.FieldName, m.Method)
	}
	return nil
}

// PreprocessingAction identifies a DOM mutation applied before extraction.
type PreprocessingAction string

// PreprocessingAction constants. remove_elements is the only action the core
// extractor performs; the enum leaves room for future actions.
const (
	PreprocessRemoveElements PreprocessingAction = "remove_elements"
)

// PreprocessingStep is one DOM preparation step, e.g. removing ad containers
// before field extraction.
type PreprocessingStep struct {
	Action   PreprocessingAction `json:"action"`
	Selector string              `json:"selector"`
}

// ExtractionRules is the deterministic recipe portion of a manifest: the
// selectors scoping the repeating region plus the per-field instructions.
// The structural analyzer produces these; the extractor replays them.
type ExtractionRules struct {
	ContainerSelector string              `json:"containerSelector"`
	ItemSelector      string              `json:"itemSelector"`
	FieldMappings     []FieldMapping      `json:"fieldMappings"`
	Preprocessing     []PreprocessingStep `json:"preprocessing,omitempty"`
}

// Validate returns an error if the rules are not runnable.
func (r *ExtractionRules) Validate() error {
	if r.ContainerSelector == "" {
		return Errorf(EINVALID, "container selector required")
	}
	if r.ItemSelector == "" {
		return Errorf(EINVALID, "item selector required")
	}
	if len(r.FieldMappings) == 0 {
		return Errorf(EINVALID, "at least one field mapping required")
	}
	for i := range r.FieldMappings {
		if err := r.FieldMappings[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RequiredFields returns the names of all mappings marked required,
// in declaration order.
func (r *ExtractionRules) RequiredFields() []string {
	var names []string
	for i := range r.FieldMappings {
		if r.FieldMappings[i].Required {
			names = append(names, r.FieldMappings[i].FieldName)
		}
	}
	return names
}

// StructuralManifest is the versioned extraction recipe for one
// (region, source URL, data type) key. Manifests are created only by
// structural analysis and never edited in place: a new page structure or
// degraded quality produces a new version, preserving history for audit
// and rollback. Counters and timestamps are the only mutable columns.
type StructuralManifest struct {
	ID        string   `json:"id"`
	RegionID  string   `json:"regionId"`
	SourceURL string   `json:"sourceUrl"`
	DataType  DataType `json:"dataType"`

	// Version increases monotonically per key. StructureHash fingerprints
	// the HTML structure the manifest was derived from; PromptHash and
	// PromptVersion pin the analysis prompt for reproducibility.
	Version       int    `json:"version"`
	StructureHash string `json:"structureHash"`
	PromptHash    string `json:"promptHash"`
	PromptVersion string `json:"promptVersion"`

	ExtractionRules

	// Confidence is the analyzer's 0-1 certainty in the ruleset, assigned at
	// analysis time. SuccessCount and FailureCount are runtime feedback.
	Confidence   float64 `json:"confidence"`
	SuccessCount int     `json:"successCount"`
	FailureCount int     `json:"failureCount"`

	// IsActive: at most one manifest per key is active at any time.
	IsActive      bool       `json:"isActive"`
	LastUsedAt    *time.Time `json:"lastUsedAt,omitempty"`
	LastCheckedAt *time.Time `json:"lastCheckedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Key returns the manifest's source key for logs and messages.
func (m *StructuralManifest) Key() string {
	return fmt.Sprintf("%s %s %s", m.RegionID, m.DataType, m.SourceURL)
}

// Validate returns an error if the manifest contains invalid fields.
func (m *StructuralManifest) Validate() error {
	if m.RegionID == "" {
		return Errorf(EINVALID, "manifest region ID required")
	}
	if m.SourceURL == "" {
		return Errorf(EINVALID, "manifest source URL required")
	}
	if !m.DataType.Valid() {
		return Errorf(EINVALID, "manifest data type %q invalid", m.DataType)
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return Errorf(EINVALID, "manifest confidence %v outside [0,1]", m.Confidence)
	}
	return m.ExtractionRules.Validate()
}

// ManifestService manages versioned persistence of structural manifests.
type ManifestService interface {
	// FindLatest returns the active manifest for the key, preferring the
	// highest version. Returns ENOTFOUND if no active manifest exists.
	FindLatest(ctx context.Context, regionID, sourceURL string, dataType DataType) (*StructuralManifest, error)

	// Save persists a new manifest version: every currently active version
	// for the key is deactivated and the new row is inserted with the next
	// version number and zeroed counters, atomically. The passed manifest is
	// updated with its assigned ID, version and timestamps.
	Save(ctx context.Context, m *StructuralManifest) error

	// IncrementSuccess bumps the success counter and refreshes lastUsedAt.
	// No-op if the manifest id does not exist.
	IncrementSuccess(ctx context.Context, id string) error

	// IncrementFailure bumps the failure counter.
	// No-op if the manifest id does not exist.
	IncrementFailure(ctx context.Context, id string) error

	// History returns versions for the key, newest first, capped at limit.
	// A non-positive limit applies the default of 10.
	History(ctx context.Context, regionID, sourceURL string, dataType DataType, limit int) ([]*StructuralManifest, error)

	// MarkChecked updates lastCheckedAt only.
	// No-op if the manifest id does not exist.
	MarkChecked(ctx context.Context, id string) error
}
