package provider

import "strings"

// Disposition says what the invoker does after a candidate fails.
type Disposition int

const (
	// Fatal aborts the fallback loop and propagates the error.
	Fatal Disposition = iota
	// Transient skips to the next candidate.
	Transient
)

func (d Disposition) String() string {
	if d == Transient {
		return "transient"
	}
	return "fatal"
}

// Failure reasons attached to transient classifications.
const (
	ReasonRateLimited            = "rate_limited"
	ReasonQuotaExhausted         = "quota_exhausted"
	ReasonModelNotFound          = "model_not_found"
	ReasonInvalidArgument        = "invalid_argument"
	ReasonUnsupportedInstruction = "unsupported_instruction"
)

// Marker maps a substring of a provider error message to a failure reason.
type Marker struct {
	Text   string
	Reason string
}

// TransientMarkers is the complete list of error-message markers that make a
// candidate failure safe to retry on the next candidate. Order matters only
// for which reason is reported when several markers match.
var TransientMarkers = []Marker{
	{Text: "RESOURCE_EXHAUSTED", Reason: ReasonQuotaExhausted},
	{Text: "429", Reason: ReasonRateLimited},
	{Text: "NOT_FOUND", Reason: ReasonModelNotFound},
	{Text: "404", Reason: ReasonModelNotFound},
	{Text: "INVALID_ARGUMENT", Reason: ReasonInvalidArgument},
	{Text: "400", Reason: ReasonInvalidArgument},
	{Text: "Developer instruction is not", Reason: ReasonUnsupportedInstruction},
}

// Classification is the result of looking an error up in TransientMarkers.
type Classification struct {
	Disposition Disposition
	Reason      string
}

// Classify decides whether err allows falling back to another candidate.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Disposition: Fatal}
	}
	text := err.Error()
	for _, m := range TransientMarkers {
		if strings.Contains(text, m.Text) {
			return Classification{Disposition: Transient, Reason: m.Reason}
		}
	}
	return Classification{Disposition: Fatal}
}
