// Package verify is the HTTP client for the external claim/media
// verification backend. The backend is a black-box collaborator; this
// package only shapes requests and decodes its JSON responses.
package verify

import "fmt"

// Verdict vocabulary returned by the backend
const (
	VerdictTrue        = "true"
	VerdictLikelyTrue  = "likely_true"
	VerdictFalse       = "false"
	VerdictLikelyFalse = "likely_false"
	VerdictMixed       = "mixed"
	VerdictUnclear     = "unclear"
)

// VerifyRequest is the quick claim check input. At least one of Claim or
// URL must be set
type VerifyRequest struct {
	Claim string `json:"claim,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ClaimResult is the analyzer verdict for a quick check
type ClaimResult struct {
	Verdict              string   `json:"verdict"`
	Confidence           float64  `json:"confidence"`
	SupportingSources    []string `json:"supporting_sources"`
	ContradictingSources []string `json:"contradicting_sources"`
	Reasoning            []string `json:"reasoning"`
}

// VerifyResponse is the POST /verify envelope
type VerifyResponse struct {
	OK     bool          `json:"ok"`
	Input  VerifyRequest `json:"input"`
	Result ClaimResult   `json:"result"`
}

// UniversalCheckRequest is the deep check input. With a file attached the
// backend runs media analysis; otherwise a deeper text/URL pass. File
// content types must have an image/ or video/ prefix
type UniversalCheckRequest struct {
	Claim string
	URL   string
	Deep  bool
	File  FileUpload
}

// FileUpload describes an optional media attachment
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// UniversalReport is the POST /universal-check response. Media and text
// analyses share the envelope; the analysis type decides which of the
// optional slices are populated
type UniversalReport struct {
	Status           string   `json:"status"`
	AnalysisType     string   `json:"analysis_type"`
	MediaKind        string   `json:"media_kind,omitempty"`
	Source           string   `json:"source,omitempty"`
	Summary          string   `json:"summary"`
	Verdict          string   `json:"verdict"`
	Confidence       float64  `json:"confidence"`
	KeySignals       []string `json:"key_signals,omitempty"`
	Cautions         []string `json:"cautions,omitempty"`
	KeyPoints        []string `json:"key_points,omitempty"`
	SuggestedSources []string `json:"suggested_sources,omitempty"`
}

// APIError is a non-2xx backend response
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("verify backend: unexpected status %d", e.Status)
	}
	return "verify backend: " + e.Detail
}
