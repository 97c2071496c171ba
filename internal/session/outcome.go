package session

import (
	"github.com/brandlens/brandlens/internal/mentions"
	"github.com/brandlens/brandlens/internal/resultlog"
)

// OutcomeKind classifies one resolved submission. Every call to the backend
// resolves to exactly one kind; consumers branch on the kind instead of
// re-inspecting the raw response.
type OutcomeKind int

const (
	// Success: well-formed response, no error field, raw is not the
	// API_ERROR sentinel. A record is appended.
	Success OutcomeKind = iota

	// BackendError: the response carries a non-empty error field. An
	// error-only response is not a data point, so nothing is appended.
	BackendError

	// MentionError: upstream generation failed (raw == "API_ERROR") but the
	// response still echoes prompt/brand, so a record is appended with its
	// error field populated.
	MentionError

	// TransportFailure: the call never produced a parseable response.
	// Nothing is appended and the draft is preserved for retry.
	TransportFailure
)

// Outcome is the normalized result of one submission. Message is the
// user-visible banner text (empty for Success); Record is non-nil for the
// kinds that produce a data point.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Record  *resultlog.Record
}

// User-visible messages. The upstream fallback string matches the backend
// convention for the API_ERROR sentinel.
const (
	msgValidation       = "Please enter both a prompt and a brand name"
	msgConnectivity     = "Could not reach the mention service. Is the backend running?"
	msgUpstreamFallback = "API Error: Service temporarily unavailable"

	// NoticeNothingToExport is shown when a CSV export finds an empty log.
	NoticeNothingToExport = "No results to export yet"
)

// classify maps a backend call result onto exactly one outcome kind.
// A non-empty error field wins over the raw sentinel: a backend may set
// both, and error is authoritative.
func classify(resp *mentions.CheckResponse, err error) Outcome {
	if err != nil {
		return Outcome{Kind: TransportFailure, Message: msgConnectivity}
	}

	if resp.Error != "" {
		return Outcome{Kind: BackendError, Message: resp.Error}
	}

	if resp.Raw == mentions.RawAPIError {
		msg := resp.Error
		if msg == "" {
			msg = msgUpstreamFallback
		}
		return Outcome{
			Kind:    MentionError,
			Message: msg,
			// Echoed prompt/brand from the response, not the outgoing
			// request, so the log reflects what the backend processed.
			Record: &resultlog.Record{
				Prompt:    resp.Prompt,
				Brand:     resp.Brand,
				Mentioned: resp.Mentioned,
				Position:  resp.Position,
				Raw:       resp.Raw,
				Error:     msg,
			},
		}
	}

	return Outcome{
		Kind: Success,
		Record: &resultlog.Record{
			Prompt:    resp.Prompt,
			Brand:     resp.Brand,
			Mentioned: resp.Mentioned,
			Position:  resp.Position,
			Raw:       resp.Raw,
		},
	}
}
