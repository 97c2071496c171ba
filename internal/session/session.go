package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brandlens/brandlens/internal/export"
	"github.com/brandlens/brandlens/internal/mentions"
	"github.com/brandlens/brandlens/internal/resultlog"
)

// Checker abstracts the backend client for testing.
type Checker interface {
	Check(ctx context.Context, prompt, brand string) (*mentions.CheckResponse, error)
}

// ErrValidation reports a pre-flight rejection: the draft prompt or brand is
// empty after trimming. The banner carries the combined user-facing message.
var ErrValidation = errors.New("prompt and brand are required")

// ErrBusy reports a submit attempt while another submission is in flight.
// The attempt is dropped, not queued; UI surfaces ignore it silently.
var ErrBusy = errors.New("submission already in flight")

// Draft is the currently edited, not-yet-submitted input pair.
type Draft struct {
	Prompt string
	Brand  string
}

// Session owns one operator's submission state: the editable draft, the
// single current banner message, the in-flight gate, and a view over the
// session's slice of the result log.
//
// The draft is transient and mutable; the log is append-only. They are kept
// as separate structures so that nothing ever mutates an appended record.
type Session struct {
	id      string
	checker Checker
	log     *resultlog.Store

	mu       sync.Mutex
	draft    Draft
	banner   string
	inFlight bool
}

func New(id string, checker Checker, log *resultlog.Store) *Session {
	return &Session{id: id, checker: checker, log: log}
}

func (s *Session) ID() string { return s.id }

// UpdatePrompt replaces the draft prompt. Always permitted, including while
// a submission is in flight.
func (s *Session) UpdatePrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Prompt = text
}

// UpdateBrand replaces the draft brand.
func (s *Session) UpdateBrand(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Brand = text
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Banner returns the current error/notice message, empty when clear.
func (s *Session) Banner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// SetNotice replaces the banner outside the submission lifecycle (used for
// the empty-export notice). The next submission attempt clears it.
func (s *Session) SetNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = msg
}

func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit runs the full lifecycle: validate, gate, call the backend, classify,
// fold into the log. It blocks until the attempt resolves. ErrBusy means the
// attempt was dropped because another submission holds the gate; ErrValidation
// means it never reached the network (banner set, draft kept).
//
// Draft handling on resolution: cleared for every classified outcome, kept
// on a transport failure so the operator can retry without retyping.
func (s *Session) Submit(ctx context.Context) (out Outcome, err error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return Outcome{}, ErrBusy
	}

	if strings.TrimSpace(s.draft.Prompt) == "" || strings.TrimSpace(s.draft.Brand) == "" {
		s.banner = msgValidation
		s.mu.Unlock()
		return Outcome{}, ErrValidation
	}

	s.banner = ""
	s.inFlight = true
	prompt, brand := s.draft.Prompt, s.draft.Brand
	s.mu.Unlock()

	// The gate, not the lock, covers the network call: draft edits stay
	// permitted while the request is pending.
	resp, callErr := s.checker.Check(ctx, prompt, brand)
	out = classify(resp, callErr)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if out.Record != nil {
		rec := *out.Record
		rec.ID = uuid.New().String()
		rec.SessionID = s.id
		rec.CreatedAt = time.Now().UTC()
		if appendErr := s.log.Append(rec); appendErr != nil {
			slog.Error("appending result record", "session", s.id, "error", appendErr)
		}
		out.Record = &rec
	}

	if out.Kind != TransportFailure {
		s.draft = Draft{}
	}
	if out.Message != "" {
		s.banner = out.Message
	}

	slog.Debug("submission resolved", "session", s.id, "kind", out.Kind)
	return out, nil
}

// Results returns the session's records in submission-completion order.
func (s *Session) Results() ([]resultlog.Record, error) {
	return s.log.List(s.id)
}

// ExportCSV serializes the session's log. Returns export.ErrNoResults when
// there is nothing to export; callers surface that as a notice, not a file.
func (s *Session) ExportCSV() ([]byte, error) {
	records, err := s.log.List(s.id)
	if err != nil {
		return nil, err
	}
	return export.CSV(records)
}
