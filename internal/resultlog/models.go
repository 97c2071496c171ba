package resultlog

import "time"

// Record is one completed submission outcome. Records are immutable once
// appended: the store exposes no update or delete operations.
//
// Prompt and Brand are the backend-echoed values, not the local draft, so
// the log reflects exactly what the backend processed. Position is the
// 1-based index of the first mention; zero or negative means not found.
// Raw carries the backend's raw payload marker (notably "API_ERROR") and
// Error is set only when the attempt classified as a mention error.
type Record struct {
	ID        string
	SessionID string
	Prompt    string
	Brand     string
	Mentioned bool
	Position  int
	Raw       string
	Error     string
	CreatedAt time.Time
}
