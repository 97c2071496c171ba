package export

import (
	"errors"
	"strconv"
	"strings"

	"github.com/brandlens/brandlens/internal/resultlog"
)

// ErrNoResults is returned when there is nothing to export. Callers surface
// it as a notice, not a failure.
var ErrNoResults = errors.New("no results to export")

// CSV serializes the result log. The column set and quoting are fixed:
// Prompt and Brand are always double-quoted (internal quotes doubled),
// Mentioned renders as Yes/No, and Position is the raw integer including
// non-positive sentinels. The dash shown for absent positions belongs to
// the table view only.
func CSV(records []resultlog.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoResults
	}

	var b strings.Builder
	b.WriteString("Prompt,Brand,Mentioned,Position\n")
	for _, rec := range records {
		b.WriteString(quote(rec.Prompt))
		b.WriteByte(',')
		b.WriteString(quote(rec.Brand))
		b.WriteByte(',')
		if rec.Mentioned {
			b.WriteString("Yes")
		} else {
			b.WriteString("No")
		}
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(rec.Position))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
