package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"AethFlow/internal/domain/models"
)

var (
	parenRe = regexp.MustCompile(`\s*\(.*?\)\s*`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeHeader rewrites a raw column header into the canonical camelCase
// form: parenthetical descriptions removed, whitespace collapsed, "%" spelled
// out, and "/", ".", "-" dropped.
func NormalizeHeader(header string) string {
	result := strings.TrimSpace(header)
	result = parenRe.ReplaceAllString(result, "")
	result = spaceRe.ReplaceAllString(result, " ")

	words := strings.Split(result, " ")
	if len(words) > 1 {
		var b strings.Builder
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			if w == "" {
				continue
			}
			b.WriteString(strings.ToUpper(w[:1]))
			b.WriteString(w[1:])
		}
		result = b.String()
	} else {
		result = strings.ToLower(words[0])
	}

	result = strings.ReplaceAll(result, "%", "Percent")
	result = strings.NewReplacer("/", "", ".", "", "-", "").Replace(result)
	return result
}

// Schema binds the column roles needed for one channel to row positions.
// Resolved once from the header; unresolvable roles are a configuration
// failure, not a per-row one.
type Schema struct {
	Columns   []string
	Timestamp int // -1 when split into date + time columns
	Date      int
	Time      int
	ATN       int
	BC        int
}

// ResolveSchema normalizes the header row and locates the timestamp and the
// selected channel's attenuation/concentration columns.
func ResolveSchema(header []string, channel models.Channel) (*Schema, error) {
	s := &Schema{
		Columns:   make([]string, len(header)),
		Timestamp: -1,
		Date:      -1,
		Time:      -1,
		ATN:       -1,
		BC:        -1,
	}
	for i, h := range header {
		s.Columns[i] = NormalizeHeader(h)
	}

	for i, col := range s.Columns {
		lc := strings.ToLower(col)
		switch {
		case lc == "timestamp":
			s.Timestamp = i
		case strings.Contains(lc, "date") && s.Date < 0:
			s.Date = i
		case strings.Contains(lc, "time") && strings.Contains(lc, "local") && s.Time < 0:
			s.Time = i
		}
	}
	if s.Timestamp < 0 && (s.Date < 0 || s.Time < 0) {
		return nil, &models.ConfigurationError{Detail: "no timestamp column (or date + local time pair) in header"}
	}

	prefix := channel.Prefix()
	for i, col := range s.Columns {
		lc := strings.ToLower(col)
		if !strings.Contains(lc, prefix) || !strings.Contains(lc, "1") {
			continue
		}
		if strings.Contains(lc, "atn") && s.ATN < 0 {
			s.ATN = i
		}
		if strings.Contains(lc, "bc") && s.BC < 0 {
			s.BC = i
		}
	}
	if s.ATN < 0 || s.BC < 0 {
		return nil, &models.ConfigurationError{
			Detail: fmt.Sprintf("could not find %s ATN and BC columns", channel),
		}
	}
	return s, nil
}
