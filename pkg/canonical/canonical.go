// Package canonical builds the normalized identity hash used as the exact-match
// fast path for duplicate memorial detection.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/normalizers"
)

const (
	// UnknownDate stands in for a missing or unparseable date.
	UnknownDate = "unknown"

	// version is bumped whenever normalization changes, so stored hashes of
	// different generations never compare equal.
	version = "v1"

	// delimiter cannot appear in a name key (alphanumeric) or a date key.
	delimiter = "|"

	dateLayout = "2006-01-02"
)

var dateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// BuildHash returns the hex SHA-256 of the normalized first name, last name,
// birth date and death date. It never fails: malformed dates hash as UnknownDate.
func BuildHash(firstName, lastName, birthDate, deathDate string) string {
	canonical := strings.Join([]string{
		version,
		normalizers.NameKeyOf(firstName),
		normalizers.NameKeyOf(lastName),
		NormalizeDate(birthDate),
		NormalizeDate(deathDate),
	}, delimiter)

	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}

// HashCandidate computes BuildHash from a candidate's own fields.
func HashCandidate(c models.MemorialCandidate) string {
	return BuildHash(c.FirstName, c.LastName, c.BirthDate, c.DeathDate)
}

// NormalizeDate returns the date as YYYY-MM-DD, or UnknownDate.
func NormalizeDate(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return UnknownDate
	}
	return t.Format(dateLayout)
}

// ParseDate parses an ISO date or date-time. The calendar date is kept as
// written; time-of-day and offset are discarded.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

