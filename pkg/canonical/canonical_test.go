package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/willow/pkg/models"
)

func TestBuildHash_CaseInsensitive(t *testing.T) {
	a := BuildHash("John", "Smith", "1945-03-15", "2020-08-22")
	b := BuildHash("john", "SMITH", "1945-03-15", "2020-08-22")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestBuildHash_DateSensitive(t *testing.T) {
	a := BuildHash("John", "Smith", "1945-03-15", "2020-08-22")
	shifted := BuildHash("John", "Smith", "1945-03-16", "2020-08-22")

	assert.NotEqual(t, a, shifted)
}

func TestBuildHash_Normalization(t *testing.T) {
	t.Run("diacritics and punctuation", func(t *testing.T) {
		assert.Equal(t,
			BuildHash("José", "O'Brien", "", ""),
			BuildHash(" jose ", "OBRIEN", "", ""),
		)
	})

	t.Run("date-time collapses to its date", func(t *testing.T) {
		assert.Equal(t,
			BuildHash("Ann", "Lee", "1950-01-02T10:30:00Z", ""),
			BuildHash("Ann", "Lee", "1950-01-02", ""),
		)
	})

	t.Run("malformed date equals missing date", func(t *testing.T) {
		assert.Equal(t,
			BuildHash("Ann", "Lee", "not a date", "1999-02-30"),
			BuildHash("Ann", "Lee", "", ""),
		)
	})

	t.Run("delimiter prevents field run-on collisions", func(t *testing.T) {
		assert.NotEqual(t,
			BuildHash("john", "smith", "", ""),
			BuildHash("johns", "mith", "", ""),
		)
	})

	t.Run("birth and death are positional", func(t *testing.T) {
		assert.NotEqual(t,
			BuildHash("Ann", "Lee", "1950-01-02", ""),
			BuildHash("Ann", "Lee", "", "1950-01-02"),
		)
	})
}

func TestHashCandidate(t *testing.T) {
	c := models.MemorialCandidate{
		FirstName:  "John",
		LastName:   "Smith",
		BirthDate:  "1945-03-15",
		DeathDate:  "2020-08-22",
		BirthPlace: "Chicago, Illinois",
		Slug:       "john-smith",
	}

	// places and presentation fields do not participate
	assert.Equal(t, BuildHash("John", "Smith", "1945-03-15", "2020-08-22"), HashCandidate(c))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1945-03-15", "1945-03-15"},
		{" 1945-03-15 ", "1945-03-15"},
		{"1945-03-15T23:30:00-05:00", "1945-03-15"},
		{"1945-03-15T23:30:00.123Z", "1945-03-15"},
		{"1945-03-15 08:00:00", "1945-03-15"},
		{"03/15/1945", UnknownDate},
		{"1945-02-30", UnknownDate},
		{"", UnknownDate},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDate(tt.input))
		})
	}
}
