package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"José", "Jose"},
		{"Zoë Núñez", "Zoe Nunez"},
		{"Björk Guðmundsdóttir", "Bjork Guðmundsdottir"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripDiacritics(tt.input))
		})
	}
}

func TestNameKeyOf(t *testing.T) {
	assert.Equal(t, "obriennunez", NameKeyOf("  O'Brien-Núñez "))
	assert.Equal(t, "john", NameKeyOf("JOHN"))
	assert.Equal(t, "", NameKeyOf("  -- "))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "John SMITH", "john smith"},
		{"strips suffix", "John Smith Jr.", "john smith"},
		{"collapses punctuation and whitespace", "  Mary-Ann   O'Neil ", "mary ann o neil"},
		{"strips diacritics", "Renée", "renee"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestNormalizePlace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"full state name", "Chicago, Illinois", "chicago il"},
		{"postal code", "Chicago, IL", "chicago il"},
		{"multi-word state wins over suffix state", "Charleston, West Virginia", "charleston wv"},
		{"cemetery words", "Mount Olivet Cemetery", "mt olivet cem"},
		{"saint", "Saint Louis, Missouri, USA", "st louis mo"},
		{"country suffix", "Boston, Massachusetts, United States", "boston ma"},
		{"diacritics", "San José, California", "san jose ca"},
		{"empty", "  ,, ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePlace(tt.input))
		})
	}
}

func TestSoundex(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Smith", "S530"},
		{"Smyth", "S530"},
		{"Robert", "R163"},
		{"Rupert", "R163"},
		{"Ashcraft", "A261"},
		{"Tymczak", "T522"},
		{"Lee", "L000"},
		{"Müller", "M460"},
		{"123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Soundex(tt.input))
		})
	}
}

func TestApply(t *testing.T) {
	t.Run("registered normalizer", func(t *testing.T) {
		assert.Equal(t, "chicago il", Apply("Chicago, Illinois", NamePlace))
	})

	t.Run("unknown normalizer is a no-op", func(t *testing.T) {
		assert.Equal(t, "Value", Apply("Value", "does_not_exist"))
	})

	t.Run("chain", func(t *testing.T) {
		assert.Equal(t, "JOSE", ApplyChain(" José ", NameTrim, NameDiacritics, NameUppercase))
	})

	t.Run("get", func(t *testing.T) {
		fn, ok := Get(NameSoundex)
		assert.True(t, ok)
		assert.Equal(t, "S530", fn("Smith"))
	})
}
