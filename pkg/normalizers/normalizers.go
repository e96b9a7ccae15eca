// Package normalizers provides field normalization functions for memorial matching
package normalizers

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

// Registry names for the built-in normalizers.
const (
	NameLowercase         = "lowercase"
	NameUppercase         = "uppercase"
	NameTrim              = "trim"
	NameRemoveWhitespace  = "remove_whitespace"
	NameRemovePunctuation = "remove_punctuation"
	NameAlphanumeric      = "alphanumeric"
	NameDiacritics        = "ndiacritics"
	NamePersonName        = "nname"
	NameKey               = "nkey"
	NamePlace             = "nplace"
	NameSoundex           = "soundex"
)

func init() {
	Register(NameLowercase, Lowercase)
	Register(NameUppercase, Uppercase)
	Register(NameTrim, Trim)
	Register(NameRemoveWhitespace, RemoveWhitespace)
	Register(NameRemovePunctuation, RemovePunctuation)
	Register(NameAlphanumeric, Alphanumeric)
	Register(NameDiacritics, StripDiacritics)
	Register(NamePersonName, NormalizeName)
	Register(NameKey, NameKeyOf)
	Register(NamePlace, NormalizePlace)
	Register(NameSoundex, Soundex)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names leave the value unchanged.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// RemoveWhitespace removes all whitespace characters
func RemoveWhitespace(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// StripDiacritics decomposes the string and drops combining marks, so "José" becomes "Jose".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NameKeyOf reduces a name part to its identity key: lowercase, no diacritics,
// letters and digits only. "O'Brien-Núñez" becomes "obriennunez".
func NameKeyOf(s string) string {
	return Alphanumeric(strings.ToLower(StripDiacritics(strings.TrimSpace(s))))
}

var nameSuffixes = []string{" jr.", " jr", " sr.", " sr", " iii", " ii", " iv", " phd", " md", " dds"}

// NormalizeName normalizes a person's name for matching
// - Lowercase
// - Strip diacritics
// - Remove common suffixes (Jr., Sr., III, etc.)
// - Remove punctuation, collapse whitespace
func NormalizeName(s string) string {
	s = strings.ToLower(StripDiacritics(strings.TrimSpace(s)))

	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = s[:len(s)-len(suffix)]
		}
	}

	return collapse(s)
}

// collapse keeps letters and digits, turning every run of anything else into one space.
func collapse(s string) string {
	var result strings.Builder
	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && result.Len() > 0 {
				result.WriteRune(' ')
			}
			result.WriteRune(r)
			pendingSpace = false
			continue
		}
		pendingSpace = true
	}
	return result.String()
}

// usStates maps full state names to postal codes so "Chicago, Illinois" and
// "Chicago, IL" normalize identically.
var usStates = map[string]string{
	"alabama": "al", "alaska": "ak", "arizona": "az", "arkansas": "ar", "california": "ca",
	"colorado": "co", "connecticut": "ct", "delaware": "de", "district of columbia": "dc",
	"florida": "fl", "georgia": "ga", "hawaii": "hi", "idaho": "id", "illinois": "il",
	"indiana": "in", "iowa": "ia", "kansas": "ks", "kentucky": "ky", "louisiana": "la",
	"maine": "me", "maryland": "md", "massachusetts": "ma", "michigan": "mi", "minnesota": "mn",
	"mississippi": "ms", "missouri": "mo", "montana": "mt", "nebraska": "ne", "nevada": "nv",
	"new hampshire": "nh", "new jersey": "nj", "new mexico": "nm", "new york": "ny",
	"north carolina": "nc", "north dakota": "nd", "ohio": "oh", "oklahoma": "ok", "oregon": "or",
	"pennsylvania": "pa", "rhode island": "ri", "south carolina": "sc", "south dakota": "sd",
	"tennessee": "tn", "texas": "tx", "utah": "ut", "vermont": "vt", "virginia": "va",
	"washington": "wa", "west virginia": "wv", "wisconsin": "wi", "wyoming": "wy",
}

// placeWords abbreviates common words in cemetery and place names.
var placeWords = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"road":      "rd",
	"lane":      "ln",
	"saint":     "st",
	"mount":     "mt",
	"fort":      "ft",
	"cemetery":  "cem",
	"memorial":  "mem",
	"gardens":   "gdns",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
	"usa":       "us",
}

// statePhrases holds usStates keys longest first so "west virginia" wins over "virginia".
var statePhrases = func() []string {
	keys := make([]string, 0, len(usStates))
	for k := range usStates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// NormalizePlace normalizes a free-text place (birthplace, cemetery) for comparison.
func NormalizePlace(s string) string {
	s = collapse(strings.ToLower(StripDiacritics(s)))
	if s == "" {
		return ""
	}

	padded := " " + s + " "
	for _, phrase := range statePhrases {
		padded = strings.ReplaceAll(padded, " "+phrase+" ", " "+usStates[phrase]+" ")
	}

	tokens := strings.Fields(padded)
	for i, tok := range tokens {
		if abbr, ok := placeWords[tok]; ok {
			tokens[i] = abbr
		}
	}
	// "united states", "united states of america" and "us" all mean the same country
	joined := strings.Join(tokens, " ")
	joined = strings.TrimSuffix(joined, " united states of america")
	joined = strings.TrimSuffix(joined, " united states")
	joined = strings.TrimSuffix(joined, " us")
	return joined
}

// Soundex calculates the Soundex encoding of a name. Non-letters are ignored and
// diacritics are stripped first; an input without letters encodes to "".
func Soundex(str string) string {
	letters := []rune(strings.ToUpper(StripDiacritics(str)))

	var first rune
	start := -1
	for i, r := range letters {
		if r >= 'A' && r <= 'Z' {
			first = r
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	var result strings.Builder
	result.WriteRune(first)
	prevCode := soundexCode(first)

	for _, char := range letters[start+1:] {
		if result.Len() >= 4 {
			break
		}
		if char < 'A' || char > 'Z' {
			continue
		}

		code := soundexCode(char)
		// H and W do not separate letters with the same code
		if char == 'H' || char == 'W' {
			continue
		}
		if code != '0' && code != prevCode {
			result.WriteByte(code)
		}
		prevCode = code
	}

	for result.Len() < 4 {
		result.WriteByte('0')
	}

	return result.String()
}

// soundexCode returns the Soundex code for a character
func soundexCode(char rune) byte {
	switch char {
	case 'B', 'F', 'P', 'V':
		return '1'
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return '2'
	case 'D', 'T':
		return '3'
	case 'L':
		return '4'
	case 'M', 'N':
		return '5'
	case 'R':
		return '6'
	default:
		return '0'
	}
}
