package matching

import (
	"math"
	"time"

	"github.com/agnivade/levenshtein"
)

// Scorer provides string and value comparison algorithms. Every method is
// total: empty inputs produce a score, never a panic.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// JaroWinkler calculates the Jaro-Winkler similarity between two strings.
// Returns a value between 0.0 (no similarity) and 1.0 (exact match).
// Operands are ordered before comparison so that JaroWinkler(a, b) == JaroWinkler(b, a).
func (s *Scorer) JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if b < a {
		a, b = b, a
	}

	ra, rb := []rune(a), []rune(b)
	jaro := jaro(ra, rb)

	// Winkler modification: boost for common prefix
	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(ra) && i < len(rb) && i < maxPrefix; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefixLen++
	}

	scalingFactor := 0.1
	return jaro + float64(prefixLen)*scalingFactor*(1.0-jaro)
}

// Jaro calculates the Jaro similarity between two strings
func (s *Scorer) Jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if b < a {
		a, b = b, a
	}
	return jaro([]rune(a), []rune(b))
}

func jaro(a, b []rune) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Maximum distance for character matching
	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	for i := range a {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := range a {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

// Levenshtein returns 1 - editDistance/maxLen, measured in runes.
// Two empty strings are identical.
func (s *Scorer) Levenshtein(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// DateProximity calculates a proximity score for two dates.
// Returns 1.0 for the same day, decreasing linearly to 0.0 at maxDaysDiff.
// Callers filter out unknown dates; the zero time is a valid date here.
func (s *Scorer) DateProximity(a, b time.Time, maxDaysDiff int) float64 {
	if maxDaysDiff <= 0 {
		return 0.0
	}

	daysDiff := math.Abs(a.Sub(b).Hours() / 24)

	if daysDiff == 0 {
		return 1.0
	}
	if daysDiff >= float64(maxDaysDiff) {
		return 0.0
	}

	// Linear decay
	return 1.0 - (daysDiff / float64(maxDaysDiff))
}

// WeightedScore calculates a weighted average over the scored dimensions only.
// Dimensions absent from scores are neutral: they add to neither the numerator
// nor the denominator. Order gives a fixed summation order.
func (s *Scorer) WeightedScore(order []string, scores map[string]float64, weights map[string]float64) float64 {
	var totalWeight float64
	var weightedSum float64

	for _, field := range order {
		score, ok := scores[field]
		if !ok {
			continue
		}
		weight := weights[field]
		weightedSum += score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}

	return weightedSum / totalWeight
}
