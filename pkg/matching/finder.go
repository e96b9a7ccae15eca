package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/Ramsey-B/willow/pkg/canonical"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/normalizers"
)

// DuplicateFinder runs a SimilarityScorer over a pool of existing records
type DuplicateFinder struct {
	scorer *SimilarityScorer
}

// NewDuplicateFinder creates a DuplicateFinder around scorer
func NewDuplicateFinder(scorer *SimilarityScorer) *DuplicateFinder {
	return &DuplicateFinder{scorer: scorer}
}

// ValidateCandidate checks the fields a candidate needs to enter a duplicate check
func ValidateCandidate(c models.MemorialCandidate) error {
	if err := validateNamePart("first_name", c.FirstName); err != nil {
		return err
	}
	return validateNamePart("last_name", c.LastName)
}

// validateNamePart rejects names that are blank or lose every character to
// normalization, since those would all share one canonical key.
func validateNamePart(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return newValidationError(field, "is required")
	}
	if normalizers.NameKeyOf(value) == "" {
		return newValidationError(field, "must contain a letter or digit")
	}
	return nil
}

// ValidateThreshold checks that threshold is within [0, 1]
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return newValidationError("threshold", "must be between 0 and 1, got %v", threshold)
	}
	return nil
}

// FindPotentialDuplicates returns every pool record scoring at or above
// threshold, plus every record sharing the candidate's canonical hash.
// Matches are ordered by score descending, then candidate id ascending.
// Neither candidate nor pool is modified.
func (f *DuplicateFinder) FindPotentialDuplicates(
	candidate models.MemorialCandidate,
	pool []models.MemorialCandidate,
	threshold float64,
) ([]models.DuplicateMatch, error) {
	if err := ValidateCandidate(candidate); err != nil {
		return nil, err
	}
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	hash := canonical.HashCandidate(candidate)
	matches := make([]models.DuplicateMatch, 0)

	for _, existing := range pool {
		result := f.scorer.Score(candidate, existing)

		if canonical.HashCandidate(existing) == hash {
			matches = append(matches, models.DuplicateMatch{
				Candidate:      existing,
				Score:          1.0,
				MatchedFields:  result.Fields,
				CanonicalMatch: true,
			})
			continue
		}

		if result.Total >= threshold {
			matches = append(matches, models.DuplicateMatch{
				Candidate:     existing,
				Score:         result.Total,
				MatchedFields: result.Fields,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Candidate.ID < matches[j].Candidate.ID
	})

	return matches, nil
}
