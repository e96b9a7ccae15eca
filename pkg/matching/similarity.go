package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/Ramsey-B/willow/pkg/canonical"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/normalizers"
)

// StringMetric selects the fuzzy string similarity used for names and places
type StringMetric string

const (
	MetricJaroWinkler StringMetric = "jaro_winkler"
	MetricJaro        StringMetric = "jaro"
	MetricLevenshtein StringMetric = "levenshtein"
)

// Weights are the per-dimension weights of the total score. They must sum to
// 1.0 and keep the ordering name >= dates > places.
type Weights struct {
	Name         float64
	BirthDate    float64
	DeathDate    float64
	BirthPlace   float64
	RestingPlace float64
}

// DefaultWeights returns the default dimension weights
func DefaultWeights() Weights {
	return Weights{
		Name:         0.40,
		BirthDate:    0.20,
		DeathDate:    0.20,
		BirthPlace:   0.10,
		RestingPlace: 0.10,
	}
}

// Validate checks sign, sum and relative ordering
func (w Weights) Validate() error {
	for field, v := range w.byField() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight for %s must be a non-negative number, got %v", field, v)
		}
	}

	sum := w.Name + w.BirthDate + w.DeathDate + w.BirthPlace + w.RestingPlace
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	if w.Name == 0 {
		return fmt.Errorf("name weight must be positive")
	}
	if w.Name < w.BirthDate || w.Name < w.DeathDate {
		return fmt.Errorf("name weight must be at least each date weight")
	}
	minDate := min(w.BirthDate, w.DeathDate)
	maxPlace := max(w.BirthPlace, w.RestingPlace)
	if minDate <= maxPlace {
		return fmt.Errorf("date weights must exceed place weights")
	}
	return nil
}

func (w Weights) byField() map[string]float64 {
	return map[string]float64{
		models.FieldName:         w.Name,
		models.FieldBirthDate:    w.BirthDate,
		models.FieldDeathDate:    w.DeathDate,
		models.FieldBirthPlace:   w.BirthPlace,
		models.FieldRestingPlace: w.RestingPlace,
	}
}

// DatePolicy controls partial credit for date dimensions
type DatePolicy struct {
	TranscriptionCredit float64 // same month and day, different year
	DecayDays           int     // day distance at which proximity reaches zero
	DecayCeiling        float64 // proximity credit just short of an exact match
}

// DefaultDatePolicy returns the default date policy
func DefaultDatePolicy() DatePolicy {
	return DatePolicy{
		TranscriptionCredit: 0.7,
		DecayDays:           365,
		DecayCeiling:        0.9,
	}
}

// SimilarityConfig configures a SimilarityScorer. PlaceNormalizers is the
// registry chain applied to both place dimensions.
type SimilarityConfig struct {
	Weights          Weights
	Metric           StringMetric
	Dates            DatePolicy
	PlaceNormalizers []string
}

// DefaultSimilarityConfig returns sensible defaults.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		Weights:          DefaultWeights(),
		Metric:           MetricJaroWinkler,
		Dates:            DefaultDatePolicy(),
		PlaceNormalizers: []string{normalizers.NamePlace},
	}
}

// Name parts are weighted inside the name dimension. Middle is neutral unless
// both records carry one.
const (
	firstNamePartWeight  = 0.4
	middleNamePartWeight = 0.1
	lastNamePartWeight   = 0.5

	middleInitialCredit = 0.9
)

// SimilarityResult is the outcome of comparing two candidates
type SimilarityResult struct {
	Total  float64
	Fields []models.FieldSimilarity
}

// dimension compares one axis of two candidates. ok=false means neutral.
type dimension struct {
	field      string
	normalizer string
	compare    func(s *SimilarityScorer, d dimension, a, b models.MemorialCandidate) (score float64, ok bool)
}

var dimensions = []dimension{
	{field: models.FieldName, normalizer: normalizers.NamePersonName, compare: compareName},
	{field: models.FieldBirthDate, compare: func(s *SimilarityScorer, _ dimension, a, b models.MemorialCandidate) (float64, bool) {
		return s.dateSimilarity(a.BirthDate, b.BirthDate)
	}},
	{field: models.FieldDeathDate, compare: func(s *SimilarityScorer, _ dimension, a, b models.MemorialCandidate) (float64, bool) {
		return s.dateSimilarity(a.DeathDate, b.DeathDate)
	}},
	{field: models.FieldBirthPlace, compare: func(s *SimilarityScorer, _ dimension, a, b models.MemorialCandidate) (float64, bool) {
		return s.placeSimilarity(a.BirthPlace, b.BirthPlace)
	}},
	{field: models.FieldRestingPlace, compare: func(s *SimilarityScorer, _ dimension, a, b models.MemorialCandidate) (float64, bool) {
		return s.placeSimilarity(a.RestingPlace, b.RestingPlace)
	}},
}

var dimensionOrder = func() []string {
	order := make([]string, len(dimensions))
	for i, d := range dimensions {
		order[i] = d.field
	}
	return order
}()

// SimilarityScorer compares two memorial candidates across weighted dimensions
type SimilarityScorer struct {
	scorer  *Scorer
	cfg     SimilarityConfig
	weights map[string]float64
}

// NewSimilarityScorer validates cfg and creates a SimilarityScorer
func NewSimilarityScorer(cfg SimilarityConfig) (*SimilarityScorer, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Metric {
	case MetricJaroWinkler, MetricJaro, MetricLevenshtein:
	case "":
		cfg.Metric = MetricJaroWinkler
	default:
		return nil, fmt.Errorf("unsupported string metric %q", cfg.Metric)
	}
	if cfg.Dates.DecayDays <= 0 {
		return nil, fmt.Errorf("date decay days must be positive")
	}
	if cfg.Dates.TranscriptionCredit < 0 || cfg.Dates.TranscriptionCredit > 1 || cfg.Dates.DecayCeiling < 0 || cfg.Dates.DecayCeiling > 1 {
		return nil, fmt.Errorf("date credits must be within [0, 1]")
	}
	if len(cfg.PlaceNormalizers) == 0 {
		cfg.PlaceNormalizers = []string{normalizers.NamePlace}
	}
	for _, name := range cfg.PlaceNormalizers {
		if _, ok := normalizers.Get(name); !ok {
			return nil, fmt.Errorf("unknown place normalizer %q", name)
		}
	}

	return &SimilarityScorer{
		scorer:  NewScorer(),
		cfg:     cfg,
		weights: cfg.Weights.byField(),
	}, nil
}

// Score compares a and b. The result is symmetric and does not mutate either input.
func (s *SimilarityScorer) Score(a, b models.MemorialCandidate) SimilarityResult {
	scores := make(map[string]float64, len(dimensions))
	fields := make([]models.FieldSimilarity, 0, len(dimensions))

	for _, d := range dimensions {
		score, ok := d.compare(s, d, a, b)
		if !ok {
			continue
		}
		scores[d.field] = score
		fields = append(fields, models.FieldSimilarity{Field: d.field, Similarity: score})
	}

	return SimilarityResult{
		Total:  s.scorer.WeightedScore(dimensionOrder, scores, s.weights),
		Fields: fields,
	}
}

func (s *SimilarityScorer) stringSimilarity(a, b string) float64 {
	switch s.cfg.Metric {
	case MetricLevenshtein:
		return s.scorer.Levenshtein(a, b)
	case MetricJaro:
		return s.scorer.Jaro(a, b)
	default:
		return s.scorer.JaroWinkler(a, b)
	}
}

// compareName is never neutral: both sides always have a first and last name.
func compareName(s *SimilarityScorer, d dimension, a, b models.MemorialCandidate) (float64, bool) {
	first := 0.0
	for _, x := range firstNameAlternates(d.normalizer, a) {
		for _, y := range firstNameAlternates(d.normalizer, b) {
			first = max(first, s.stringSimilarity(x, y))
		}
	}

	last := s.stringSimilarity(
		normalizers.Apply(a.LastName, d.normalizer),
		normalizers.Apply(b.LastName, d.normalizer),
	)

	weighted := first*firstNamePartWeight + last*lastNamePartWeight
	total := firstNamePartWeight + lastNamePartWeight

	if middle, ok := s.middleNameSimilarity(d.normalizer, a.MiddleName, b.MiddleName); ok {
		weighted += middle * middleNamePartWeight
		total += middleNamePartWeight
	}

	return weighted / total, true
}

// firstNameAlternates returns the normalized first name and, when present, nickname.
func firstNameAlternates(normalizer string, c models.MemorialCandidate) []string {
	alts := []string{normalizers.Apply(c.FirstName, normalizer)}
	if nick := normalizers.Apply(c.Nickname, normalizer); nick != "" && nick != alts[0] {
		alts = append(alts, nick)
	}
	return alts
}

func (s *SimilarityScorer) middleNameSimilarity(normalizer, a, b string) (float64, bool) {
	na := normalizers.Apply(a, normalizer)
	nb := normalizers.Apply(b, normalizer)
	if na == "" || nb == "" {
		return 0, false
	}
	if na == nb {
		return 1.0, true
	}

	// "W" against "William"
	ra, rb := []rune(na), []rune(nb)
	if (len(ra) == 1 || len(rb) == 1) && ra[0] == rb[0] {
		return middleInitialCredit, true
	}

	return s.stringSimilarity(na, nb), true
}

func (s *SimilarityScorer) dateSimilarity(a, b string) (float64, bool) {
	ta, okA := canonical.ParseDate(a)
	tb, okB := canonical.ParseDate(b)
	if !okA || !okB {
		return 0, false
	}
	if ta.Equal(tb) {
		return 1.0, true
	}

	policy := s.cfg.Dates
	best := policy.DecayCeiling * s.scorer.DateProximity(ta, tb, policy.DecayDays)

	// a wrong year with the right month and day is a common transcription error
	if ta.Month() == tb.Month() && ta.Day() == tb.Day() {
		best = max(best, policy.TranscriptionCredit)
	}

	return best, true
}

func (s *SimilarityScorer) placeSimilarity(a, b string) (float64, bool) {
	na := strings.TrimSpace(normalizers.ApplyChain(a, s.cfg.PlaceNormalizers...))
	nb := strings.TrimSpace(normalizers.ApplyChain(b, s.cfg.PlaceNormalizers...))
	if na == "" || nb == "" {
		return 0, false
	}
	return s.stringSimilarity(na, nb), true
}
