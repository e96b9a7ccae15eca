package matching

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/willow/pkg/canonical"
	"github.com/Ramsey-B/willow/pkg/metrics"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/tracing"
)

// CandidateSource returns a bounded pool of existing memorials
type CandidateSource interface {
	Candidates(ctx context.Context, scope models.PoolScope) ([]models.MemorialCandidate, error)
}

// HashIndex is implemented by sources that can look records up by canonical hash
type HashIndex interface {
	CandidatesByHash(ctx context.Context, hash string) ([]models.MemorialCandidate, error)
}

// ReviewRecorder persists detected pairs for human review
type ReviewRecorder interface {
	CreateBatch(ctx context.Context, candidates []*models.DuplicateCandidate) error
}

// EventEmitter announces detected duplicates
type EventEmitter interface {
	EmitDuplicatesDetected(ctx context.Context, candidate models.MemorialCandidate, report *models.DuplicateReport) error
}

// Config contains configuration for the matching service.
type Config struct {
	Threshold float64 // default minimum score for a match (0.5)
	PoolLimit int     // maximum records fetched per check
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.5,
		PoolLimit: 500,
	}
}

// Service runs duplicate checks against a candidate source and fans the
// results out to the review queue and event stream.
type Service struct {
	log      ectologger.Logger
	finder   *DuplicateFinder
	source   CandidateSource
	recorder ReviewRecorder
	emitter  EventEmitter
	metrics  *metrics.Metrics
	cfg      Config
}

// NewService creates a new matching service.
func NewService(log ectologger.Logger, finder *DuplicateFinder, source CandidateSource, cfg Config) *Service {
	return &Service{
		log:    log,
		finder: finder,
		source: source,
		cfg:    cfg,
	}
}

// WithReviewRecorder enables the review queue
func (s *Service) WithReviewRecorder(r ReviewRecorder) *Service {
	s.recorder = r
	return s
}

// WithEmitter enables duplicate events
func (s *Service) WithEmitter(e EventEmitter) *Service {
	s.emitter = e
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Threshold returns the configured default threshold
func (s *Service) Threshold() float64 {
	return s.cfg.Threshold
}

// CheckDuplicates finds existing memorials that probably describe the same
// person as candidate. A nil threshold uses the configured default. Review
// queue and event failures are logged and do not fail the check.
func (s *Service) CheckDuplicates(ctx context.Context, candidate models.MemorialCandidate, threshold *float64) (*models.DuplicateReport, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.CheckDuplicates")
	defer span.End()

	start := time.Now()
	thr := s.cfg.Threshold
	if threshold != nil {
		thr = *threshold
	}

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"memorial_id": candidate.ID,
		"threshold":   thr,
	})

	if err := ValidateCandidate(candidate); err != nil {
		s.metrics.RecordCheck(metrics.OutcomeInvalid, time.Since(start).Seconds(), 0, nil, 0)
		return nil, err
	}
	if err := ValidateThreshold(thr); err != nil {
		s.metrics.RecordCheck(metrics.OutcomeInvalid, time.Since(start).Seconds(), 0, nil, 0)
		return nil, err
	}

	hash := canonical.HashCandidate(candidate)

	pool, err := s.loadPool(ctx, candidate, hash)
	if err != nil {
		log.WithError(err).Error("Failed to load candidate pool")
		s.metrics.RecordCheck(metrics.OutcomeError, time.Since(start).Seconds(), 0, nil, 0)
		return nil, err
	}

	matches, err := s.finder.FindPotentialDuplicates(candidate, pool, thr)
	if err != nil {
		return nil, err
	}

	report := &models.DuplicateReport{
		CanonicalHash: hash,
		Threshold:     thr,
		PoolSize:      len(pool),
		Matches:       matches,
	}

	log.WithFields(map[string]any{
		"pool_size":   len(pool),
		"match_count": len(matches),
	}).Debug("Duplicate check complete")

	if len(matches) > 0 {
		s.recordReview(ctx, log, candidate, matches)
		s.emit(ctx, log, candidate, report)
	}

	outcome := metrics.OutcomeClean
	scores := make([]float64, len(matches))
	canonicalCount := 0
	for i, m := range matches {
		scores[i] = m.Score
		if m.CanonicalMatch {
			canonicalCount++
		}
	}
	if len(matches) > 0 {
		outcome = metrics.OutcomeMatched
	}
	s.metrics.RecordCheck(outcome, time.Since(start).Seconds(), len(pool), scores, canonicalCount)

	return report, nil
}

// loadPool fetches the scoped pool, adds every record sharing the candidate's
// hash, and drops the candidate itself.
func (s *Service) loadPool(ctx context.Context, candidate models.MemorialCandidate, hash string) ([]models.MemorialCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.loadPool")
	defer span.End()

	scoped, err := s.source.Candidates(ctx, models.PoolScope{
		LastName: candidate.LastName,
		Limit:    s.cfg.PoolLimit,
	})
	if err != nil {
		return nil, err
	}

	if index, ok := s.source.(HashIndex); ok {
		exact, err := index.CandidatesByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		scoped = append(scoped, exact...)
	}

	seen := make(map[string]struct{}, len(scoped))
	pool := make([]models.MemorialCandidate, 0, len(scoped))
	for _, c := range scoped {
		if candidate.ID != "" && c.ID == candidate.ID {
			continue
		}
		if c.ID != "" {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
		}
		pool = append(pool, c)
	}

	return pool, nil
}

func (s *Service) recordReview(ctx context.Context, log ectologger.Logger, candidate models.MemorialCandidate, matches []models.DuplicateMatch) {
	if s.recorder == nil || candidate.ID == "" {
		return
	}

	entries := make([]*models.DuplicateCandidate, 0, len(matches))
	for _, m := range matches {
		if m.Candidate.ID == "" {
			continue
		}
		fields, err := json.Marshal(m.MatchedFields)
		if err != nil {
			fields = []byte("[]")
		}
		entries = append(entries, &models.DuplicateCandidate{
			SourceMemorialID:    candidate.ID,
			CandidateMemorialID: m.Candidate.ID,
			Score:               m.Score,
			CanonicalMatch:      m.CanonicalMatch,
			MatchedFields:       fields,
			Status:              models.DuplicateCandidateStatusPending,
		})
	}

	if err := s.recorder.CreateBatch(ctx, entries); err != nil {
		log.WithError(err).Warn("Failed to record duplicate candidates for review")
		s.metrics.RecordSideEffectFailure("review_queue")
	}
}

func (s *Service) emit(ctx context.Context, log ectologger.Logger, candidate models.MemorialCandidate, report *models.DuplicateReport) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.EmitDuplicatesDetected(ctx, candidate, report); err != nil {
		log.WithError(err).Warn("Failed to emit duplicates detected event")
		s.metrics.RecordSideEffectFailure("event")
	}
}
