// Package events publishes duplicate detection events
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/tracing"
)

const (
	// SchemaVersion is the current event schema version
	SchemaVersion = "1.0"

	EventDuplicatesDetected = "memorial.duplicates.detected"
)

// Publisher writes one keyed JSON event
type Publisher interface {
	Publish(ctx context.Context, key string, value any, headers map[string]string) error
}

// DuplicateMatchSummary is one match inside a DuplicatesDetectedEvent
type DuplicateMatchSummary struct {
	MemorialID     string  `json:"memorial_id"`
	Score          float64 `json:"score"`
	CanonicalMatch bool    `json:"canonical_match"`
}

// DuplicatesDetectedEvent announces that a memorial has probable duplicates
type DuplicatesDetectedEvent struct {
	EventType     string                  `json:"event_type"`
	SchemaVersion string                  `json:"schema_version"`
	MemorialID    string                  `json:"memorial_id,omitempty"`
	CanonicalHash string                  `json:"canonical_hash"`
	Threshold     float64                 `json:"threshold"`
	Matches       []DuplicateMatchSummary `json:"matches"`
	Timestamp     time.Time               `json:"timestamp"`
}

// Emitter builds and publishes domain events
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
	now       func() time.Time
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EmitDuplicatesDetected publishes the matches found for candidate, keyed by canonical hash
func (e *Emitter) EmitDuplicatesDetected(ctx context.Context, candidate models.MemorialCandidate, report *models.DuplicateReport) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicatesDetected")
	defer span.End()

	event := DuplicatesDetectedEvent{
		EventType:     EventDuplicatesDetected,
		SchemaVersion: SchemaVersion,
		MemorialID:    candidate.ID,
		CanonicalHash: report.CanonicalHash,
		Threshold:     report.Threshold,
		Matches: ectolinq.Map(report.Matches, func(m models.DuplicateMatch) DuplicateMatchSummary {
			return DuplicateMatchSummary{
				MemorialID:     m.Candidate.ID,
				Score:          m.Score,
				CanonicalMatch: m.CanonicalMatch,
			}
		}),
		Timestamp: e.now(),
	}

	headers := map[string]string{
		"event_type":     EventDuplicatesDetected,
		"schema_version": SchemaVersion,
	}

	if err := e.publisher.Publish(ctx, report.CanonicalHash, event, headers); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", EventDuplicatesDetected)
		return err
	}

	return nil
}
