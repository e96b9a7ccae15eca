package models

import (
	"encoding/json"
	"time"
)

// Field keys reported in DuplicateMatch.MatchedFields, in scoring order.
const (
	FieldName         = "name"
	FieldBirthDate    = "birthDate"
	FieldDeathDate    = "deathDate"
	FieldBirthPlace   = "birthPlace"
	FieldRestingPlace = "restingPlace"
)

// FieldSimilarity explains how one dimension contributed to a score
type FieldSimilarity struct {
	Field      string  `json:"field"`
	Similarity float64 `json:"similarity"`
}

// DuplicateMatch is one pool record that probably describes the same person
type DuplicateMatch struct {
	Candidate      MemorialCandidate `json:"candidate"`
	Score          float64           `json:"score"`
	MatchedFields  []FieldSimilarity `json:"matched_fields"`
	CanonicalMatch bool              `json:"canonical_match"` // true when the canonical hashes were identical
}

// DuplicateReport is the result of a duplicate check
type DuplicateReport struct {
	CanonicalHash string           `json:"canonical_hash"`
	Threshold     float64          `json:"threshold"`
	PoolSize      int              `json:"pool_size"`
	Matches       []DuplicateMatch `json:"matches"`
}

// CheckDuplicatesRequest is the request body for a duplicate check
type CheckDuplicatesRequest struct {
	Candidate MemorialCandidate `json:"candidate"`
	Threshold *float64          `json:"threshold,omitempty"`
}

// DuplicateCandidate is a detected pair waiting for human review
type DuplicateCandidate struct {
	ID                  string          `json:"id" db:"id"`
	SourceMemorialID    string          `json:"source_memorial_id" db:"source_memorial_id"`
	CandidateMemorialID string          `json:"candidate_memorial_id" db:"candidate_memorial_id"`
	Score               float64         `json:"score" db:"score"`
	CanonicalMatch      bool            `json:"canonical_match" db:"canonical_match"`
	MatchedFields       json.RawMessage `json:"matched_fields" db:"matched_fields"`
	Status              string          `json:"status" db:"status"` // pending, approved, rejected, deferred
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
	ResolvedAt          *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy          *string         `json:"resolved_by,omitempty" db:"resolved_by"`
}

// DuplicateCandidateStatus constants
const (
	DuplicateCandidateStatusPending  = "pending"
	DuplicateCandidateStatusApproved = "approved"
	DuplicateCandidateStatusRejected = "rejected"
	DuplicateCandidateStatusDeferred = "deferred"
)
