package duplicatecandidate

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/willow/pkg/database"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/tracing"
)

const (
	table = "duplicate_candidates"

	defaultListLimit = 100
	maxListLimit     = 500
)

var columns = []string{
	"id", "source_memorial_id", "candidate_memorial_id", "score", "canonical_match",
	"matched_fields", "status", "created_at", "updated_at", "resolved_at", "resolved_by",
}

// Repository persists the duplicate review queue
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch upserts detected pairs. A pair seen again keeps its higher score.
func (r *Repository) CreateBatch(ctx context.Context, candidates []*models.DuplicateCandidate) error {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.CreateBatch")
	defer span.End()

	if len(candidates) == 0 {
		return nil
	}

	now := time.Now().UTC()
	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("id", "source_memorial_id", "candidate_memorial_id", "score", "canonical_match", "matched_fields", "status", "created_at", "updated_at")

	for _, c := range candidates {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.Status == "" {
			c.Status = models.DuplicateCandidateStatusPending
		}
		if len(c.MatchedFields) == 0 {
			c.MatchedFields = []byte("[]")
		}
		c.CreatedAt = now
		c.UpdatedAt = now
		ib.Values(c.ID, c.SourceMemorialID, c.CandidateMemorialID, c.Score, c.CanonicalMatch, string(c.MatchedFields), c.Status, c.CreatedAt, c.UpdatedAt)
	}

	query, args := ib.Build()
	query += database.OnConflictDoUpdate(
		[]string{"source_memorial_id", "candidate_memorial_id"},
		"score = GREATEST("+table+".score, "+database.Excluded("score")+")",
		"canonical_match = "+table+".canonical_match OR "+database.Excluded("canonical_match"),
		"matched_fields = "+database.Excluded("matched_fields"),
		"updated_at = "+database.Excluded("updated_at"),
	)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create duplicate candidates batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create duplicate candidates")
	}

	r.logger.WithContext(ctx).WithField("count", len(candidates)).Debug("Created duplicate candidates batch")
	return nil
}

// Get returns a review queue entry by id
func (r *Repository) Get(ctx context.Context, id string) (*models.DuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.Get")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "duplicate candidate %s not found", id)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var candidate models.DuplicateCandidate
	if err := r.db.GetContext(ctx, &candidate, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "duplicate candidate %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get duplicate candidate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get duplicate candidate")
	}

	return &candidate, nil
}

// ListPending returns pending entries, highest score first
func (r *Repository) ListPending(ctx context.Context, limit int) ([]models.DuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.ListPending")
	defer span.End()

	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("status", models.DuplicateCandidateStatusPending))
	sb.OrderBy("score DESC", "created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	candidates := []models.DuplicateCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list pending duplicate candidates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pending duplicate candidates")
	}

	return candidates, nil
}

// ListByMemorial returns entries involving memorialID on either side, optionally filtered by status
func (r *Repository) ListByMemorial(ctx context.Context, memorialID string, status string) ([]models.DuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.ListByMemorial")
	defer span.End()

	if _, err := uuid.Parse(memorialID); err != nil {
		return []models.DuplicateCandidate{}, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)

	where := []string{
		sb.Or(
			sb.Equal("source_memorial_id", memorialID),
			sb.Equal("candidate_memorial_id", memorialID),
		),
	}
	if status != "" {
		where = append(where, sb.Equal("status", status))
	}
	sb.Where(where...)
	sb.OrderBy("score DESC", "created_at DESC")

	query, args := sb.Build()
	candidates := []models.DuplicateCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("memorial_id", memorialID).Error("Failed to list duplicate candidates by memorial")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate candidates")
	}

	return candidates, nil
}

// UpdateStatus resolves an entry. Pending clears the resolution.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status string, resolvedBy string) (*models.DuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.UpdateStatus")
	defer span.End()

	if !IsValidStatus(status) {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid status %q", status)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "duplicate candidate %s not found", id)
	}

	now := time.Now().UTC()
	var resolvedAt *time.Time
	var resolver *string
	if status != models.DuplicateCandidateStatusPending {
		resolvedAt = &now
		if resolvedBy != "" {
			resolver = &resolvedBy
		}
	}

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("resolved_at", resolvedAt),
		ub.Assign("resolved_by", resolver),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update duplicate candidate status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update duplicate candidate status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "duplicate candidate %s not found", id)
	}

	return r.Get(ctx, id)
}

// IsValidStatus reports whether status is a known review status
func IsValidStatus(status string) bool {
	switch status {
	case models.DuplicateCandidateStatusPending,
		models.DuplicateCandidateStatusApproved,
		models.DuplicateCandidateStatusRejected,
		models.DuplicateCandidateStatusDeferred:
		return true
	}
	return false
}
