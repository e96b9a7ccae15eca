package memorial

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/willow/pkg/canonical"
	"github.com/Ramsey-B/willow/pkg/database"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/normalizers"
	"github.com/Ramsey-B/willow/pkg/pool"
	"github.com/Ramsey-B/willow/pkg/tracing"
)

const table = "memorials"

var candidateColumns = []string{
	"id", "first_name", "middle_name", "last_name", "nickname",
	"birth_date", "death_date", "birth_place", "resting_place",
	"slug", "view_count", "profile_photo_url",
}

var memorialColumns = append(append([]string{}, candidateColumns...), "canonical_hash", "created_at", "updated_at")

// Repository persists memorials and serves them as a candidate pool
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

// Create stores a memorial along with its canonical hash and last-name lookup keys
func (r *Repository) Create(ctx context.Context, c models.MemorialCandidate) (*models.Memorial, error) {
	ctx, span := tracing.StartSpan(ctx, "memorial.Repository.Create")
	defer span.End()

	c.ID = uuid.New().String()
	now := time.Now().UTC()
	m := &models.Memorial{
		MemorialCandidate: c,
		CanonicalHash:     canonical.HashCandidate(c),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols(append(append([]string{}, memorialColumns...), "last_name_key", "last_name_soundex")...)
	ib.Values(
		m.ID, m.FirstName, m.MiddleName, m.LastName, m.Nickname,
		m.BirthDate, m.DeathDate, m.BirthPlace, m.RestingPlace,
		m.Slug, m.ViewCount, m.ProfilePhotoURL,
		m.CanonicalHash, m.CreatedAt, m.UpdatedAt,
		normalizers.NameKeyOf(m.LastName), normalizers.Soundex(m.LastName),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("memorial_id", m.ID).Error("Failed to create memorial")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create memorial")
	}

	return m, nil
}

// Get returns a memorial by id
func (r *Repository) Get(ctx context.Context, id string) (*models.Memorial, error) {
	ctx, span := tracing.StartSpan(ctx, "memorial.Repository.Get")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "memorial %s does not exist", id)
	}

	sb := database.NewSelectBuilder()
	sb.Select(memorialColumns...)
	sb.From(table)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var m models.Memorial
	if err := r.db.GetContext(ctx, &m, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "memorial %s does not exist", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("memorial_id", id).Error("Failed to get memorial")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get memorial")
	}

	return &m, nil
}

// Candidates returns memorials whose last name sounds like, or shares a key
// prefix with, scope.LastName
func (r *Repository) Candidates(ctx context.Context, scope models.PoolScope) ([]models.MemorialCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "memorial.Repository.Candidates")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(candidateColumns...)
	sb.From(table)

	if scope.LastName != "" {
		var conditions []string
		if code := normalizers.Soundex(scope.LastName); code != "" {
			conditions = append(conditions, sb.Equal("last_name_soundex", code))
		}
		if prefix := pool.LastNamePrefix(scope.LastName); prefix != "" {
			conditions = append(conditions, sb.Like("last_name_key", prefix+"%"))
		}
		if len(conditions) == 0 {
			return []models.MemorialCandidate{}, nil
		}
		sb.Where(sb.Or(conditions...))
	}

	sb.OrderBy("created_at", "id")
	sb.Limit(pool.EffectiveLimit(scope))

	query, args := sb.Build()
	candidates := []models.MemorialCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("last_name", scope.LastName).Error("Failed to load candidate pool")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load candidate pool")
	}

	return candidates, nil
}

// CandidatesByHash returns every memorial with the given canonical hash
func (r *Repository) CandidatesByHash(ctx context.Context, hash string) ([]models.MemorialCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "memorial.Repository.CandidatesByHash")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(candidateColumns...)
	sb.From(table)
	sb.Where(sb.Equal("canonical_hash", hash))
	sb.OrderBy("id")

	query, args := sb.Build()
	candidates := []models.MemorialCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load memorials by canonical hash")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load memorials by canonical hash")
	}

	return candidates, nil
}
