package duplicatecandidate_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/willow/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/willow/internal/repositories/memorial"
	"github.com/Ramsey-B/willow/internal/testdb"
	"github.com/Ramsey-B/willow/pkg/models"
)

func TestRepository_Lifecycle(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	memorials := memorial.NewRepository(db, testdb.Logger())
	repo := duplicatecandidate.NewRepository(db, testdb.Logger())

	source, err := memorials.Create(ctx, models.MemorialCandidate{FirstName: "Ida", LastName: "Vanderhoef"})
	require.NoError(t, err)
	target, err := memorials.Create(ctx, models.MemorialCandidate{FirstName: "Ida", LastName: "Vanderhoeff"})
	require.NoError(t, err)

	first := &models.DuplicateCandidate{SourceMemorialID: source.ID, CandidateMemorialID: target.ID, Score: 0.8}
	require.NoError(t, repo.CreateBatch(ctx, []*models.DuplicateCandidate{first}))

	// re-detection with a lower score keeps the higher one
	again := &models.DuplicateCandidate{SourceMemorialID: source.ID, CandidateMemorialID: target.ID, Score: 0.6}
	require.NoError(t, repo.CreateBatch(ctx, []*models.DuplicateCandidate{again}))

	listed, err := repo.ListByMemorial(ctx, target.ID, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.InDelta(t, 0.8, listed[0].Score, 1e-9)
	assert.Equal(t, models.DuplicateCandidateStatusPending, listed[0].Status)

	resolved, err := repo.UpdateStatus(ctx, listed[0].ID, models.DuplicateCandidateStatusApproved, "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, models.DuplicateCandidateStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "reviewer-1", *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	pending, err := repo.ListByMemorial(ctx, source.ID, models.DuplicateCandidateStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRepository_UpdateStatusErrors(t *testing.T) {
	db := testdb.Open(t)
	repo := duplicatecandidate.NewRepository(db, testdb.Logger())
	ctx := context.Background()

	_, err := repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", models.DuplicateCandidateStatusRejected, "")
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	_, err = repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", "merged", "")
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, duplicatecandidate.IsValidStatus(models.DuplicateCandidateStatusDeferred))
	assert.False(t, duplicatecandidate.IsValidStatus("merged"))
	assert.False(t, duplicatecandidate.IsValidStatus(""))
}
