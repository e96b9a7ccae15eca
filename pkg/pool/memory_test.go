package pool

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/willow/pkg/canonical"
	"github.com/Ramsey-B/willow/pkg/models"
)

func lastNames(candidates []models.MemorialCandidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.LastName
	}
	return names
}

func TestLoadDemo(t *testing.T) {
	s, err := LoadDemo()
	require.NoError(t, err)

	assert.Equal(t, 8, s.Len())

	m, err := s.Get(context.Background(), "5d0f8a52-1b8e-4c36-9a51-2f0d6c1e7a01")
	require.NoError(t, err)
	assert.Equal(t, "Smyth", m.LastName)
	assert.Equal(t, canonical.HashCandidate(m.MemorialCandidate), m.CanonicalHash)
}

func TestMemorySource_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySource()

	created, err := s.Create(ctx, models.MemorialCandidate{ID: "ignored", FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", created.ID)
	assert.Len(t, created.CanonicalHash, 64)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	_, err = s.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestMemorySource_Candidates(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySource()
	require.NoError(t, s.Load([]models.MemorialCandidate{
		{ID: "1", FirstName: "John", LastName: "Smith"},
		{ID: "2", FirstName: "John", LastName: "Smyth"},
		{ID: "3", FirstName: "Jane", LastName: "Smithers"},
		{ID: "4", FirstName: "Dorothy", LastName: "Nguyen"},
		{ID: "5", FirstName: "Ann", LastName: "Smitt"},
	}))

	tests := []struct {
		name     string
		scope    models.PoolScope
		expected []string
	}{
		{"no narrowing", models.PoolScope{}, []string{"Smith", "Smyth", "Smithers", "Nguyen", "Smitt"}},
		{"sounds alike or shares prefix", models.PoolScope{LastName: "Smith"}, []string{"Smith", "Smyth", "Smithers", "Smitt"}},
		{"limit", models.PoolScope{LastName: "Smith", Limit: 2}, []string{"Smith", "Smyth"}},
		{"no match", models.PoolScope{LastName: "Kowalski"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Candidates(ctx, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, lastNames(got))
		})
	}
}

func TestMemorySource_CandidatesByHash(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySource()
	require.NoError(t, s.Load([]models.MemorialCandidate{
		{ID: "1", FirstName: "John", LastName: "Smith", BirthDate: "1945-03-15"},
		{ID: "2", FirstName: "JOHN", LastName: "smith", BirthDate: "1945-03-15T00:00:00Z"},
		{ID: "3", FirstName: "John", LastName: "Smith"},
	}))

	got, err := s.CandidatesByHash(ctx, canonical.BuildHash("john", "smith", "1945-03-15", ""))
	require.NoError(t, err)

	ids := []string{}
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestMemorySource_LoadRejectsDuplicateIDs(t *testing.T) {
	s := NewMemorySource()
	err := s.Load([]models.MemorialCandidate{
		{ID: "1", FirstName: "A", LastName: "B"},
		{ID: "1", FirstName: "C", LastName: "D"},
	})
	assert.Error(t, err)
}

func TestMemorySource_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySource()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Create(ctx, models.MemorialCandidate{FirstName: "John", LastName: "Smith"})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Candidates(ctx, models.PoolScope{LastName: "Smith"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
}

func TestReadCandidates(t *testing.T) {
	doc := `
memorials:
  - first_name: Ann
    last_name: Lee
    birth_date: "1950-01-02"
`
	got, err := ReadCandidates(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1950-01-02", got[0].BirthDate)

	t.Run("empty document", func(t *testing.T) {
		got, err := ReadCandidates(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ReadCandidates(strings.NewReader("memorials: [unclosed"))
		assert.Error(t, err)
	})
}

func TestInScope(t *testing.T) {
	assert.True(t, InScope(models.PoolScope{}, "anything"))
	assert.True(t, InScope(models.PoolScope{LastName: "O'Brien"}, "OBrian"))
	assert.False(t, InScope(models.PoolScope{LastName: "Smith"}, "Jones"))
	assert.Equal(t, "obr", LastNamePrefix("O'Brien"))
	assert.Equal(t, "li", LastNamePrefix("Li"))
}
