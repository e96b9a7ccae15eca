package pool

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/willow/pkg/canonical"
	"github.com/Ramsey-B/willow/pkg/models"
)

//go:embed fixtures/demo_memorials.yaml
var demoFixture []byte

// fixtureFile is the layout of memorial YAML files
type fixtureFile struct {
	Memorials []models.MemorialCandidate `yaml:"memorials"`
}

// ReadCandidates decodes a memorial YAML document
func ReadCandidates(r io.Reader) ([]models.MemorialCandidate, error) {
	var file fixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode memorials: %w", err)
	}
	return file.Memorials, nil
}

// MemorySource is an in-memory memorial store. It is safe for concurrent use.
type MemorySource struct {
	mu      sync.RWMutex
	records map[string]models.Memorial
	order   []string
	now     func() time.Time
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		records: make(map[string]models.Memorial),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LoadDemo returns a MemorySource seeded with the embedded demo memorials
func LoadDemo() (*MemorySource, error) {
	candidates, err := ReadCandidates(bytes.NewReader(demoFixture))
	if err != nil {
		return nil, err
	}

	s := NewMemorySource()
	if err := s.Load(candidates); err != nil {
		return nil, err
	}
	return s, nil
}

// Load adds candidates, keeping their ids. Records without an id get one.
func (s *MemorySource) Load(candidates []models.MemorialCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range candidates {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, exists := s.records[c.ID]; exists {
			return fmt.Errorf("duplicate memorial id %s", c.ID)
		}
		s.put(c)
	}
	return nil
}

func (s *MemorySource) put(c models.MemorialCandidate) models.Memorial {
	now := s.now()
	m := models.Memorial{
		MemorialCandidate: c,
		CanonicalHash:     canonical.HashCandidate(c),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.records[c.ID] = m
	s.order = append(s.order, c.ID)
	return m
}

// Create stores a new memorial under a fresh id
func (s *MemorySource) Create(_ context.Context, c models.MemorialCandidate) (*models.Memorial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New().String()
	m := s.put(c)
	return &m, nil
}

// Get returns the memorial with id, or a 404 HTTP error
func (s *MemorySource) Get(_ context.Context, id string) (*models.Memorial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.records[id]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "memorial %s does not exist", id)
	}
	return &m, nil
}

// Candidates returns records in scope, in insertion order, up to the scope limit
func (s *MemorySource) Candidates(_ context.Context, scope models.PoolScope) ([]models.MemorialCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := EffectiveLimit(scope)
	result := make([]models.MemorialCandidate, 0, min(limit, len(s.order)))
	for _, id := range s.order {
		if len(result) >= limit {
			break
		}
		m := s.records[id]
		if InScope(scope, m.LastName) {
			result = append(result, m.MemorialCandidate)
		}
	}
	return result, nil
}

// CandidatesByHash returns every record with the given canonical hash
func (s *MemorySource) CandidatesByHash(_ context.Context, hash string) ([]models.MemorialCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.MemorialCandidate
	for _, id := range s.order {
		if m := s.records[id]; m.CanonicalHash == hash {
			result = append(result, m.MemorialCandidate)
		}
	}
	return result, nil
}

// Len returns the number of stored memorials
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
