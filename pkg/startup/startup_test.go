package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type recorder struct {
	events []string
}

func (r *recorder) dep(name string, requires ...string) Func {
	return Func{
		Name:     name,
		Requires: requires,
		StartFunc: func(context.Context) error {
			r.events = append(r.events, "start:"+name)
			return nil
		},
		StopFunc: func(context.Context) error {
			r.events = append(r.events, "stop:"+name)
			return nil
		},
	}
}

func TestStartup_OrderAndReverseStop(t *testing.T) {
	rec := &recorder{}
	s := NewStartup(silentLogger(), 1)
	s.AddDependency(rec.dep("migrations", "database"))
	s.AddDependency(rec.dep("database"))
	s.AddDependency(rec.dep("kafka"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:database", "start:migrations", "start:kafka"}, rec.events)
	assert.Equal(t, StatusStarted, s.Status("migrations"))

	rec.events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop:kafka", "stop:migrations", "stop:database"}, rec.events)
	assert.Equal(t, StatusStopped, s.Status("database"))
}

func TestStartup_RetriesWithBackoff(t *testing.T) {
	calls := 0
	s := NewStartup(silentLogger(), 3).WithBackoffUnit(time.Millisecond)
	s.AddDependency(Func{
		Name: "flaky",
		StartFunc: func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not ready")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestStartup_GivesUp(t *testing.T) {
	s := NewStartup(silentLogger(), 2).WithBackoffUnit(time.Millisecond)
	s.AddDependency(Func{
		Name:      "down",
		StartFunc: func(context.Context) error { return errors.New("connection refused") },
	})

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 2 attempts")
	assert.Equal(t, StatusFailed, s.Status("down"))
}

func TestStartup_UnknownAndCyclicDependencies(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		s := NewStartup(silentLogger(), 1)
		s.AddDependency(Func{Name: "api", Requires: []string{"cache"}})
		assert.Error(t, s.Start(context.Background()))
	})

	t.Run("cycle", func(t *testing.T) {
		s := NewStartup(silentLogger(), 1)
		s.AddDependency(Func{Name: "a", Requires: []string{"b"}})
		s.AddDependency(Func{Name: "b", Requires: []string{"a"}})
		assert.Error(t, s.Start(context.Background()))
	})
}
