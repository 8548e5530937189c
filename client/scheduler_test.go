package client_test

import (
	"errors"
	"testing"

	"github.com/plus3/blockfall/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSystem struct {
	calls int
	dts   []float64
	err   error
}

func (s *countingSystem) Execute(frame *client.Frame) {
	s.calls++
	s.dts = append(s.dts, frame.DeltaTime)
	if s.err != nil {
		frame.Fail(s.err)
	}
}

type orderSystem struct {
	name string
	log  *[]string
}

func (s orderSystem) Execute(*client.Frame) {
	*s.log = append(*s.log, s.name)
}

func TestScheduler(t *testing.T) {
	t.Run("runs systems in registration order", func(t *testing.T) {
		var log []string
		s := client.NewScheduler(nil)
		s.Register(orderSystem{name: "a", log: &log})
		s.Register(orderSystem{name: "b", log: &log})
		s.Register(orderSystem{name: "c", log: &log})

		require.NoError(t, s.Once(0.016))
		require.NoError(t, s.Once(0.016))
		assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, log)
	})

	t.Run("first failure wins and later systems still run", func(t *testing.T) {
		first := errors.New("first")
		a := &countingSystem{err: first}
		b := &countingSystem{err: errors.New("second")}
		s := client.NewScheduler(nil)
		s.Register(a)
		s.Register(b)

		assert.ErrorIs(t, s.Once(0.5), first)
		assert.Equal(t, 1, b.calls)
		assert.Equal(t, []float64{0.5}, a.dts)
	})

	t.Run("stats", func(t *testing.T) {
		sys := &countingSystem{}
		s := client.NewScheduler(nil)
		s.Register(sys)
		for range 3 {
			require.NoError(t, s.Once(0.016))
		}

		stats := s.GetStats()
		assert.Equal(t, 1, stats.SystemCount)
		assert.Equal(t, int64(3), stats.TotalExecutions)
		require.Len(t, stats.Systems, 1)
		assert.Equal(t, "countingSystem", stats.Systems[0].Name)
		assert.Equal(t, int64(3), stats.Systems[0].ExecutionCount)
		assert.LessOrEqual(t, stats.Systems[0].MinDuration, stats.Systems[0].MaxDuration)
	})
}
