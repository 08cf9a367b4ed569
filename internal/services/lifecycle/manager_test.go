package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"local_store", "session", "http_server"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	assert.Equal(t, []string{"http_server", "session", "local_store"}, m.Names())
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http_server", "session", "local_store"}, order)
}

func TestShutdownJoinsErrorsAndRunsOnce(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("redis close")
	errB := errors.New("pool close")
	calls := 0
	m.Register("a", func(context.Context) error { calls++; return errA })
	m.Register("b", func(context.Context) error { calls++; return errB })
	m.Register("c", func(context.Context) error { calls++; return nil })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 3, calls)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 3, calls)

	m.Register("late", func(context.Context) error { calls++; return nil })
	assert.Empty(t, m.Names())
}

func TestShutdownHonoursTimeout(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
