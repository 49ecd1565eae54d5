package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/value"
)

func newTestEngine(opts ...EngineOption) *Engine {
	base := []EngineOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(collection.NewSequentialGenerator("op")),
	}
	return New(append(base, opts...)...)
}

func TestEngine_New(t *testing.T) {
	e := New()

	assert.NotNil(t, e.Clock())
	assert.Equal(t, DefaultMaxSteps, e.maxSteps)
	assert.Zero(t, e.Pending())
	assert.Empty(t, e.Collections())
}

func TestEngine_Collection_GetOrCreate(t *testing.T) {
	e := newTestEngine()

	a := e.Collection("people")
	b := e.Collection("people")
	c := e.Collection("pets")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "people", a.Name())
	assert.Equal(t, []string{"people", "pets"}, e.Collections())
}

func TestEngine_Collection_SharedClockAndObservers(t *testing.T) {
	var seen []string
	e := newTestEngine(WithObserver(func(ev collection.Event) {
		seen = append(seen, ev.Collection.Name()+":"+string(ev.Name))
	}), WithObserver(nil))

	e.Collection("a").Add(value.Int(1))
	e.Collection("b").Add(value.Int(2))

	assert.Equal(t, []string{
		"a:add-before", "a:add", "a:add-after",
		"b:add-before", "b:add", "b:add-after",
	}, seen)
	assert.Equal(t, int64(6), e.Clock().Current())
}

func TestEngine_Drain_FIFO(t *testing.T) {
	e := newTestEngine()
	var order []string
	for _, name := range []string{"first", "second"} {
		e.Defer(name, func() error {
			order = append(order, name)
			return nil
		})
	}
	e.Defer("nested", func() error {
		e.Defer("enqueued-by-task", func() error {
			order = append(order, "enqueued-by-task")
			return nil
		})
		return nil
	})

	require.NoError(t, e.Drain(context.Background()))

	assert.Equal(t, []string{"first", "second", "enqueued-by-task"}, order)
	assert.Zero(t, e.Pending())
}

func TestEngine_DeferResume(t *testing.T) {
	e := newTestEngine()
	c := e.Collection("items")
	_, err := c.On(collection.EventAddBefore, func(ev collection.Event) {
		ev.Op.Cancel()
		e.DeferResume(ev.Op)
	})
	require.NoError(t, err)

	c.Add(value.String("A"))
	assert.Zero(t, c.Len(), "resume waits for a later turn")
	assert.Len(t, c.Suspended(), 1)

	require.NoError(t, e.Drain(context.Background()))

	assert.Equal(t, []value.Value{value.String("A")}, c.Items())
	assert.Empty(t, c.Suspended())
}

func TestEngine_DeferResume_AlreadyResumed(t *testing.T) {
	e := newTestEngine()
	c := e.Collection("items")
	var op *collection.Operation
	_, err := c.On(collection.EventAddBefore, func(ev collection.Event) {
		ev.Op.Cancel()
		op = ev.Op
		e.DeferResume(ev.Op)
	})
	require.NoError(t, err)

	c.Add(value.String("A"))
	require.NoError(t, op.Resume())

	require.NoError(t, e.Drain(context.Background()))
	assert.Equal(t, 1, c.Len())
}

func TestEngine_DeferResume_IllegalReturnsError(t *testing.T) {
	e := newTestEngine()
	c := e.Collection("items")
	c.Add(value.String("A"), value.String("B"), value.String("C"))
	_, err := c.On(collection.EventRemoveBefore, func(ev collection.Event) {
		ev.Op.Cancel()
		e.DeferResume(ev.Op)
	})
	require.NoError(t, err)

	c.RemoveAt(1)
	err = e.Drain(context.Background())

	require.Error(t, err)
	assert.True(t, collection.IsIllegalResume(err))
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeTaskFailed, re.Code)
	assert.Equal(t, "resume op-4", re.Task)
	assert.Equal(t, 3, c.Len())
}

func TestEngine_Drain_QuotaExceeded(t *testing.T) {
	e := newTestEngine(WithMaxSteps(5))
	var loop func() error
	loop = func() error {
		e.Defer("loop", loop)
		return nil
	}
	e.Defer("loop", loop)

	err := e.Drain(context.Background())

	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, 1, e.Pending(), "tripping task stays queued")
}

func TestEngine_Drain_ContinuesAfterFailure(t *testing.T) {
	e := newTestEngine()
	ran := false
	e.Defer("fails", func() error { return errors.New("boom") })
	e.Defer("ok", func() error {
		ran = true
		return nil
	})

	err := e.Drain(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TASK_FAILED: task failed (task=fails): boom")
	assert.True(t, ran)
}

func TestEngine_Drain_ContextCancelled(t *testing.T) {
	e := newTestEngine()
	e.Defer("never", func() error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Drain(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, e.Pending())
}

func TestEngine_Run_DoAndStop(t *testing.T) {
	e := newTestEngine()
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	c := e.Collection("items")
	err := e.Do(context.Background(), "add", func() error {
		c.Add(value.String("A"))
		return nil
	})
	require.NoError(t, err)

	err = e.Do(context.Background(), "fail", func() error { return errors.New("nope") })
	assert.EqualError(t, err, "nope")

	var n int
	require.NoError(t, e.Do(context.Background(), "len", func() error {
		n = c.Len()
		return nil
	}))
	assert.Equal(t, 1, n)

	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}

	assert.False(t, e.Enqueue(Task{Name: "late"}))
	err = e.Do(context.Background(), "late", func() error { return nil })
	assert.True(t, IsStopped(err))
}

func TestEngine_Run_ContextCancelled(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}
