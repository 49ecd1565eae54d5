package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/value"
)

func TestEventLog_Lines(t *testing.T) {
	c := collection.New("items")
	log := NewEventLog()
	log.Attach(c)

	c.Add(value.String("A"))
	c.RemoveFirst()

	assert.Equal(t, []string{
		`add-before "A"`, `add "A"`, `add-after "A"`,
		`remove-before "A"`, `remove "A"`, `remove-after "A"`,
		"empty",
	}, log.Lines())
	assert.Equal(t, "add-before", log.Names()[0])
	assert.Len(t, log.Events(), 7)
}

func TestEventLog_Reset(t *testing.T) {
	log := NewEventLog()
	log.Record(collection.Event{Name: collection.EventFlush})
	log.Reset()

	assert.Empty(t, log.Lines())
}

func TestEventLog_ConcurrentRecord(t *testing.T) {
	log := NewEventLog()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Record(collection.Event{Name: collection.EventEmpty})
		}()
	}
	wg.Wait()

	assert.Len(t, log.Names(), 20)
}
