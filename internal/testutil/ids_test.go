package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/value"
)

func TestScriptedGenerator(t *testing.T) {
	g := NewScriptedGenerator("first", "second")

	assert.Equal(t, "first", g.Generate())
	assert.Equal(t, "second", g.Generate())
	assert.Equal(t, "extra-1", g.Generate())
	assert.Equal(t, "extra-2", g.Generate())

	g.Reset()
	assert.Equal(t, "first", g.Generate())
}

func TestScriptedGenerator_NamesOperations(t *testing.T) {
	c := collection.New("items", collection.WithIDGenerator(NewScriptedGenerator("held")))
	_, err := c.On(collection.EventAddBefore, func(ev collection.Event) { ev.Op.Cancel() })
	assert.NoError(t, err)

	c.Add(value.String("A"))

	op, ok := c.Lookup("held")
	assert.True(t, ok)
	assert.NoError(t, op.Resume())
	assert.Equal(t, 1, c.Len())
}
