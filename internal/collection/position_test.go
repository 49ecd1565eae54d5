package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition(t *testing.T) {
	assert.True(t, Append.IsAppend())
	assert.Equal(t, "append", Append.String())
	assert.Equal(t, Append, Append.next())

	p := At(3)
	idx, ok := p.Index()
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	assert.False(t, p.IsAppend())
	assert.Equal(t, "3", p.String())
	assert.Equal(t, At(4), p.next())
}

func TestClock(t *testing.T) {
	c := NewClockAt(10)
	assert.Equal(t, int64(11), c.Next())
	assert.Equal(t, int64(11), c.Current())
}

func TestSequentialGenerator(t *testing.T) {
	g := NewSequentialGenerator("x")
	assert.Equal(t, "x-1", g.Generate())
	assert.Equal(t, "x-2", g.Generate())
}

func TestOperationError_Error(t *testing.T) {
	err := &OperationError{Code: ErrCodeUnknownOperation, Message: "missing", OpID: "op-9"}
	assert.Equal(t, "UNKNOWN_OPERATION: missing (op=op-9)", err.Error())

	err = &OperationError{Code: ErrCodeNilHandler, Message: "nil"}
	assert.Equal(t, "NIL_HANDLER: nil", err.Error())
	assert.False(t, IsIllegalResume(err))
	assert.False(t, IsIllegalResume(nil))
}
