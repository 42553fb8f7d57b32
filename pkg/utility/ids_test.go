package utility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUtility_GetExecutionID(t *testing.T) {
	id1 := GetExecutionID()
	id2 := GetExecutionID()

	assert.Equal(t, id1, id2)
	assert.Equal(t, uuid7Version, int(id1.Version()))
}

const uuid7Version = 7

func TestUtility_ResetExecutionID(t *testing.T) {
	oldID := GetExecutionID()
	newID := ResetExecutionID()

	assert.NotEqual(t, oldID, newID)
	assert.Equal(t, newID, GetExecutionID())
}

func TestUtility_CreateTraceID(t *testing.T) {
	id1 := CreateTraceID()
	id2 := CreateTraceID()

	assert.NotEqual(t, id1, id2)

	ts, node, seq := ParseTraceID(id2)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
	assert.LessOrEqual(t, node, uint64(traceNodeMask))
	assert.LessOrEqual(t, seq, uint64(traceSeqMask))
}

func TestUtility_CreateOrderID(t *testing.T) {
	id1 := CreateOrderID()
	id2 := CreateOrderID()

	assert.Len(t, id1, 26)
	assert.NotEqual(t, id1, id2)
	assert.Less(t, id1, id2)
}
