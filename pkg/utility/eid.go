package utility

import (
	"sync"

	"github.com/google/uuid"
)

type ExecutionID = uuid.UUID

var (
	executionID     ExecutionID
	executionIDOnce sync.Once
	executionIDMu   sync.RWMutex
)

// GetExecutionID returns the process-wide execution id, created lazily on
// first use. Every event emitted during one run carries the same id.
func GetExecutionID() ExecutionID {
	executionIDOnce.Do(func() {
		executionID = uuid.Must(uuid.NewV7())
	})

	executionIDMu.RLock()
	defer executionIDMu.RUnlock()
	return executionID
}

// ResetExecutionID forces a new execution id. Used by batch runners that
// execute several scenarios in one process.
func ResetExecutionID() ExecutionID {
	executionIDMu.Lock()
	defer executionIDMu.Unlock()

	executionID = uuid.Must(uuid.NewV7())
	return executionID
}
