package inventory

import (
	"errors"
	"time"

	"github.com/retailcore/backend/internal/domain/shared"
)

// OperationRecorder receives the outcome of every core operation.
// The prometheus implementation lives in the telemetry package.
type OperationRecorder interface {
	ObserveOperation(component, operation, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, string, time.Duration) {}

// NopRecorder discards observations
var NopRecorder OperationRecorder = nopRecorder{}

// Outcome maps an operation error to a low-cardinality label
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return string(de.Kind)
	}
	return "error"
}
