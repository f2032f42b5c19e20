package logistics

import (
	"fmt"
	"time"

	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// newCheckpoints stamps the tracking template onto a fresh shipment. The
// first milestone starts completed because packing happens before dispatch
// is recorded.
func newCheckpoints(dispatchDate time.Time) []Checkpoint {
	cps := make([]Checkpoint, len(defaultCheckpoints))
	for i, label := range defaultCheckpoints {
		cps[i] = Checkpoint{Label: label, Status: workflow.StepPending}
	}
	at := dispatchDate
	cps[0].Status = workflow.StepCompleted
	cps[0].Date = &at
	return cps
}

// frontierIndex returns the first checkpoint that has not completed, or -1
// when the shipment has reached its final milestone.
func frontierIndex(cps []Checkpoint) int {
	for i := range cps {
		if cps[i].Status != workflow.StepCompleted {
			return i
		}
	}
	return -1
}

// advanceCheckpoint completes the named checkpoint. Checkpoints complete
// strictly in order, so only the frontier milestone is accepted.
func advanceCheckpoint(cps []Checkpoint, label string, at time.Time, location, remarks *string) error {
	idx := frontierIndex(cps)
	if idx < 0 {
		return ErrShipmentClosed
	}
	if cps[idx].Label != label {
		return fmt.Errorf("%w: next is %q", ErrNotFrontier, cps[idx].Label)
	}
	cps[idx].Status = workflow.StepCompleted
	cps[idx].Date = &at
	cps[idx].Location = location
	cps[idx].Remarks = remarks
	return nil
}

// delivered reports whether every tracking milestone has completed.
func delivered(cps []Checkpoint) bool {
	return frontierIndex(cps) < 0
}
