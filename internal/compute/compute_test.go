package compute

import (
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

func TestNormalizeState(t *testing.T) {
	cases := []struct {
		batchStatus string
		want        domain.JobState
	}{
		{"SUBMITTED", domain.JobStateSubmitted},
		{"PENDING", domain.JobStateSubmitted},
		{"RUNNABLE", domain.JobStateRunnable},
		{"STARTING", domain.JobStateRunning},
		{"RUNNING", domain.JobStateRunning},
		{"SUCCEEDED", domain.JobStateSucceeded},
		{"FAILED", domain.JobStateFailed},
		// Unknown provider status must not map to a terminal state
		{"SOMETHING_NEW", domain.JobStateSubmitted},
	}

	for _, c := range cases {
		if got := NormalizeState(c.batchStatus); got != c.want {
			t.Errorf("NormalizeState(%s) = %s, want %s", c.batchStatus, got, c.want)
		}
	}
}

func TestActiveBatchStatuses_NoTerminals(t *testing.T) {
	for _, s := range activeBatchStatuses {
		if st := NormalizeState(s); st.IsTerminal() {
			t.Errorf("status %s normalizes to terminal %s", s, st)
		}
	}
}
