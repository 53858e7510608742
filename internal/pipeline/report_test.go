package pipeline

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJobResultDurationMarshalsAsMilliseconds(t *testing.T) {
	raw, err := json.Marshal(JobResult{
		JobID:    "job-1",
		Outcome:  OutcomeProcessed,
		Duration: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	ms, ok := decoded["duration_ms"].(float64)
	if !ok {
		t.Fatalf("duration_ms missing from %s", raw)
	}
	if ms != 1500 {
		t.Fatalf("duration_ms = %v, want 1500", ms)
	}
}
