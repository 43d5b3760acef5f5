package orchestrator

import (
	"testing"

	"github.com/xcord-net/xcord-hub/internal/store"
)

type namedStep struct{ name string }

func (s namedStep) Name() string              { return s.name }
func (s namedStep) Execute(StepContext) Result { return OK() }
func (s namedStep) Verify(StepContext) Result  { return OK() }

func TestResumeIndexFromEvents(t *testing.T) {
	steps := []Step{namedStep{"A"}, namedStep{"B"}, namedStep{"C"}}

	tests := []struct {
		name   string
		events []store.ProvisioningEvent
		want   int
	}{
		{
			name:   "no events, resume from the start",
			events: nil,
			want:   0,
		},
		{
			name: "A fully completed, resume at B",
			events: []store.ProvisioningEvent{
				{StepName: "A", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "A", Phase: store.PhaseVerify, Status: store.EventCompleted},
			},
			want: 1,
		},
		{
			name: "A completed, B only executed (not verified), resume at B",
			events: []store.ProvisioningEvent{
				{StepName: "A", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "A", Phase: store.PhaseVerify, Status: store.EventCompleted},
				{StepName: "B", Phase: store.PhaseExecute, Status: store.EventCompleted},
			},
			want: 1,
		},
		{
			name: "A and B fully completed, resume at C",
			events: []store.ProvisioningEvent{
				{StepName: "A", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "A", Phase: store.PhaseVerify, Status: store.EventCompleted},
				{StepName: "B", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "B", Phase: store.PhaseVerify, Status: store.EventCompleted},
			},
			want: 2,
		},
		{
			name: "a later completed pair overrides an earlier failed attempt",
			events: []store.ProvisioningEvent{
				{StepName: "A", Phase: store.PhaseExecute, Status: store.EventFailed},
				{StepName: "A", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "A", Phase: store.PhaseVerify, Status: store.EventCompleted},
			},
			want: 1,
		},
		{
			name: "all steps completed, resume past the end",
			events: []store.ProvisioningEvent{
				{StepName: "A", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "A", Phase: store.PhaseVerify, Status: store.EventCompleted},
				{StepName: "B", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "B", Phase: store.PhaseVerify, Status: store.EventCompleted},
				{StepName: "C", Phase: store.PhaseExecute, Status: store.EventCompleted},
				{StepName: "C", Phase: store.PhaseVerify, Status: store.EventCompleted},
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resumeIndexFromEvents(steps, tt.events)
			if got != tt.want {
				t.Errorf("resumeIndexFromEvents() = %d, want %d", got, tt.want)
			}
		})
	}
}

type panickyStep struct{}

func (panickyStep) Name() string { return "Panicky" }
func (panickyStep) Execute(StepContext) Result {
	panic("boom")
}
func (panickyStep) Verify(StepContext) Result { return OK() }

func TestInvokeSafelyRecoversPanic(t *testing.T) {
	e := &Executor{}
	result := e.invokeSafely(StepContext{}, panickyStep{}.Execute)
	if result.Success() {
		t.Fatal("expected a failing result from a panicking step")
	}
	if result.Err.Code != CodeStepException {
		t.Errorf("Code = %s, want %s", result.Err.Code, CodeStepException)
	}
}

func TestInvokeSafelyPassesThroughSuccess(t *testing.T) {
	e := &Executor{}
	result := e.invokeSafely(StepContext{}, func(StepContext) Result { return OK() })
	if !result.Success() {
		t.Fatalf("expected success, got %v", result.Err)
	}
}

func TestBackoffScheduleMatchesMaxRetries(t *testing.T) {
	if len(backoff) != MaxRetries {
		t.Errorf("backoff has %d entries, want %d (one delay per attempt)", len(backoff), MaxRetries)
	}
	for i := 1; i < len(backoff); i++ {
		if backoff[i] <= backoff[i-1] {
			t.Errorf("backoff[%d]=%v is not strictly greater than backoff[%d]=%v", i, backoff[i], i-1, backoff[i-1])
		}
	}
}

