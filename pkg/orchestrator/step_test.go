package orchestrator

import "testing"

func TestNewErrorInfersRetryable(t *testing.T) {
	tests := []struct {
		code          string
		wantRetryable bool
	}{
		{CodeContainerStartFailed, true},
		{CodeDBProvisionFailed, true},
		{CodeDomainTaken, false},
		{CodeTierLimitExceeded, false},
		{CodeValidationFailed, false},
		{"SOME_UNKNOWN_CODE", false},
	}
	for _, tt := range tests {
		err := NewError(tt.code, "message")
		if err.Retryable != tt.wantRetryable {
			t.Errorf("NewError(%s).Retryable = %v, want %v", tt.code, err.Retryable, tt.wantRetryable)
		}
	}
}

func TestErrorMessageFormat(t *testing.T) {
	err := NewError(CodeDomainTaken, "example.xcordhub.app is already in use")
	want := "DOMAIN_TAKEN: example.xcordhub.app is already in use"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestResultSuccess(t *testing.T) {
	if !OK().Success() {
		t.Error("OK() should be successful")
	}
	if Failed(NewError(CodeValidationFailed, "bad")).Success() {
		t.Error("Failed() should not be successful")
	}
}
