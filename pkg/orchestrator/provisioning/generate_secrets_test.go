package provisioning

import "testing"

func TestRandomTokenLengthAndUniqueness(t *testing.T) {
	a, err := randomToken(16)
	if err != nil {
		t.Fatalf("randomToken() error = %v", err)
	}
	if len(a) != 32 { // hex-encoded, 2 chars per byte
		t.Errorf("len(randomToken(16)) = %d, want 32", len(a))
	}

	b, err := randomToken(16)
	if err != nil {
		t.Fatalf("randomToken() error = %v", err)
	}
	if a == b {
		t.Error("two consecutive randomToken() calls returned the same value")
	}
}

func TestRedisDBForIsStableAndBounded(t *testing.T) {
	tests := []struct {
		instanceID int64
		want       int
	}{
		{0, 0},
		{1, 1},
		{15, 15},
		{16, 0},
		{17, 1},
		{32, 0},
	}
	for _, tt := range tests {
		got := redisDBFor(tt.instanceID)
		if got != tt.want {
			t.Errorf("redisDBFor(%d) = %d, want %d", tt.instanceID, got, tt.want)
		}
		if got < 0 || got > 15 {
			t.Errorf("redisDBFor(%d) = %d, out of [0,15] bounds", tt.instanceID, got)
		}
	}
}
