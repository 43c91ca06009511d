package entropy

import "testing"

func TestNewClient_Disabled(t *testing.T) {
	c := NewClient("")
	if c != nil {
		t.Fatal("empty key should return a nil client")
	}
	if c.Enabled() {
		t.Error("nil client reports enabled")
	}
}

func TestSeedFrom_NilClient(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		s := SeedFrom(nil)
		if s < 0 {
			t.Fatalf("seed %d is negative", s)
		}
		seen[s] = true
	}
	if len(seen) < 2 {
		t.Error("crypto fallback produced no variety")
	}
}

func TestSeed_NilReceiver(t *testing.T) {
	var c *Client
	if s := c.Seed(); s < 0 {
		t.Errorf("nil client seed = %d, want non-negative", s)
	}
}
