package model

import (
	"testing"
	"time"
)

func TestPassStatusTerminal(t *testing.T) {
	cases := []struct {
		status   PassStatus
		terminal bool
	}{
		{PassPending, false},
		{PassActive, false},
		{PassDenied, true},
		{PassCancelled, true},
		{PassExpired, true},
		{PassArchived, false},
	}
	for _, c := range cases {
		if got := c.status.Terminal(); got != c.terminal {
			t.Errorf("Terminal(%s) = %v, want %v", c.status, got, c.terminal)
		}
	}
}

func TestPassExpiredBy(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	before := now.Add(-time.Minute)
	after := now.Add(time.Minute)

	active := func(expires time.Time) *Pass {
		issued := expires.Add(-5 * time.Minute)
		return &Pass{Status: PassActive, IssuedAt: &issued, ExpiresAt: &expires}
	}

	if !active(before).ExpiredBy(now) {
		t.Error("pass past its deadline should read as expired")
	}
	if active(after).ExpiredBy(now) {
		t.Error("pass before its deadline should not read as expired")
	}
	// Deadline hit exactly counts as expired.
	if !active(now).ExpiredBy(now) {
		t.Error("pass at its deadline should read as expired")
	}

	pending := &Pass{Status: PassPending}
	if pending.ExpiredBy(now) {
		t.Error("pending pass has no deadline to miss")
	}

	expired := active(before)
	expired.Status = PassExpired
	if expired.ExpiredBy(now) {
		t.Error("already-expired pass is not lazily expired")
	}
}

func TestPassRemainingSeconds(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

	expires := now.Add(90 * time.Second)
	p := &Pass{Status: PassActive, ExpiresAt: &expires}
	if got := p.RemainingSeconds(now); got != 90 {
		t.Errorf("RemainingSeconds = %d, want 90", got)
	}

	past := now.Add(-time.Minute)
	p = &Pass{Status: PassActive, ExpiresAt: &past}
	if got := p.RemainingSeconds(now); got != 0 {
		t.Errorf("RemainingSeconds past deadline = %d, want 0", got)
	}

	p = &Pass{Status: PassPending}
	if got := p.RemainingSeconds(now); got != 0 {
		t.Errorf("RemainingSeconds for pending = %d, want 0", got)
	}
}
