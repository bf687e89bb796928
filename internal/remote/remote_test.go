package remote

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/rng"
)

func newTestPairing(t *testing.T) *Pairing {
	t.Helper()
	return NewPairing("test-secret", time.Minute, time.Hour, rng.New(), audit.NewNop())
}

func TestPairing_BeginAndComplete(t *testing.T) {
	p := newTestPairing(t)

	code, expiresAt, err := p.Begin("cab-01")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if len(code) != pairingCodeLength {
		t.Errorf("Expected code length %d, got %d", pairingCodeLength, len(code))
	}
	for _, c := range code {
		if !strings.ContainsRune(pairingAlphabet, c) {
			t.Errorf("Code contains character outside alphabet: %c", c)
		}
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("Expected code expiry in the future")
	}

	grant, err := p.Complete(context.Background(), code, "test-phone")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if grant.CabinetID != "cab-01" {
		t.Errorf("Expected cabinet 'cab-01', got '%s'", grant.CabinetID)
	}
	if grant.Token == "" {
		t.Error("Expected a signed token")
	}

	cabinetID, err := p.Validate(grant.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cabinetID != "cab-01" {
		t.Errorf("Expected cabinet 'cab-01', got '%s'", cabinetID)
	}
}

func TestPairing_CodeIsSingleUse(t *testing.T) {
	p := newTestPairing(t)

	code, _, err := p.Begin("cab-01")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if _, err := p.Complete(context.Background(), code, "phone-1"); err != nil {
		t.Fatalf("First Complete failed: %v", err)
	}

	_, err = p.Complete(context.Background(), code, "phone-2")
	if err != ErrPairingNotFound {
		t.Errorf("Expected ErrPairingNotFound on reuse, got %v", err)
	}
}

func TestPairing_UnknownCode(t *testing.T) {
	p := newTestPairing(t)

	_, err := p.Complete(context.Background(), "NOPE99", "phone")
	if err != ErrPairingNotFound {
		t.Errorf("Expected ErrPairingNotFound, got %v", err)
	}
}

func TestPairing_ExpiredCode(t *testing.T) {
	p := NewPairing("test-secret", time.Nanosecond, time.Hour, rng.New(), audit.NewNop())

	code, _, err := p.Begin("cab-01")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	time.Sleep(time.Millisecond)

	_, err = p.Complete(context.Background(), code, "phone")
	if err != ErrPairingNotFound {
		t.Errorf("Expected ErrPairingNotFound for expired code, got %v", err)
	}
}

func TestPairing_ValidateRejectsForgedToken(t *testing.T) {
	p := newTestPairing(t)
	other := NewPairing("different-secret", time.Minute, time.Hour, rng.New(), audit.NewNop())

	code, _, err := other.Begin("cab-01")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	grant, err := other.Complete(context.Background(), code, "phone")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if _, err := p.Validate(grant.Token); err != ErrInvalidGrant {
		t.Errorf("Expected ErrInvalidGrant for token signed with wrong secret, got %v", err)
	}
}

func TestPairing_ValidateRejectsGarbage(t *testing.T) {
	p := newTestPairing(t)

	if _, err := p.Validate("not-a-token"); err != ErrInvalidGrant {
		t.Errorf("Expected ErrInvalidGrant, got %v", err)
	}
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	h := NewHub()

	sub1 := h.Subscribe("cab-01")
	sub2 := h.Subscribe("cab-01")
	other := h.Subscribe("cab-02")
	defer h.Unsubscribe(other)

	h.Publish("cab-01", NewEvent("spin_settled", map[string]int64{"win": 500}))

	for i, sub := range []*Subscriber{sub1, sub2} {
		select {
		case ev := <-sub.C:
			if ev.Type != "spin_settled" {
				t.Errorf("Subscriber %d: expected type 'spin_settled', got '%s'", i, ev.Type)
			}
		default:
			t.Errorf("Subscriber %d received no event", i)
		}
	}

	select {
	case ev := <-other.C:
		t.Errorf("Unrelated cabinet received event %v", ev)
	default:
	}

	h.Unsubscribe(sub1)
	h.Unsubscribe(sub2)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()

	sub := h.Subscribe("cab-01")
	h.Unsubscribe(sub)

	if _, ok := <-sub.C; ok {
		t.Error("Expected channel to be closed after Unsubscribe")
	}

	// Second Unsubscribe must not panic.
	h.Unsubscribe(sub)

	if n := h.SubscriberCount("cab-01"); n != 0 {
		t.Errorf("Expected 0 subscribers, got %d", n)
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := NewHub()

	sub := h.Subscribe("cab-01")
	defer h.Unsubscribe(sub)

	for i := 0; i < 200; i++ {
		h.Publish("cab-01", NewEvent("tick", i))
	}

	// The channel buffers 64 events; the rest are dropped, and Publish
	// never blocks.
	received := 0
	for {
		select {
		case <-sub.C:
			received++
		default:
			if received != 64 {
				t.Errorf("Expected 64 buffered events, got %d", received)
			}
			return
		}
	}
}
