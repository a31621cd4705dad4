package session

import (
	"fmt"
	"net"
	"testing"
)

func addr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(1, 2, 3, 4), Port: port}
}

func TestAdmitAssignsStableIndexAndToken(t *testing.T) {
	r := NewRegistry()
	s, result := r.Admit(addr(5000))
	if result != Admitted {
		t.Fatalf("expected Admitted, got %v", result)
	}
	if s.Index != 0 {
		t.Fatalf("expected first slot index 0, got %d", s.Index)
	}
	if s.ReconnectToken() == "" {
		t.Fatal("expected a non-empty reconnect token")
	}
	r.Release(s)
}

func TestAdmitSameAddressIsNoOp(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Admit(addr(5000))
	r.Release(s)

	_, result := r.Admit(addr(5000))
	if result != AlreadyConnected {
		t.Fatalf("expected AlreadyConnected, got %v", result)
	}
}

func TestAdmitTableFull(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < len(r.slots); i++ {
		s, result := r.Admit(addr(6000 + i))
		if result != Admitted {
			t.Fatalf("admit %d: expected Admitted, got %v", i, result)
		}
		r.Release(s)
	}
	_, result := r.Admit(addr(9999))
	if result != TableFull {
		t.Fatalf("expected TableFull at capacity, got %v", result)
	}
}

func TestTokenAssignmentVisibleBeforeRelease(t *testing.T) {
	// Open Question resolution (spec.md §9 / SPEC_FULL.md §6): the token
	// must be visible in the token index before RECONNECT_CODE would be
	// enqueued, i.e. before Admit releases its lock on the new session.
	r := NewRegistry()
	s, _ := r.Admit(addr(7000))
	tok := s.ReconnectToken()
	if idx := r.LookupByToken(tok); idx != s.Index {
		t.Fatalf("expected token visible immediately after Admit, lookup returned %d", idx)
	}
	r.Release(s)
}

func TestRemoveFreesSlotAndToken(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Admit(addr(8000))
	tok := s.ReconnectToken()
	r.Remove(s)

	if idx := r.LookupByToken(tok); idx != -1 {
		t.Fatalf("expected token removed from index, got %d", idx)
	}
	if _, ok := r.LookupByIndex(s.Index); ok {
		t.Fatal("expected slot freed after Remove")
	}
}

func TestLookupByAddrLinearScan(t *testing.T) {
	r := NewRegistry()
	var want *Session
	for i := 0; i < 5; i++ {
		s, _ := r.Admit(addr(9000 + i))
		if i == 3 {
			want = s
		}
		r.Release(s)
	}

	found, ok := r.Lookup(addr(9003))
	if !ok || found.Index != want.Index {
		t.Fatalf("expected to find session at index %d", want.Index)
	}
	r.Release(found)
}

func TestReconnectRebindsAddressAndResetsCounters(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Admit(addr(1000))
	s.Queue().Enqueue("ACK;1")
	s.AdvanceRecvSeq()
	r.Release(s)

	idx := r.LookupByToken(s.ReconnectToken())
	handle, ok := r.LookupByIndex(idx)
	if !ok {
		t.Fatal("expected session found by token index")
	}
	handle.Rebind(addr(1001))
	if handle.RecvSeq() != 1 {
		t.Fatalf("expected recv seq reset to 1, got %d", handle.RecvSeq())
	}
	if handle.Queue().Len() != 0 {
		t.Fatalf("expected drained send queue, got %d frames", handle.Queue().Len())
	}
	if handle.AddrString() != addr(1001).String() {
		t.Fatalf("expected rebound address, got %s", handle.AddrString())
	}
	r.Release(handle)
}

func TestUniqueTokensAcrossManyAdmits(t *testing.T) {
	r := NewRegistry()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, result := r.Admit(addr(2000 + i))
		if result != Admitted {
			t.Fatalf("admit %d failed: %v", i, result)
		}
		tok := s.ReconnectToken()
		if seen[tok] {
			t.Fatalf(fmt.Sprintf("duplicate reconnect token %q", tok))
		}
		seen[tok] = true
		r.Release(s)
	}
}
