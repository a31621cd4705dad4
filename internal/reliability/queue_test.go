package reliability

import (
	"testing"
	"time"
)

func TestSendQueueStrictContiguousSequence(t *testing.T) {
	q := NewSendQueue()
	a := q.Enqueue("ACK;1")
	b := q.Enqueue("GAME_CREATED;ABCDE;35999")

	if a.SeqID != 1 || b.SeqID != 2 {
		t.Fatalf("expected contiguous seq 1,2; got %d,%d", a.SeqID, b.SeqID)
	}
	if q.Head().SeqID != 1 {
		t.Fatalf("head should be the minimum pending seq, got %d", q.Head().SeqID)
	}
}

func TestSendQueuePopIfAckedOnlyPopsHead(t *testing.T) {
	q := NewSendQueue()
	q.Enqueue("A")
	q.Enqueue("B")

	if q.PopIfAcked(2) {
		t.Fatal("ACK for non-head ID must be ignored")
	}
	if !q.PopIfAcked(1) {
		t.Fatal("ACK for head ID must pop it")
	}
	if q.Head().SeqID != 2 {
		t.Fatalf("expected new head seq 2, got %d", q.Head().SeqID)
	}
}

func TestSendQueueMaterializeIsLazyAndIdempotent(t *testing.T) {
	q := NewSendQueue()
	q.Enqueue("ACK;1")

	now := time.Now()
	first := q.Materialize("LUDO", now)
	second := q.Materialize("LUDO", now.Add(time.Millisecond))

	if string(first) != string(second) {
		t.Fatalf("materialize must not rebuild an already-built head: %q vs %q", first, second)
	}
	if string(first) != "LUDO;1;ACK;1" {
		t.Fatalf("unexpected materialized bytes: %q", first)
	}
}

func TestSendQueueRetransmitAfterMaxAge(t *testing.T) {
	q := NewSendQueue()
	q.Enqueue("ACK;1")

	base := time.Now()
	q.Materialize("LUDO", base)

	if q.ShouldRetransmit(base.Add(100*time.Millisecond), 500*time.Millisecond) {
		t.Fatal("must not retransmit before MAX_PACKET_AGE elapses")
	}
	if !q.ShouldRetransmit(base.Add(600*time.Millisecond), 500*time.Millisecond) {
		t.Fatal("must retransmit once MAX_PACKET_AGE elapses")
	}
}

func TestSendQueueResetDrainsAndResetsCounter(t *testing.T) {
	q := NewSendQueue()
	q.Enqueue("A")
	q.Enqueue("B")
	q.Reset()

	if q.Len() != 0 {
		t.Fatalf("expected drained queue, got %d frames", q.Len())
	}
	f := q.Enqueue("C")
	if f.SeqID != 1 {
		t.Fatalf("expected outbound counter reset to 1, got %d", f.SeqID)
	}
}

func TestClassifyInbound(t *testing.T) {
	cases := []struct {
		seq, expected uint64
		want          InboundDecision
	}{
		{5, 5, RunAndAck},
		{3, 5, DuplicateAck},
		{7, 5, DropFrame},
	}
	for _, c := range cases {
		if got := ClassifyInbound(c.seq, c.expected); got != c.want {
			t.Errorf("ClassifyInbound(%d,%d) = %v, want %v", c.seq, c.expected, got, c.want)
		}
	}
}
