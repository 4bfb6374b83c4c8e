package relay

import (
	"fmt"
	"testing"
)

// TestOrderedDelivery is the canonical scenario: two sends, polled in
// order, with the next sequence still empty.
func TestOrderedDelivery(t *testing.T) {
	var s Stream
	if seq := s.Send("print a"); seq != 1 {
		t.Fatalf("first sequence = %d", seq)
	}
	if seq := s.Send("print b"); seq != 2 {
		t.Fatalf("second sequence = %d", seq)
	}

	if got, ok := s.Get(1); !ok || got != "print a" {
		t.Fatalf("Get(1) = %q, %v", got, ok)
	}
	if got, ok := s.Get(2); !ok || got != "print b" {
		t.Fatalf("Get(2) = %q, %v", got, ok)
	}
	if _, ok := s.Get(3); ok {
		t.Fatal("Get(3) returned a command that was never sent")
	}
	if _, ok := s.Get(0); ok {
		t.Fatal("Get(0) returned a command")
	}
}

// TestReaderMustPollEachSequence: receiving a later sequence first does
// not surface earlier ones implicitly.
func TestReaderMustPollEachSequence(t *testing.T) {
	var s Stream
	s.Send("a")
	s.Send("b")

	if got, ok := s.Get(2); !ok || got != "b" {
		t.Fatalf("Get(2) = %q, %v", got, ok)
	}
	// sequence 1 still answers only when explicitly polled
	if got, ok := s.Get(1); !ok || got != "a" {
		t.Fatalf("Get(1) after Get(2) = %q, %v", got, ok)
	}
}

func TestRingOverwrite(t *testing.T) {
	var s Stream
	for i := 1; i <= RingSize+10; i++ {
		s.Send(fmt.Sprintf("cmd %d", i))
	}
	if _, ok := s.Get(5); ok {
		t.Fatal("overwritten sequence still readable")
	}
	if got, ok := s.Get(RingSize + 10); !ok || got != fmt.Sprintf("cmd %d", RingSize+10) {
		t.Fatalf("latest = %q, %v", got, ok)
	}
	if got, ok := s.Get(11); !ok || got != "cmd 11" {
		t.Fatalf("oldest retained = %q, %v", got, ok)
	}
}

func TestAcknowledgeClamped(t *testing.T) {
	var s Stream
	s.Send("a")
	s.Send("b")

	s.Acknowledge(99)
	if s.Acknowledged() != 2 {
		t.Fatalf("ack = %d, want clamp to sender sequence 2", s.Acknowledged())
	}
	s.Acknowledge(1)
	if s.Acknowledged() != 2 {
		t.Fatal("ack moved backward")
	}
}

func TestLoopbackReset(t *testing.T) {
	var l Loopback
	l.ToClient.Send("cs 1 x")
	l.ToServer.Send("say hi")
	l.Reset()
	if l.ToClient.Sequence() != 0 || l.ToServer.Sequence() != 0 {
		t.Fatal("reset kept sequences")
	}
}
