package session

import (
	"testing"
	"time"
)

func TestRequestInput_ZeroTimeoutReturnsNoResponse(t *testing.T) {
	m := NewManager()

	out := make(chan any, 8)
	m.Bind("user1", out)

	got := m.RequestInput("user1", "pick a number", 0)
	if got != NoResponseText {
		t.Fatalf("want %q on zero timeout, got %q", NoResponseText, got)
	}

	// the prompt itself must still have been pushed
	select {
	case ev := <-out:
		if ev != "pick a number" {
			t.Fatalf("unexpected pushed event: %v", ev)
		}
	default:
		t.Fatalf("prompt was not pushed before timing out")
	}
}

func TestRequestInput_DeliverResolvesAnswer(t *testing.T) {
	m := NewManager()

	out := make(chan any, 8)
	m.Bind("user1", out)

	done := make(chan string, 1)
	go func() {
		done <- m.RequestInput("user1", "question", 5*time.Second)
	}()

	// wait for the prompt to arrive, then answer
	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatalf("prompt never pushed")
	}

	for !m.Deliver("user1", "42") {
		time.Sleep(time.Millisecond)
	}

	select {
	case got := <-done:
		if got != "42" {
			t.Fatalf("want answer 42, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RequestInput did not return after Deliver")
	}
}

func TestRequestInput_DisconnectResolvesSentinel(t *testing.T) {
	m := NewManager()

	out := make(chan any, 8)
	m.Bind("user1", out)

	done := make(chan string, 1)
	go func() {
		done <- m.RequestInput("user1", "question", 5*time.Second)
	}()

	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatalf("prompt never pushed")
	}

	m.HandleDisconnect("user1")

	select {
	case got := <-done:
		if got != DisconnectedText {
			t.Fatalf("want %q, got %q", DisconnectedText, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RequestInput did not return after disconnect")
	}

	if m.Bound("user1") {
		t.Fatalf("identity should be unbound after disconnect")
	}
}

func TestRequestInput_UnboundIdentity(t *testing.T) {
	m := NewManager()

	if got := m.RequestInput("ghost", "question", time.Second); got != DisconnectedText {
		t.Fatalf("want %q for unbound identity, got %q", DisconnectedText, got)
	}
}

func TestDeliver_WithoutPendingRequest(t *testing.T) {
	m := NewManager()

	out := make(chan any, 8)
	m.Bind("user1", out)

	if m.Deliver("user1", "hello") {
		t.Fatalf("Deliver should report false when nothing is pending")
	}
}

func TestBind_ReplacesAndClosesOldChannel(t *testing.T) {
	m := NewManager()

	oldCh := make(chan any, 8)
	m.Bind("user1", oldCh)

	newCh := make(chan any, 8)
	m.Bind("user1", newCh)

	select {
	case _, ok := <-oldCh:
		if ok {
			t.Fatalf("old channel got an event instead of being closed")
		}
	default:
		t.Fatalf("old channel was not closed on rebind")
	}

	m.Push("user1", "event")

	select {
	case ev := <-newCh:
		if ev != "event" {
			t.Fatalf("unexpected event: %v", ev)
		}
	default:
		t.Fatalf("event not routed to new channel")
	}
}

func TestPush_DropsWhenUnbound(t *testing.T) {
	m := NewManager()

	// must not panic or block
	m.Push("nobody", "event")
	m.Broadcast("event", []string{"a", "b"})
}
