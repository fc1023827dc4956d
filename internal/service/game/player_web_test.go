package game

import (
	"strings"
	"testing"
	"time"

	"one-night-werewolf-be/internal/service/session"
)

func TestWebPlayer_LogIsTheReplaySource(t *testing.T) {
	m := session.NewManager()
	p := NewWebPlayer("Walter", "id-replay", m, time.Second, 0)

	// not bound yet: pushes are dropped but the log keeps everything
	p.Observe(NewObservationEvent("A"))
	p.Observe(NewSpeechEvent("Bob", "B"))
	p.Observe(NewObservationEvent("C"))

	log := p.Log()
	if len(log) != 3 {
		t.Fatalf("want 3 logged events, got %d", len(log))
	}
	if log[0].Message != "A" || log[1].Message != "B" || log[2].Message != "C" {
		t.Fatalf("replay order broken: %+v", log)
	}
}

func TestWebPlayer_ObservePushesWhenBound(t *testing.T) {
	m := session.NewManager()
	p := NewWebPlayer("Walter", "id-push", m, time.Second, 0)

	out := make(chan any, 8)
	m.Bind("id-push", out)

	p.Observe(NewObservationEvent("hello"))

	select {
	case ev := <-out:
		e, ok := ev.(Event)
		if !ok || e.Message != "hello" {
			t.Fatalf("unexpected pushed event: %+v", ev)
		}
	default:
		t.Fatalf("observation was not pushed to the bound channel")
	}
}

func TestWebPlayer_PromptTimeoutFallsBackToRandomChoice(t *testing.T) {
	m := session.NewManager()
	p := NewWebPlayer("Walter", "id-timeout", m, 0, 0)

	out := make(chan any, 8)
	m.Bind("id-timeout", out)

	choices := []PromptChoice{
		{Index: 0, Name: "Alice"},
		{Index: 1, Name: "Bob"},
	}

	got := p.GetChoice("Pick someone.", choices, ChoiceOptions{})

	if len(got) != 1 || got[0] < 0 || got[0] > 1 {
		t.Fatalf("timeout must degrade to a valid random choice, got %v", got)
	}

	// the prompt event carried the structured choice list
	select {
	case ev := <-out:
		e, ok := ev.(Event)
		if !ok || e.Type != EVENT_PROMPT || len(e.Choices) != 2 {
			t.Fatalf("unexpected prompt event: %+v", ev)
		}
	default:
		t.Fatalf("prompt was never pushed")
	}

	log := p.Log()
	last := log[len(log)-1]
	if last.Type != EVENT_INVALID_INPUT ||
		!strings.HasPrefix(last.Message, "Invalid choice. Randomly chose ") {
		t.Fatalf("missing corrective observation after timeout: %+v", last)
	}
}

func TestWebPlayer_DisconnectedPromptFallsBack(t *testing.T) {
	m := session.NewManager()
	p := NewWebPlayer("Walter", "id-gone", m, time.Second, 0)

	// never bound: the rendezvous resolves with the disconnect sentinel
	choices := []PromptChoice{
		{Index: 0, Name: "Alice"},
		{Index: 1, Name: "Bob"},
	}

	got := p.GetChoice("Pick someone.", choices, ChoiceOptions{})

	if len(got) != 1 || got[0] < 0 || got[0] > 1 {
		t.Fatalf("disconnect must degrade to a valid random choice, got %v", got)
	}
}
