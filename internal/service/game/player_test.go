package game

import (
	"io"
	"strings"
	"testing"
)

func TestParseChoiceNumbers(t *testing.T) {
	cases := []struct {
		name       string
		response   string
		numChoices int
		want       []int
	}{
		{"single choice", "I pick {1, Bob}", 3, []int{1}},
		{"multiple choices", "after much thought {2 3, Bob Clyde}", 4, []int{2, 3}},
		{"colon and stars", "**{0: Alice}**", 3, []int{0}},
		{"no braces at all", "my answer is 2", 3, []int{2}},
		{"last segment wins", "{0, A} no wait {1, B}", 3, []int{1}},
		{"out of range dropped", "{9, Zed}", 3, nil},
		{"negative dropped", "{-1}", 3, nil},
		{"pure noise", "I refuse to answer", 3, nil},
	}

	for _, tc := range cases {
		got := ParseChoiceNumbers(tc.response, tc.numChoices)

		if len(got) != len(tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: want %v, got %v", tc.name, tc.want, got)
			}
		}
	}
}

func TestGetChoice_ValidAnswer(t *testing.T) {
	p := newScriptedPlayer("A", "{1, Bob}")

	choices := []PromptChoice{
		{Index: 0, Name: "Alice"},
		{Index: 1, Name: "Bob"},
		{Index: 2, Name: "Clyde"},
	}

	got := p.GetChoice("Pick someone.", choices, ChoiceOptions{})

	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("want [1], got %v", got)
	}

	for _, e := range p.Log() {
		if e.Type == EVENT_INVALID_INPUT {
			t.Fatalf("valid answer must not produce a corrective observation")
		}
	}
}

func TestGetChoice_FallbackIsRandomValid(t *testing.T) {
	choices := []PromptChoice{
		{Index: 0, Name: "Alice"},
		{Index: 1, Name: "Bob"},
		{Index: 2, Name: "Clyde"},
	}

	for i := 0; i < 10; i++ {
		p := newScriptedPlayer("A", "complete nonsense")

		got := p.GetChoice("Pick someone.", choices, ChoiceOptions{})

		if len(got) != 1 || got[0] < 0 || got[0] >= len(choices) {
			t.Fatalf("fallback must yield one valid index, got %v", got)
		}

		log := p.Log()
		last := log[len(log)-1]
		if last.Type != EVENT_INVALID_INPUT ||
			!strings.HasPrefix(last.Message, "Invalid choice. Randomly chose ") {
			t.Fatalf("missing corrective observation, got %+v", last)
		}
	}
}

func TestGetChoice_MultipleWithMinimum(t *testing.T) {
	p := newScriptedPlayer("A", "{1 2, Bob Clyde}")

	choices := []PromptChoice{
		{Index: 0, Name: "Alice"},
		{Index: 1, Name: "Bob"},
		{Index: 2, Name: "Clyde"},
	}

	got := p.GetChoice("Pick two.", choices, ChoiceOptions{Multiple: true, Min: 2, Max: 2})

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("want [1 2], got %v", got)
	}
}

func TestGetChoice_BelowMinimumFallsBack(t *testing.T) {
	p := newScriptedPlayer("A", "{1}")

	choices := []PromptChoice{
		{Index: 0, Name: "Alice"},
		{Index: 1, Name: "Bob"},
		{Index: 2, Name: "Clyde"},
	}

	got := p.GetChoice("Pick two.", choices, ChoiceOptions{Multiple: true, Min: 2, Max: 2})

	if len(got) != 2 {
		t.Fatalf("want 2 fallback picks, got %v", got)
	}
	if got[0] == got[1] {
		t.Fatalf("fallback picks must be distinct, got %v", got)
	}
}

func TestGetChoice_RetryPolicy(t *testing.T) {
	// one retry configured: first garbage answer, then a valid one
	p := NewLocalPlayer("A", strings.NewReader("garbage\n{0, Alice}\n"), io.Discard, 1)

	choices := []PromptChoice{
		{Index: 0, Name: "Alice"},
		{Index: 1, Name: "Bob"},
	}

	got := p.GetChoice("Pick someone.", choices, ChoiceOptions{})

	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("retry should have recovered the valid answer, got %v", got)
	}
}

func TestVote_PicksFromCandidates(t *testing.T) {
	voter := newScriptedPlayer("A", "{1, Carol}")

	candidates := []Player{
		newScriptedPlayer("Bob"),
		newScriptedPlayer("Carol"),
		newScriptedPlayer("Dave"),
	}

	got := voter.Vote(candidates)

	if got != candidates[1] {
		t.Fatalf("want Carol, got %s", got.Name())
	}
}

func TestObserve_LogSnapshotOrder(t *testing.T) {
	p := newScriptedPlayer("A")

	p.Observe(NewObservationEvent("first"))
	p.Observe(NewSpeechEvent("Bob", "second"))
	p.Observe(NewObservationEvent("third"))

	log := p.Log()
	if len(log) != 3 {
		t.Fatalf("want 3 events, got %d", len(log))
	}
	if log[0].Message != "first" || log[1].Message != "second" || log[2].Message != "third" {
		t.Fatalf("log order broken: %+v", log)
	}

	// the snapshot must be detached from the live log
	log[0].Message = "mutated"
	if p.Log()[0].Message != "first" {
		t.Fatalf("Log must return a copy")
	}
}

func TestEventAIText(t *testing.T) {
	speech := NewSpeechEvent("Bob", "I'm a Seer")
	if got := speech.AIText(); got != "Bob: I'm a Seer" {
		t.Fatalf("speech rendering wrong: %q", got)
	}

	obs := NewObservationEvent("the sun rises")
	if got := obs.AIText(); got != "the sun rises" {
		t.Fatalf("observation rendering wrong: %q", got)
	}
}
