package game

import (
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"one-night-werewolf-be/internal/llm"
	"one-night-werewolf-be/internal/perf"
	"one-night-werewolf-be/internal/service/session"
)

func countEvents(log []Event, eventType string) int {
	n := 0
	for _, e := range log {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestNightPhase_OriginalRolesActAfterSwaps(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	a := newScriptedPlayer("A")
	b := newScriptedPlayer("B", "{0, A}")
	c := newScriptedPlayer("C", "{0 2, A D}")
	d := newScriptedPlayer("D")

	a.AssignRole(Werewolf{})
	b.AssignRole(Robber{})
	c.AssignRole(Troublemaker{})
	d.AssignRole(Villager{})

	g := &Game{ID: "test-night", State: NewGameState(4, rng)}
	g.State.Players = []Player{a, b, c, d}
	g.State.RolePool = []Role{
		Werewolf{}, Werewolf{}, Robber{}, Troublemaker{}, Villager{}, Seer{}, Tanner{},
	}
	g.State.CenterCards = []Role{Werewolf{}, Seer{}, Tanner{}}

	if err := g.nightPhase(); err != nil {
		t.Fatalf("night phase failed: %v", err)
	}

	// Werewolf A was a lone wolf and saw a center card
	if len(g.State.NightActions) != 3 {
		t.Fatalf("want 3 recorded night actions, got %d", len(g.State.NightActions))
	}
	if g.State.NightActions[0].Player != a ||
		!strings.Contains(g.State.NightActions[0].Action, "in the center") {
		t.Fatalf("lone wolf should have seen a center card: %+v", g.State.NightActions[0])
	}

	// Robber B stole the Werewolf card from A
	if b.CurrentRole().Name() != "Werewolf" || b.OriginalRole().Name() != "Robber" {
		t.Fatalf("robber swap failed: current=%s original=%s",
			b.CurrentRole().Name(), b.OriginalRole().Name())
	}

	// Troublemaker C (acting on its original role) swapped A and D afterwards
	if a.CurrentRole().Name() != "Villager" {
		t.Fatalf("A should hold D's Villager card, got %s", a.CurrentRole().Name())
	}
	if d.CurrentRole().Name() != "Robber" {
		t.Fatalf("D should hold A's robbed card, got %s", d.CurrentRole().Name())
	}
	if c.CurrentRole().Name() != "Troublemaker" {
		t.Fatalf("C's own card must be untouched, got %s", c.CurrentRole().Name())
	}

	// private results land only in the actor's log
	if countEvents(d.Log(), EVENT_PLAYER_ACTION) != 1 {
		// D has only its role assignment, no night action of its own
		t.Fatalf("D must not see other players' night results: %+v", d.Log())
	}
}

func TestDayPhase_SpeechRounds(t *testing.T) {
	a := newScriptedPlayer("A", "claim one", "claim two")
	b := newScriptedPlayer("B", "doubt one", "doubt two")
	c := newScriptedPlayer("C", "note one", "note two")

	g := &Game{ID: "test-day", State: NewGameState(3, rand.New(rand.NewSource(3)))}
	g.State.Players = []Player{a, b, c}
	g.opts.DayRounds = 2

	if err := g.dayPhase(); err != nil {
		t.Fatalf("day phase failed: %v", err)
	}

	for _, p := range g.State.Players {
		if got := countEvents(p.Log(), EVENT_SPEECH); got != 6 {
			t.Fatalf("%s: want 6 speeches (2 rounds x 3 players), got %d", p.Name(), got)
		}
	}

	// the last round is flagged as the final chance to talk
	final := false
	for _, e := range a.Log() {
		if e.Type == EVENT_OBSERVATION && strings.Contains(e.Message, "FINAL CHANCE TO TALK") {
			final = true
		}
	}
	if !final {
		t.Fatalf("final round announcement missing")
	}

	// seating order is respected within a round
	var speakers []string
	for _, e := range a.Log() {
		if e.Type == EVENT_SPEECH {
			speakers = append(speakers, e.Username)
		}
	}
	want := []string{"A", "B", "C", "A", "B", "C"}
	for i := range want {
		if speakers[i] != want[i] {
			t.Fatalf("speaking order wrong: %v", speakers)
		}
	}
}

func TestVotingPhase_TieExecutesAll(t *testing.T) {
	// A votes B, B votes A, C votes A, D votes B: two-way tie at 2
	a := newScriptedPlayer("A", "{0, B}")
	b := newScriptedPlayer("B", "{0, A}")
	c := newScriptedPlayer("C", "{0, A}")
	d := newScriptedPlayer("D", "{1, B}")

	g := &Game{ID: "test-vote", State: NewGameState(4, rand.New(rand.NewSource(5)))}
	g.State.Players = []Player{a, b, c, d}

	executed, err := g.votingPhase()
	if err != nil {
		t.Fatalf("voting phase failed: %v", err)
	}

	if len(executed) != 2 || executed[0] != a || executed[1] != b {
		names := make([]string, 0, len(executed))
		for _, p := range executed {
			names = append(names, p.Name())
		}
		t.Fatalf("want both A and B executed, got %v", names)
	}

	// all vote announcements precede any execution announcement
	log := c.Log()
	lastVote, firstExec := -1, -1
	for i, e := range log {
		switch e.Type {
		case EVENT_PLAYER_VOTED:
			lastVote = i
		case EVENT_PLAYER_ACTION:
			if e.Action == "executed" && firstExec < 0 {
				firstExec = i
			}
		}
	}
	if countEvents(log, EVENT_PLAYER_VOTED) != 4 {
		t.Fatalf("want 4 vote announcements, got %d", countEvents(log, EVENT_PLAYER_VOTED))
	}
	if firstExec < lastVote {
		t.Fatalf("executions must only be announced after all votes are public")
	}
}

func TestPlay_EndToEndWithMockGenerator(t *testing.T) {
	tracker := perf.NewTracker(filepath.Join(t.TempDir(), "perf.json"))

	g := NewGame(
		Options{
			NumPlayers: 5,
			DayRounds:  3,
			Models:     []string{"mock-model"},
		},
		nil,
		session.NewManager(),
		llm.NewMockClient(),
		tracker,
	)

	if err := g.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if !g.Over() {
		t.Fatalf("game must be marked over")
	}

	if len(g.State.Players) != 5 {
		t.Fatalf("want 5 players, got %d", len(g.State.Players))
	}
	if len(g.State.RolePool) != 8 || countRole(g.State.RolePool, "Werewolf") != 2 {
		t.Fatalf("bad role pool: %v", g.State.RolePool)
	}
	if len(g.State.CenterCards) != 3 {
		t.Fatalf("want 3 center cards, got %d", len(g.State.CenterCards))
	}

	for _, p := range g.State.Players {
		log := p.Log()

		if got := countEvents(log, EVENT_SPEECH); got != 15 {
			t.Fatalf("%s: want 15 speeches (3 rounds x 5 players), got %d", p.Name(), got)
		}
		if got := countEvents(log, EVENT_GAME_ENDED); got != 1 {
			t.Fatalf("%s: want exactly one game_ended, got %d", p.Name(), got)
		}
		if got := countEvents(log, EVENT_PLAYER_VOTED); got != 5 {
			t.Fatalf("%s: want 5 vote announcements, got %d", p.Name(), got)
		}
	}

	if !strings.Contains(tracker.Summary(), "mock-model") {
		t.Fatalf("performance tracker was not updated: %q", tracker.Summary())
	}
}

func TestPlay_InvalidPlayerCountStillTearsDown(t *testing.T) {
	g := NewGame(
		Options{
			NumPlayers: 7,
			Models:     []string{"mock-model"},
		},
		nil,
		session.NewManager(),
		llm.NewMockClient(),
		nil,
	)

	if err := g.Play(); err == nil {
		t.Fatalf("expected setup error for unsupported player count")
	}

	if !g.Over() {
		t.Fatalf("game must be over even after a setup failure")
	}

	// every player already seated still sees the teardown event
	for _, p := range g.State.Players {
		log := p.Log()
		if len(log) == 0 || log[len(log)-1].Type != EVENT_GAME_ENDED {
			t.Fatalf("%s: missing game_ended after failed setup", p.Name())
		}
	}
}
