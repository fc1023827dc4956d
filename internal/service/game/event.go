package game

import (
	"fmt"
	"strings"
	"time"
)

// 事件类型
const (
	EVENT_GAME_CONNECT  = "game_connect"
	EVENT_GAME_STARTED  = "game_started"
	EVENT_GAME_ENDED    = "game_ended"
	EVENT_PHASE         = "phase"
	EVENT_SPEECH        = "speech"
	EVENT_PROMPT        = "prompt"
	EVENT_NEXT_SPEAKER  = "next_speaker"
	EVENT_PLAYER_ACTION = "player_action"
	EVENT_PLAYER_VOTED  = "player_voted"
	EVENT_OBSERVATION   = "observation"
	EVENT_RULES_ERROR   = "rules_error"
	EVENT_INVALID_INPUT = "invalid_input"
	EVENT_MY_ACTION     = "my_action"
	EVENT_ERROR         = "error"
)

type PromptChoice struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Event 是出站消息的统一载体，按类型使用其中一部分字段。
// 所有字段可序列化，完整事件日志可以原样重放给重连的客户端。
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Username  string `json:"username,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	GameID  string   `json:"gameId,omitempty"`
	Players []string `json:"players,omitempty"`
	Phase   string   `json:"phase,omitempty"`
	Player  string   `json:"player,omitempty"`
	Action  string   `json:"action,omitempty"`

	Choices    []PromptChoice `json:"choices,omitempty"`
	Multiple   bool           `json:"multiple,omitempty"`
	MinChoices int            `json:"min_choices,omitempty"`
	MaxChoices int            `json:"max_choices,omitempty"`
}

func newEvent(eventType, message string) Event {
	return Event{
		Type:      eventType,
		Message:   message,
		Username:  "System",
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func NewGameConnectEvent(gameID, message string) Event {
	e := newEvent(EVENT_GAME_CONNECT, message)
	e.GameID = gameID
	return e
}

func NewGameStartedEvent(players []string) Event {
	e := newEvent(
		EVENT_GAME_STARTED,
		fmt.Sprintf("The players in this game are: %s.", strings.Join(players, ", ")),
	)
	e.Players = players
	return e
}

func NewGameEndedEvent(message string) Event {
	return newEvent(EVENT_GAME_ENDED, message)
}

func NewPhaseEvent(message, phase string) Event {
	e := newEvent(EVENT_PHASE, message)
	e.Phase = phase
	return e
}

func NewSpeechEvent(username, message string) Event {
	e := newEvent(EVENT_SPEECH, message)
	e.Username = username
	return e
}

func NewNextSpeakerEvent(player string) Event {
	e := Event{Type: EVENT_NEXT_SPEAKER}
	e.Player = player
	return e
}

func NewPlayerActionEvent(player, action, message string) Event {
	e := newEvent(EVENT_PLAYER_ACTION, message)
	e.Player = player
	e.Action = action
	return e
}

func NewPlayerVotedEvent(voter, target string) Event {
	return newEvent(
		EVENT_PLAYER_VOTED,
		fmt.Sprintf("%s voted for %s", voter, target),
	)
}

func NewObservationEvent(message string) Event {
	return newEvent(EVENT_OBSERVATION, message)
}

func NewRulesErrorEvent(message string) Event {
	return newEvent(EVENT_RULES_ERROR, message)
}

func NewInvalidInputEvent(message string) Event {
	return newEvent(EVENT_INVALID_INPUT, message)
}

func NewErrorEvent(message string) Event {
	return newEvent(EVENT_ERROR, message)
}

// NewPromptEvent 由 PromptRequest 构造发给客户端的提示事件
func NewPromptEvent(req PromptRequest) Event {
	e := newEvent(EVENT_PROMPT, req.Text)
	e.Choices = req.Choices
	e.Multiple = req.Multiple
	e.MinChoices = req.Min
	e.MaxChoices = req.Max
	return e
}

// AIText 把事件渲染成给模型看的一行文本
func (e Event) AIText() string {
	switch e.Type {
	case EVENT_SPEECH:
		return fmt.Sprintf("%s: %s", e.Username, e.Message)
	case EVENT_NEXT_SPEAKER:
		return fmt.Sprintf("Next speaker: %s", e.Player)
	default:
		if e.Message != "" {
			return e.Message
		}
		return fmt.Sprintf("Event: %s", e.Type)
	}
}
