package game

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"one-night-werewolf-be/internal/service/session"
)

// WebPlayer 通过会话管理器连接的远程人类参与者。
// 观察即推送；提示走一次性输入会合，超时和断连由哨兵串兜底。
type WebPlayer struct {
	*playerCore

	identity     string
	sessions     *session.Manager
	inputTimeout time.Duration

	lastActivity atomic.Int64
}

func NewWebPlayer(
	name string,
	identity string,
	sessions *session.Manager,
	inputTimeout time.Duration,
	retries int,
) *WebPlayer {
	p := &WebPlayer{
		identity:     identity,
		sessions:     sessions,
		inputTimeout: inputTimeout,
	}
	p.touch()

	core := newPlayerCore(name, retries)
	core.ask = p.promptWith
	core.printer = func(e Event) {
		sessions.Push(identity, e)
	}
	p.playerCore = core

	return p
}

func (p *WebPlayer) Identity() string { return p.identity }

func (p *WebPlayer) LastActivity() time.Time {
	return time.Unix(p.lastActivity.Load(), 0)
}

func (p *WebPlayer) touch() {
	p.lastActivity.Store(time.Now().Unix())
}

func (p *WebPlayer) promptWith(req PromptRequest) string {
	zap.L().Info(
		"向远程玩家发送提示",
		zap.String("player", p.name),
		zap.String("identity", p.identity),
	)

	answer := p.sessions.RequestInput(
		p.identity,
		NewPromptEvent(req),
		p.inputTimeout,
	)

	if answer != session.NoResponseText && answer != session.DisconnectedText {
		p.touch()
	}

	return answer
}
