package game

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"one-night-werewolf-be/internal/llm"
	"one-night-werewolf-be/internal/perf"
	"one-night-werewolf-be/internal/service/session"
)

// 阶段标识，严格按 setup -> night -> day -> voting -> resolution -> ended 推进
const (
	PHASE_SETUP      = "setup"
	PHASE_NIGHT      = "night"
	PHASE_DAY        = "day"
	PHASE_VOTING     = "voting"
	PHASE_RESOLUTION = "resolution"
	PHASE_ENDED      = "ended"
)

var ErrAborted = errors.New("游戏被强制结束")

// Options 是单局的全部可调参数
type Options struct {
	NumPlayers    int
	DayRounds     int
	ChoiceRetries int
	InputTimeout  time.Duration
	Models        []string
	VillageRoles  []Role
	// LocalHuman 为真时加入一个读写终端的本地人类玩家
	LocalHuman bool
}

// Login 标识一个远程人类参与者
type Login struct {
	Name     string
	Identity string
}

// Game 驱动一局游戏，整个生命周期跑在一个独立协程里
type Game struct {
	ID    string
	State *GameState

	opts     Options
	login    *Login
	sessions *session.Manager
	gen      llm.Generator
	tracker  *perf.Tracker

	rng       *rand.Rand
	createdAt time.Time

	webPlayer *WebPlayer

	phase   string
	started atomic.Bool
	over    atomic.Bool
	aborted atomic.Bool
}

func NewGame(
	opts Options,
	login *Login,
	sessions *session.Manager,
	gen llm.Generator,
	tracker *perf.Tracker,
) *Game {
	if opts.NumPlayers <= 0 {
		opts.NumPlayers = 5
	}
	if opts.DayRounds <= 0 {
		opts.DayRounds = 3
	}
	if len(opts.VillageRoles) == 0 {
		opts.VillageRoles = DefaultVillageRoles()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &Game{
		ID:        GenID(),
		State:     NewGameState(opts.NumPlayers, rng),
		opts:      opts,
		login:     login,
		sessions:  sessions,
		gen:       gen,
		tracker:   tracker,
		rng:       rng,
		createdAt: time.Now(),
		phase:     PHASE_SETUP,
	}
}

func (g *Game) Over() bool { return g.over.Load() }

// MarkStarted 声明对局协程即将启动，只会成功一次。
// 预建的对局在此之前一直挂起，等待玩家首次绑定连接。
func (g *Game) MarkStarted() bool {
	return g.started.CompareAndSwap(false, true)
}

// Abort 强制结束：置中止标志并断开远程玩家，
// 让阻塞中的输入请求立刻以断连哨兵返回
func (g *Game) Abort() {
	g.aborted.Store(true)

	if g.webPlayer != nil {
		g.sessions.HandleDisconnect(g.webPlayer.Identity())
	}
}

// WebLog 返回远程玩家的完整观察日志快照，重连重放用
func (g *Game) WebLog() []Event {
	if g.webPlayer == nil {
		return nil
	}

	return g.webPlayer.Log()
}

// LastActivity 给闲置清理判断用
func (g *Game) LastActivity() time.Time {
	if g.webPlayer != nil {
		return g.webPlayer.LastActivity()
	}

	return g.createdAt
}

// Play 顺序推进各阶段；无论哪一步失败，收尾总会执行，
// 每个玩家都能看到 game_ended
func (g *Game) Play() error {
	defer g.finish()

	if err := g.setup(); err != nil {
		return fmt.Errorf("设置游戏失败: %w", err)
	}

	if err := g.nightPhase(); err != nil {
		return err
	}

	if err := g.dayPhase(); err != nil {
		return err
	}

	executed, err := g.votingPhase()
	if err != nil {
		return err
	}

	g.resolution(executed)

	return nil
}

func (g *Game) setup() error {
	zap.L().Info("开始设置游戏", zap.String("game_id", g.ID))

	numAI := g.opts.NumPlayers

	if g.login != nil {
		g.webPlayer = NewWebPlayer(
			g.login.Name,
			g.login.Identity,
			g.sessions,
			g.opts.InputTimeout,
			g.opts.ChoiceRetries,
		)
		if err := g.State.AddPlayer(g.webPlayer); err != nil {
			return err
		}
		numAI--
	} else if g.opts.LocalHuman {
		local := NewLocalPlayer("Human", os.Stdin, os.Stdout, g.opts.ChoiceRetries)
		if err := g.State.AddPlayer(local); err != nil {
			return err
		}
		numAI--
	}

	pool := make(map[string]string, len(personalities))
	for name, personality := range personalities {
		pool[name] = personality
	}

	rules := func() string { return RulesText(g.State.RolePool) }

	for i := 0; i < numAI; i++ {
		name, personality := drawPersonality(pool, g.rng)

		player := NewAIPlayer(
			name,
			llm.RandomModel(g.opts.Models),
			personality,
			g.gen,
			rules,
			g.opts.ChoiceRetries,
		)
		if err := g.State.AddPlayer(player); err != nil {
			return err
		}
	}

	// 打乱座位
	g.rng.Shuffle(len(g.State.Players), func(i, j int) {
		g.State.Players[i], g.State.Players[j] = g.State.Players[j], g.State.Players[i]
	})

	everyoneObserve(g.State.Players, NewGameStartedEvent(g.State.PlayerNames()))

	rolePool, err := RolesForPlayerCount(len(g.State.Players), g.opts.VillageRoles)
	if err != nil {
		return err
	}
	g.State.RolePool = rolePool

	g.State.CenterCards = AssignRoles(g.State.Players, rolePool, g.rng)

	roleNames := make([]string, 0, len(rolePool))
	for _, r := range rolePool {
		roleNames = append(roleNames, r.Name())
	}

	everyoneObserve(g.State.Players, NewObservationEvent(fmt.Sprintf(
		"The full role pool in this game are: %s. Remember that 3 of them are in the center, not owned by other players.",
		strings.Join(roleNames, ", "),
	)))

	for _, p := range g.State.Players {
		p.Observe(NewObservationEvent(fmt.Sprintf(
			"Your role's strategy: %s\n",
			p.CurrentRole().Strategy(g.State),
		)))
	}

	return nil
}

// nightPhase 按行动顺序唤醒角色；玩家按初始角色行动，
// 即便当前角色已经被换走
func (g *Game) nightPhase() error {
	if g.aborted.Load() {
		return ErrAborted
	}

	g.phase = PHASE_NIGHT
	zap.L().Info("进入夜晚阶段", zap.String("game_id", g.ID))

	everyoneObserve(g.State.Players, NewPhaseEvent("Night phase begins.", PHASE_NIGHT))

	for _, role := range NightRoles(g.State.RolePool) {
		for _, p := range g.State.Players {
			if p.OriginalRole().Name() != role.Name() {
				continue
			}
			if g.aborted.Load() {
				return ErrAborted
			}

			if result := nightAction(p, g.State); result != "" {
				g.State.RecordNightAction(p, result)
			}
		}
	}

	return nil
}

func (g *Game) dayPhase() error {
	if g.aborted.Load() {
		return ErrAborted
	}

	g.phase = PHASE_DAY
	zap.L().Info("进入白天阶段", zap.String("game_id", g.ID))

	everyoneObserve(g.State.Players, NewPhaseEvent("Day phase begins", PHASE_DAY))

	rounds := g.opts.DayRounds

	for round := 0; round < rounds; round++ {
		message := fmt.Sprintf("Conversation Round %d / %d", round+1, rounds)
		if round+1 == rounds {
			message += " (FINAL CHANCE TO TALK)"
		}

		everyoneObserve(g.State.Players, NewObservationEvent(message))

		for _, speaker := range g.State.Players {
			if g.aborted.Load() {
				return ErrAborted
			}

			everyoneObserve(g.webPlayers(), NewNextSpeakerEvent(speaker.Name()))

			speech := speaker.Speak()

			everyoneObserve(g.State.Players, NewSpeechEvent(speaker.Name(), speech))
			g.State.RecordDayAction(speaker, speech)
		}
	}

	return nil
}

// votingPhase 顺序收票，全部收齐后才公示；
// 得票最多的玩家全部处决，平票则同票者同死
func (g *Game) votingPhase() ([]Player, error) {
	if g.aborted.Load() {
		return nil, ErrAborted
	}

	g.phase = PHASE_VOTING
	zap.L().Info("进入投票阶段", zap.String("game_id", g.ID))

	everyoneObserve(g.State.Players, NewPhaseEvent("Beginning of voting phase", PHASE_VOTING))

	type voteRecord struct {
		voter  Player
		target Player
	}

	votes := make([]voteRecord, 0, len(g.State.Players))

	for _, p := range g.State.Players {
		if g.aborted.Load() {
			return nil, ErrAborted
		}

		target := p.Vote(g.State.OtherPlayers(p))
		votes = append(votes, voteRecord{voter: p, target: target})
	}

	for _, v := range votes {
		everyoneObserve(
			g.State.Players,
			NewPlayerVotedEvent(v.voter.Name(), v.target.Name()),
		)
	}

	tally := make(map[Player]int)
	for _, v := range votes {
		tally[v.target]++
	}

	maxVotes := 0
	for _, count := range tally {
		if count > maxVotes {
			maxVotes = count
		}
	}

	var executed []Player
	for _, p := range g.State.Players {
		if tally[p] == maxVotes {
			executed = append(executed, p)
		}
	}

	for _, p := range executed {
		everyoneObserve(g.State.Players, NewPlayerActionEvent(
			p.Name(),
			"executed",
			fmt.Sprintf("\n%s has been executed!", p.Name()),
		))
	}

	return executed, nil
}

// resolution 按当前角色判定胜负，公布结果并揭示换牌轨迹
func (g *Game) resolution(executed []Player) {
	g.phase = PHASE_RESOLUTION
	zap.L().Info("进入结算阶段", zap.String("game_id", g.ID))

	werewolvesExist := g.State.WerewolvesExist()

	winnerSet := make(map[Player]bool)
	for _, p := range g.State.Players {
		if p.CurrentRole().DidWin(p, executed, werewolvesExist) {
			winnerSet[p] = true
		}
	}

	for _, p := range g.State.Players {
		if !winnerSet[p] {
			continue
		}

		everyoneObserve(g.State.Players, NewPlayerActionEvent(
			p.Name(),
			"win",
			fmt.Sprintf("%s wins!", p.Name()),
		))
	}

	for _, p := range g.State.Players {
		everyoneObserve(g.State.Players, NewPlayerActionEvent(
			p.Name(),
			"reveal_role",
			fmt.Sprintf(
				"%s started as %s and ended as %s.",
				p.Name(), p.OriginalRole().Name(), p.CurrentRole().Name(),
			),
		))
	}

	totalCost := 0.0

	for _, p := range g.State.Players {
		ai, ok := p.(*AIPlayer)
		if !ok {
			continue
		}

		totalCost += ai.TotalCost()

		if g.tracker != nil {
			g.tracker.Update(ai.Model(), ai.Name(), ai.TotalCost(), winnerSet[p])
		}
	}

	if g.tracker != nil {
		if err := g.tracker.Save(); err != nil {
			zap.L().Warn("保存战绩失败", zap.Error(err))
		}
	}

	zap.S().Infof("游戏 %s 结算完成，总成本 %.4f USD", g.ID, totalCost)
}

func (g *Game) finish() {
	g.phase = PHASE_ENDED
	g.over.Store(true)

	everyoneObserve(g.State.Players, NewGameEndedEvent("The game has ended."))

	zap.L().Info("游戏结束", zap.String("game_id", g.ID))
}

func (g *Game) webPlayers() []Player {
	var out []Player

	for _, p := range g.State.Players {
		if _, ok := p.(*WebPlayer); ok {
			out = append(out, p)
		}
	}

	return out
}
