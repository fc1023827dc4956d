package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"one-night-werewolf-be/internal/config"
	"one-night-werewolf-be/internal/llm"
	"one-night-werewolf-be/internal/perf"
	"one-night-werewolf-be/internal/service/game"
	"one-night-werewolf-be/internal/service/session"
)

// DeriveIdentity 从凭据推导稳定身份：SHA-256 摘要的前 16 个十六进制字符
func DeriveIdentity(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])[:16]
}

type GameService struct {
	state *gameServiceState

	cfg      *config.AppConfig
	sessions *session.Manager
	gen      llm.Generator
	tracker  *perf.Tracker

	opts game.Options
}

type gameServiceState struct {
	mu sync.RWMutex

	// 身份到进行中对局的映射
	games map[string]*game.Game

	cleanUpDone chan struct{}
}

func NewGameService(
	cfg *config.AppConfig,
	sessions *session.Manager,
	gen llm.Generator,
	tracker *perf.Tracker,
) *GameService {
	villageRoles := make([]game.Role, 0, len(cfg.VillageRoles))
	for _, name := range cfg.VillageRoles {
		role, err := game.RoleByName(name)
		if err != nil {
			panic(err)
		}
		villageRoles = append(villageRoles, role)
	}

	// 玩家数和角色池是静态配置，启动时就校验，
	// 不要等到第一局开局才失败
	if _, err := game.RolesForPlayerCount(cfg.NumPlayers, villageRoles); err != nil {
		panic(err)
	}

	state := &gameServiceState{
		games:       make(map[string]*game.Game),
		cleanUpDone: make(chan struct{}),
	}

	svc := &GameService{
		state:    state,
		cfg:      cfg,
		sessions: sessions,
		gen:      gen,
		tracker:  tracker,
		opts: game.Options{
			NumPlayers:    cfg.NumPlayers,
			DayRounds:     cfg.DayRounds,
			ChoiceRetries: cfg.ChoiceRetries,
			InputTimeout:  time.Duration(cfg.InputTimeoutSec) * time.Second,
			Models:        cfg.LLM.Models,
			VillageRoles:  villageRoles,
		},
	}

	// 定期清理闲置和已结束的对局
	go svc.startCleanupLoop()

	return svc
}

func (s *GameService) Close() {
	close(s.state.cleanUpDone)
}

func (s *GameService) Sessions() *session.Manager {
	return s.sessions
}

// StartOrResume 为该身份预建或返回进行中的对局。
// 对局协程只在该身份已绑定连接后才启动：REST 预建的对局
// 保持挂起，等 WebSocket 首次绑定时再开打，避免玩家还没
// 连上就被超时兜底替跑完整局。结束后自动从注册表摘除。
func (s *GameService) StartOrResume(login game.Login) (*game.Game, bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, ok := s.state.games[login.Identity]
	resumed := ok && !g.Over()

	if resumed {
		zap.L().Info(
			"恢复进行中的对局",
			zap.String("identity", login.Identity),
			zap.String("game_id", g.ID),
		)
	} else {
		g = game.NewGame(s.opts, &login, s.sessions, s.gen, s.tracker)
		s.state.games[login.Identity] = g

		zap.L().Info(
			"创建新对局",
			zap.String("identity", login.Identity),
			zap.String("game_id", g.ID),
			zap.String("player_name", login.Name),
		)
	}

	if s.sessions.Bound(login.Identity) {
		s.launch(login.Identity, g)
	}

	return g, resumed
}

// launch 启动对局协程，对同一对局至多生效一次
func (s *GameService) launch(identity string, g *game.Game) {
	if !g.MarkStarted() {
		return
	}

	go func() {
		if err := g.Play(); err != nil && !errors.Is(err, game.ErrAborted) {
			zap.L().Error(
				"对局异常结束",
				zap.String("game_id", g.ID),
				zap.Error(err),
			)
		}

		s.remove(identity, g)
	}()
}

// Lookup 返回该身份进行中的对局
func (s *GameService) Lookup(identity string) *game.Game {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	g, ok := s.state.games[identity]
	if !ok || g.Over() {
		return nil
	}

	return g
}

// Leave 主动退出：丢弃该身份的对局并断开连接
func (s *GameService) Leave(identity string) {
	s.state.mu.Lock()
	g := s.state.games[identity]
	delete(s.state.games, identity)
	s.state.mu.Unlock()

	if g != nil {
		g.Abort()
		zap.L().Info(
			"玩家离开对局",
			zap.String("identity", identity),
			zap.String("game_id", g.ID),
		)
	}

	s.sessions.HandleDisconnect(identity)
}

// RunLocalGame 在终端里跑一局带本地人类玩家的游戏
func (s *GameService) RunLocalGame() error {
	opts := s.opts
	opts.LocalHuman = true

	g := game.NewGame(opts, nil, s.sessions, s.gen, s.tracker)

	return g.Play()
}

func (s *GameService) remove(identity string, g *game.Game) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if s.state.games[identity] == g {
		delete(s.state.games, identity)
	}
}

func (s *GameService) startCleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	idleTimeout := time.Duration(s.cfg.IdleTimeoutSec) * time.Second

	for {
		select {
		case <-s.state.cleanUpDone:
			return

		case <-ticker.C:
			s.state.mu.Lock()

			for identity, g := range s.state.games {
				switch {
				case g.Over():
					delete(s.state.games, identity)

				case time.Since(g.LastActivity()) > idleTimeout:
					zap.S().Infof("对局 %s 闲置超时，强制结束", g.ID)

					s.sessions.Push(identity, game.NewGameEndedEvent("Game ended due to inactivity"))
					g.Abort()

					delete(s.state.games, identity)
				}
			}

			s.state.mu.Unlock()
		}
	}
}
