package game

import (
	"errors"
	"math/rand"
)

// ActionRecord 记录一名玩家的一次行动结果
type ActionRecord struct {
	Player Player
	Action string
}

// GameState 是单局的共享状态，只被该局的协程触碰
type GameState struct {
	Players      []Player
	RolePool     []Role
	CenterCards  []Role
	NightActions []ActionRecord
	DayActions   []ActionRecord

	numPlayers int
	rng        *rand.Rand
}

func NewGameState(numPlayers int, rng *rand.Rand) *GameState {
	return &GameState{
		numPlayers: numPlayers,
		rng:        rng,
	}
}

func (s *GameState) AddPlayer(p Player) error {
	if len(s.Players) >= s.numPlayers {
		return errors.New("玩家数已达上限")
	}

	s.Players = append(s.Players, p)

	return nil
}

// OtherPlayers 按座位顺序返回除 p 外的所有玩家
func (s *GameState) OtherPlayers(p Player) []Player {
	others := make([]Player, 0, len(s.Players))

	for _, other := range s.Players {
		if other != p {
			others = append(others, other)
		}
	}

	return others
}

func (s *GameState) PoolHasRole(name string) bool {
	for _, r := range s.RolePool {
		if r.Name() == name {
			return true
		}
	}

	return false
}

// WerewolvesExist 按当前角色判断场上是否还有狼人
func (s *GameState) WerewolvesExist() bool {
	for _, p := range s.Players {
		if p.CurrentRole().Name() == ROLE_WEREWOLF {
			return true
		}
	}

	return false
}

func (s *GameState) RandomCenterCard() Role {
	return s.CenterCards[s.rng.Intn(len(s.CenterCards))]
}

func (s *GameState) RecordNightAction(p Player, action string) {
	s.NightActions = append(s.NightActions, ActionRecord{Player: p, Action: action})
}

func (s *GameState) RecordDayAction(p Player, action string) {
	s.DayActions = append(s.DayActions, ActionRecord{Player: p, Action: action})
}

func (s *GameState) PlayerNames() []string {
	names := make([]string, 0, len(s.Players))

	for _, p := range s.Players {
		names = append(names, p.Name())
	}

	return names
}
