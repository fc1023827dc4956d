package state

import (
	"one-night-werewolf-be/internal/config"
	"one-night-werewolf-be/internal/service"
	"one-night-werewolf-be/internal/service/session"
)

type AppState struct {
	Cfg      *config.AppConfig
	Sessions *session.Manager
	GameSvc  *service.GameService
}

func NewAppState(
	cfg *config.AppConfig,
	sessions *session.Manager,
	gameSvc *service.GameService,
) *AppState {
	return &AppState{
		Cfg:      cfg,
		Sessions: sessions,
		GameSvc:  gameSvc,
	}
}
