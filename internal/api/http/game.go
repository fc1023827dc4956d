package http

import (
	"one-night-werewolf-be/internal/service"
	"one-night-werewolf-be/internal/service/game"
	"one-night-werewolf-be/internal/state"

	"github.com/kataras/iris/v12"
)

type CreateGameRequest struct {
	Name       string `json:"name"`
	Credential string `json:"credential"`
}

type CreateGameResponse struct {
	GameID  string `json:"game_id"`
	Resumed bool   `json:"resumed"`
}

// CreateGame 预建对局：同一身份重复调用返回进行中的那局。
// 对局协程不在这里启动，要等该身份的 WebSocket 首次绑定，
// 避免玩家还没连上就被输入超时兜底推着跑完整局。
func CreateGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req CreateGameRequest

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "请求参数无效",
			})
			return
		}

		if req.Name == "" || req.Credential == "" {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "名字和凭据不能为空",
			})
			return
		}

		login := game.Login{
			Name:     req.Name,
			Identity: service.DeriveIdentity(req.Credential),
		}

		g, resumed := appState.GameSvc.StartOrResume(login)

		ctx.JSON(CreateGameResponse{
			GameID:  g.ID,
			Resumed: resumed,
		})
	}
}
