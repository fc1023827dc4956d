package websocket

import (
	"encoding/json"
	"time"

	"one-night-werewolf-be/internal/service"
	"one-night-werewolf-be/internal/service/game"
	"one-night-werewolf-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// LoginRequest 是连接建立后的首帧
type LoginRequest struct {
	Name       string `json:"name"`
	Credential string `json:"credential"`
}

// clientFrame 是后续入站帧：要么是动作，要么是对提示的应答
type clientFrame struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

func PlayGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		clientIP := ctx.RemoteAddr()

		// 读取首帧，获取登录信息
		_, msg, err := conn.ReadMessage()
		if err != nil {
			zap.L().Error(
				"读取首帧失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		var login LoginRequest

		if err := json.Unmarshal(msg, &login); err != nil || login.Name == "" || login.Credential == "" {
			zap.L().Error(
				"首帧不是有效的登录请求",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)

			conn.WriteJSON(game.NewErrorEvent("无效的登录请求"))

			return
		}

		identity := service.DeriveIdentity(login.Credential)

		zap.L().Info(
			"玩家接入",
			zap.String("client_ip", clientIP),
			zap.String("identity", identity),
			zap.String("player_name", login.Name),
		)

		sessions := appState.Sessions

		// 恢复场景先取日志快照再绑定：快照之前的事件走重放，
		// 绑定之后的事件走通道，两边不重不漏
		var replay []game.Event

		existing := appState.GameSvc.Lookup(identity)
		if existing != nil {
			replay = existing.WebLog()
		}

		outCh := make(chan any, 256)
		sessions.Bind(identity, outCh)

		g, resumed := appState.GameSvc.StartOrResume(game.Login{
			Name:     login.Name,
			Identity: identity,
		})

		connectMsg := "Connection Established"
		if resumed {
			connectMsg = "Reconnected to existing game"
		}

		if err := conn.WriteJSON(game.NewGameConnectEvent(g.ID, connectMsg)); err != nil {
			zap.L().Error("发送连接确认失败", zap.String("identity", identity), zap.Error(err))
			sessions.DisconnectChannel(identity, outCh)
			return
		}

		// 写协程接手前，把重放日志同步写完
		for _, event := range replay {
			if err := conn.WriteJSON(event); err != nil {
				zap.L().Error("重放事件失败", zap.String("identity", identity), zap.Error(err))
				sessions.DisconnectChannel(identity, outCh)
				return
			}
		}

		if resumed {
			zap.L().Info(
				"完成重连重放",
				zap.String("identity", identity),
				zap.Int("replayed", len(replay)),
			)
		}

		// 写入协程
		go func() {
			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						zap.L().Error(
							"发送心跳失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

					conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

				case event, ok := <-outCh:
					// 通道被关闭说明会话已解绑（断连或被新连接替换）
					if !ok {
						zap.L().Info(
							"出站通道已关闭，写协程退出",
							zap.String("client_ip", clientIP),
						)
						return
					}

					if err := conn.WriteJSON(event); err != nil {
						zap.L().Error(
							"发送事件失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}
				}
			}
		}()

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var frame clientFrame

			if err := json.Unmarshal(msg, &frame); err != nil {
				zap.L().Error(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				sessions.Push(identity, game.NewErrorEvent("无效的请求格式"))

				continue
			}

			if frame.Type == "player_action" && frame.Action == "leave_game" {
				zap.L().Info(
					"玩家请求离开",
					zap.String("identity", identity),
				)

				appState.GameSvc.Leave(identity)

				break
			}

			if !sessions.Deliver(identity, frame.Message) {
				zap.L().Warn(
					"收到非预期输入",
					zap.String("identity", identity),
				)

				sessions.Push(identity, game.NewErrorEvent("No input was expected at this time."))
			}
		}

		// 读循环退出，收尾本连接；若会话已被新连接接管则不动它
		sessions.DisconnectChannel(identity, outCh)

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("identity", identity),
		)
	}
}
