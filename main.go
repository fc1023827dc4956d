package main

import (
	"os"

	"go.uber.org/zap"

	"one-night-werewolf-be/internal/api/http"
	"one-night-werewolf-be/internal/config"
	"one-night-werewolf-be/internal/llm"
	"one-night-werewolf-be/internal/logger"
	"one-night-werewolf-be/internal/perf"
	"one-night-werewolf-be/internal/service"
	"one-night-werewolf-be/internal/service/session"
	"one-night-werewolf-be/internal/state"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)
	defer logger.Sync()

	// 生成器：本地开发可用假实现
	var gen llm.Generator
	if cfg.LLM.UseMock {
		gen = llm.NewMockClient()
	} else {
		gen = llm.NewClient(
			cfg.LLM.BaseURL,
			os.Getenv(cfg.LLM.APIKeyEnv),
			cfg.LLM.MaxRetries,
		)
	}

	sessions := session.NewManager()
	tracker := perf.NewTracker(cfg.PerformanceFile)

	gameSvc := service.NewGameService(cfg, sessions, gen, tracker)
	defer gameSvc.Close()

	// 本地模式：终端里跑一局就退出
	if cfg.LocalGame {
		if err := gameSvc.RunLocalGame(); err != nil {
			zap.L().Error("本地对局失败", zap.Error(err))
		}
		return
	}

	// 组装应用状态
	appState := state.NewAppState(cfg, sessions, gameSvc)

	// 启动服务器
	http.RunServer(appState)
}
