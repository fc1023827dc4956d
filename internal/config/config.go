package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type LLMConfig struct {
	BaseURL    string   `mapstructure:"base_url"`
	APIKeyEnv  string   `mapstructure:"api_key_env"`
	Models     []string `mapstructure:"models"`
	MaxRetries int      `mapstructure:"max_retries"`
	UseMock    bool     `mapstructure:"use_mock"`
}

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	NumPlayers      int      `mapstructure:"num_players"`
	DayRounds       int      `mapstructure:"day_rounds"`
	ChoiceRetries   int      `mapstructure:"choice_retries"`
	InputTimeoutSec int      `mapstructure:"input_timeout_sec"`
	IdleTimeoutSec  int      `mapstructure:"idle_timeout_sec"`
	VillageRoles    []string `mapstructure:"village_roles"`
	PerformanceFile string   `mapstructure:"performance_file"`
	LocalGame       bool     `mapstructure:"local_game"`

	LLM LLMConfig `mapstructure:"llm"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	v := viper.New()

	v.SetConfigFile("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	// 游戏参数的默认值
	v.SetDefault("num_players", 5)
	v.SetDefault("day_rounds", 3)
	v.SetDefault("choice_retries", 0)
	v.SetDefault("input_timeout_sec", 180)
	v.SetDefault("idle_timeout_sec", 3600)
	v.SetDefault("village_roles", []string{
		"Seer", "Robber", "Troublemaker", "Tanner",
		"Villager", "Villager", "Villager",
	})
	v.SetDefault("performance_file", "model_performance.json")
	v.SetDefault("llm.api_key_env", "OPENROUTER_API_KEY")
	v.SetDefault("llm.max_retries", 2)

	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	return &config
}
