package perf

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Stats 以模型名或玩家名为键累积战绩
type Stats struct {
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	TotalCost   []float64 `json:"total_cost"`
}

// Tracker 把每局的模型表现落到一个 JSON 文件里
type Tracker struct {
	mu   sync.Mutex
	path string
	data map[string]*Stats
}

func NewTracker(path string) *Tracker {
	t := &Tracker{
		path: path,
		data: make(map[string]*Stats),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("读取战绩文件失败", zap.String("path", path), zap.Error(err))
		}
		return t
	}

	if err := json.Unmarshal(raw, &t.data); err != nil {
		zap.L().Warn("解析战绩文件失败，按空数据处理", zap.String("path", path), zap.Error(err))
		t.data = make(map[string]*Stats)
	}

	return t
}

// Update 同时记到模型和玩家名两个键上
func (t *Tracker) Update(model, name string, cost float64, won bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, key := range []string{model, name} {
		if key == "" {
			continue
		}

		s, ok := t.data[key]
		if !ok {
			s = &Stats{}
			t.data[key] = s
		}

		s.GamesPlayed++
		s.TotalCost = append(s.TotalCost, cost)
		if won {
			s.GamesWon++
		}
	}
}

func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化战绩失败: %w", err)
	}

	if err := os.WriteFile(t.path, raw, 0o644); err != nil {
		return fmt.Errorf("写入战绩文件失败: %w", err)
	}

	return nil
}

// Summary 输出每个键的胜率与平均成本，调试用
func (t *Tracker) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := ""
	for key, s := range t.data {
		if s.GamesPlayed == 0 {
			continue
		}

		total := 0.0
		for _, c := range s.TotalCost {
			total += c
		}

		out += fmt.Sprintf(
			"%s: Win Rate: %.2f%%, Avg Cost: $%.4f, Games Played: %d\n",
			key,
			float64(s.GamesWon)/float64(s.GamesPlayed)*100,
			total/float64(s.GamesPlayed),
			s.GamesPlayed,
		)
	}

	return out
}
