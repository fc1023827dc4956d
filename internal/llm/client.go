package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Message 是对话接口的单条消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt 按顺序累积消息，Add 返回自身便于链式调用
type Prompt struct {
	Messages []Message
}

func NewPrompt() *Prompt {
	return &Prompt{}
}

func (p *Prompt) Add(role, content string) *Prompt {
	p.Messages = append(p.Messages, Message{Role: role, Content: content})
	return p
}

func (p *Prompt) System(content string) *Prompt {
	return p.Add("system", content)
}

// Generator 是游戏逻辑可见的生成接口
type Generator interface {
	// Generate 返回模型回复文本和本次调用的估算成本（美元）
	Generate(model string, prompt *Prompt) (string, float64, error)
}

// 成本估算用的兜底单价（美元/token），接口不返回计费时使用
const (
	promptTokenCost     = 0.000005
	completionTokenCost = 0.000015
)

// Client 调用 OpenAI 兼容的 chat completions 接口
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, maxRetries int) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *Client) Generate(model string, prompt *Prompt) (string, float64, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			zap.L().Warn(
				"重试对话请求",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
		}

		text, cost, err := c.complete(model, prompt)
		if err == nil {
			return text, cost, nil
		}

		lastErr = err
	}

	return "", 0, fmt.Errorf("对话请求失败: %w", lastErr)
}

func (c *Client) complete(model string, prompt *Prompt) (string, float64, error) {
	body, err := json.Marshal(chatRequest{Model: model, Messages: prompt.Messages})
	if err != nil {
		return "", 0, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequest(
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", 0, fmt.Errorf("构建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("对话接口返回 %d: %s", resp.StatusCode, payload)
	}

	var parsed chatResponse

	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("解析响应失败: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", 0, fmt.Errorf("响应不包含任何候选")
	}

	cost := float64(parsed.Usage.PromptTokens)*promptTokenCost +
		float64(parsed.Usage.CompletionTokens)*completionTokenCost

	return parsed.Choices[0].Message.Content, cost, nil
}

// MockClient 本地开发用的假生成器
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (*MockClient) Generate(string, *Prompt) (string, float64, error) {
	return "Mock response.", 0, nil
}

// RandomModel 从模型池中均匀抽取一个模型名
func RandomModel(models []string) string {
	if len(models) == 0 {
		return ""
	}

	return models[rand.Intn(len(models))]
}
