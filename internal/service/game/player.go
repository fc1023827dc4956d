package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

// PromptRequest 是向某个参与者征求一段自由文本的请求。
// Choices 等字段只在选择类提示中填充，供前端结构化渲染。
type PromptRequest struct {
	Text        string
	Choices     []PromptChoice
	Multiple    bool
	Min         int
	Max         int
	ShouldThink bool
}

type ChoiceOptions struct {
	Multiple bool
	// Min 为 0 时按 1 处理
	Min int
	// Max 为 0 时不限制
	Max int
}

// Player 是三类参与者（模型、本地人类、远程人类）的统一能力契约
type Player interface {
	Name() string
	CurrentRole() Role
	OriginalRole() Role
	// AssignRole 同时设定初始角色和当前角色，并记录私有观察
	AssignRole(role Role)
	// SetCurrentRole 只改当前角色，夜晚换牌用
	SetCurrentRole(role Role)
	Observe(e Event)
	Log() []Event
	Speak() string
	Vote(candidates []Player) Player
	GetChoice(prompt string, choices []PromptChoice, opts ChoiceOptions) []int
}

// playerCore 承载三种变体共享的状态与行为。
// ask 由各变体在构造时注入，是其余能力的唯一变化点。
type playerCore struct {
	name string

	mu           sync.Mutex
	role         Role
	originalRole Role
	observations []Event

	ask     func(req PromptRequest) string
	printer func(e Event)

	retries int
}

func newPlayerCore(name string, retries int) *playerCore {
	return &playerCore{
		name:    name,
		retries: retries,
	}
}

func (c *playerCore) Name() string { return c.name }

func (c *playerCore) CurrentRole() Role {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.role
}

func (c *playerCore) OriginalRole() Role {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.originalRole
}

func (c *playerCore) AssignRole(role Role) {
	c.mu.Lock()
	c.role = role
	c.originalRole = role
	c.mu.Unlock()

	c.Observe(NewPlayerActionEvent(
		c.name,
		"role_assignment",
		fmt.Sprintf("Your initial role is %s", role.Name()),
	))
}

func (c *playerCore) SetCurrentRole(role Role) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.role = role
}

func (c *playerCore) Observe(e Event) {
	c.mu.Lock()
	c.observations = append(c.observations, e)
	c.mu.Unlock()

	if c.printer != nil {
		c.printer(e)
	}
}

// Log 返回观察日志的快照，重连重放依赖其顺序
func (c *playerCore) Log() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Event{}, c.observations...)
}

func (c *playerCore) Speak() string {
	return c.ask(PromptRequest{
		Text: "What would you like to say to the other players?",
	})
}

// Vote 基于 GetChoice 实现；candidates 由调用方保证不含自己
func (c *playerCore) Vote(candidates []Player) Player {
	choices := make([]PromptChoice, 0, len(candidates))
	for i, p := range candidates {
		choices = append(choices, PromptChoice{Index: i, Name: p.Name()})
	}

	picks := c.GetChoice(
		"Which player do you want to vote to execute?",
		choices,
		ChoiceOptions{},
	)

	return candidates[picks[0]]
}

// GetChoice 征求并解析一次选择。无论对方怎么回答都会返回
// 至少 Min 个合法下标：解析失败时换成均匀随机的合法选择，
// 并向该玩家追加一条纠正观察。
func (c *playerCore) GetChoice(prompt string, choices []PromptChoice, opts ChoiceOptions) []int {
	min := opts.Min
	if min < 1 {
		min = 1
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n")
	for _, choice := range choices {
		fmt.Fprintf(&b, "%d: %s\n", choice.Index, choice.Name)
	}

	if opts.Multiple {
		b.WriteString("\nYour final answer must take the form {choice_numbers, choice names}, eg {1 3, Bob Clyde}.")
	} else {
		b.WriteString("\nYour final answer must take the form {choice_number, choice name}, eg {1, Bob}.")
	}

	req := PromptRequest{
		Text:        b.String(),
		Choices:     choices,
		Multiple:    opts.Multiple,
		Min:         min,
		Max:         opts.Max,
		ShouldThink: true,
	}

	for attempt := 0; attempt <= c.retries; attempt++ {
		response := c.ask(req)

		nums := ParseChoiceNumbers(response, len(choices))

		if !opts.Multiple && len(nums) > 1 {
			nums = nums[:1]
		}
		if opts.Max > 0 && len(nums) > opts.Max {
			nums = nums[:opts.Max]
		}

		if len(nums) >= min {
			return nums
		}
	}

	picks := randomChoices(len(choices), min)

	words := make([]string, 0, len(picks))
	for _, n := range picks {
		words = append(words, strconv.Itoa(n))
	}

	c.Observe(NewInvalidInputEvent(fmt.Sprintf(
		"Invalid choice. Randomly chose %s",
		strings.Join(words, " "),
	)))

	return picks
}

// ParseChoiceNumbers 宽容地解析一段自由回答：
// 取最后一个 "{" 之后的片段，去掉标点，提取整数，
// 丢弃不在 [0, numChoices) 内的值
func ParseChoiceNumbers(response string, numChoices int) []int {
	segment := response
	if idx := strings.LastIndex(response, "{"); idx >= 0 {
		segment = response[idx+1:]
	}

	replacer := strings.NewReplacer(
		",", " ",
		"\"", " ",
		"'", " ",
		".", " ",
		"*", " ",
		":", " ",
		"}", " ",
	)

	var nums []int

	for _, word := range strings.Fields(replacer.Replace(segment)) {
		n, err := strconv.Atoi(word)
		if err != nil || n < 0 || n >= numChoices {
			continue
		}
		nums = append(nums, n)
	}

	return nums
}

// randomChoices 均匀抽取 count 个互不相同的合法下标
func randomChoices(numChoices, count int) []int {
	if count > numChoices {
		count = numChoices
	}

	return rand.Perm(numChoices)[:count]
}

// nightAction 让玩家按初始角色行动，并把结果记进其私有日志
func nightAction(p Player, st *GameState) string {
	result := p.OriginalRole().NightAction(p, st)

	if result != "" {
		p.Observe(NewPlayerActionEvent(p.Name(), "night_action", result))
	}

	return result
}

func everyoneObserve(players []Player, e Event) {
	for _, p := range players {
		p.Observe(e)
	}
}
