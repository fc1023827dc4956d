package game

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"one-night-werewolf-be/internal/llm"
)

const thinkPrompt = `First think step by step in point form.
What do you believe, how strongly, and why?
What can you logically induce from your observations? Quote relevant the relevant rules and double check your reasoning.

Should your strategy change given new information?

Then answer the following question in the correct {} format:
`

const speakInstruction = "What would you like to say to the other players? After thinking, enter your message between curly brackets like {This is my message.} Keep it focused on logical reasoning. Be intentional about what you share - don't self incriminate. Try to *accomplish* something with your message, don't pass or be scared of risk. Other players will expect you to tell your role and observations and you will look suspicious if you don't. If you say you're a role, they'll expect you to have the information that role would have. If you say you have information, they will expect your role to back it up. Don't say you have a hunch or feeling, make claims."

// AIPlayer 用对话模型扮演的参与者
type AIPlayer struct {
	*playerCore

	model       string
	personality string
	gen         llm.Generator

	// rules 延迟求值，开局发牌后才有完整角色池
	rules func() string

	totalCost float64
}

func NewAIPlayer(
	name string,
	model string,
	personality string,
	gen llm.Generator,
	rules func() string,
	retries int,
) *AIPlayer {
	p := &AIPlayer{
		model:       model,
		personality: personality,
		gen:         gen,
		rules:       rules,
	}

	core := newPlayerCore(name, retries)
	core.ask = func(req PromptRequest) string {
		return p.promptWith(req, false)
	}
	p.playerCore = core

	return p
}

func (p *AIPlayer) Model() string { return p.model }

func (p *AIPlayer) TotalCost() float64 { return p.totalCost }

func (p *AIPlayer) Speak() string {
	var b strings.Builder

	if p.personality != "" {
		fmt.Fprintf(&b, "\nYour personality is: %s Don't over do it, focus on the game.\n", p.personality)
	}
	b.WriteString(speakInstruction)

	response := p.promptWith(
		PromptRequest{Text: b.String(), ShouldThink: true},
		true,
	)

	message := response
	if idx := strings.LastIndex(response, "{"); idx >= 0 {
		message = response[idx+1:]
	}

	return strings.ReplaceAll(message, "}", "")
}

// promptWith 组装系统提示（身份、规则、全部观察），调用模型，
// 并把问答对记入自己的观察日志
func (p *AIPlayer) promptWith(req PromptRequest, rulesCheck bool) string {
	prompt := llm.NewPrompt().
		System(fmt.Sprintf("You're playing a social deduction game. Your name is %s", p.name)).
		System(p.rules())

	for _, observation := range p.Log() {
		prompt.System(observation.AIText())
	}

	text := req.Text
	if req.ShouldThink {
		text = thinkPrompt + text
	}

	prompt.System(text)

	response := p.generate(prompt)

	p.Observe(Event{
		Type: EVENT_MY_ACTION,
		Message: fmt.Sprintf(
			"I was asked: %s\n\n I responded: %s\n\n\n",
			text, response,
		),
	})

	if rulesCheck {
		p.checkRules(response)
	}

	return response
}

// checkRules 让模型以规则精灵的身份复查自己的发言，
// 发现疑似规则错误时追加一条软性提醒
func (p *AIPlayer) checkRules(message string) {
	prompt := fmt.Sprintf(`You are a Rules Genie for a social deduction game.
Your job is to check if a player's statement contains rules errors or faulty reasoning.

%s

Player's statement:
%s

For each logical or rules statement the player made while thinking, determine if it is solid reasoning step by step while quoting the relevant original rules. It's normal for player's to lie to each other while speaking, so only report errors if you think they're unintentional. You can backtrack if you find you're making a mistake.

When you're done reasoning, provide an answer in {} brackets.
If the statement contains any errors, explain the errors in the brackets. If not, say '{No errors found}.'`,
		p.rules(), message)

	response := p.generate(llm.NewPrompt().System(prompt))

	if strings.Contains(response, "No errors found") {
		return
	}

	part := response
	if idx := strings.LastIndex(response, "{"); idx >= 0 {
		part = response[idx+1:]
	}
	part = strings.ReplaceAll(part, "}", "")

	p.Observe(NewRulesErrorEvent(
		"Rules Genie: Hi, I might have noticed a rules error in your last message. If this was intentional (or *I* am mistaken), just ignore me. It's also fine to pretend to make a rules error when talking.\n" + part,
	))
}

// generate 调用模型并累计成本；失败时降级为固定的无应答文本
func (p *AIPlayer) generate(prompt *llm.Prompt) string {
	response, cost, err := p.gen.Generate(p.model, prompt)
	if err != nil {
		zap.L().Warn(
			"模型调用失败，降级为无应答",
			zap.String("player", p.name),
			zap.String("model", p.model),
			zap.Error(err),
		)
		return "(No response)"
	}

	p.totalCost += cost

	return response
}
