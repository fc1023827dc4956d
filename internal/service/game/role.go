package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// 夜晚行动顺序；达到 WAKE_NEVER 的角色夜晚不行动
const (
	WAKE_ORDER_WEREWOLF     = 10
	WAKE_ORDER_SEER         = 20
	WAKE_ORDER_ROBBER       = 30
	WAKE_ORDER_TROUBLEMAKER = 40
	WAKE_NEVER              = 100
)

const ROLE_WEREWOLF = "Werewolf"

// Role 是封闭的角色变体集。身份比较一律按 Name。
type Role interface {
	Name() string
	WakeOrder() int
	// NightAction 返回行动者私有的行动结果文本，空串表示无行动。
	// 行动可以当场交换玩家的当前角色。
	NightAction(actor Player, st *GameState) string
	Rules() string
	Strategy(st *GameState) string
	// DidWin 按玩家的当前角色判定，多个阵营可以同时获胜
	DidWin(self Player, executed []Player, werewolvesExist bool) bool
}

func SameRole(a, b Role) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Name() == b.Name()
}

// roleInteraction 是仅当对应角色在本局角色池中才给出的策略建议
type roleInteraction struct {
	other  string
	advice string
}

func strategyText(st *GameState, general []string, interactions []roleInteraction) string {
	lines := append([]string{}, general...)

	for _, ri := range interactions {
		if st.PoolHasRole(ri.other) {
			lines = append(lines, ri.advice)
		}
	}

	return strings.Join(lines, "\n")
}

func villageDidWin(executed []Player, werewolvesExist bool) bool {
	for _, p := range executed {
		if p.CurrentRole().Name() == ROLE_WEREWOLF {
			return true
		}
	}

	return !werewolvesExist
}

func executedContains(executed []Player, self Player) bool {
	for _, p := range executed {
		if p == self {
			return true
		}
	}

	return false
}

// ---- Werewolf ----

type Werewolf struct{}

func (Werewolf) Name() string   { return ROLE_WEREWOLF }
func (Werewolf) WakeOrder() int { return WAKE_ORDER_WEREWOLF }

func (Werewolf) NightAction(actor Player, st *GameState) string {
	var others []string

	for _, p := range st.Players {
		if p != actor && p.CurrentRole().Name() == ROLE_WEREWOLF {
			others = append(others, p.Name())
		}
	}

	if len(others) > 0 {
		return fmt.Sprintf(
			"You see that %s is/are also Werewolf/Werewolves.",
			strings.Join(others, ", "),
		)
	}

	// 独狼看一张随机中央牌
	card := st.RandomCenterCard()
	return fmt.Sprintf(
		"You see there is no other Werewolf. You see a %s in the center.",
		card.Name(),
	)
}

func (Werewolf) Rules() string {
	return "Werewolves will see the identities of other werewolves during the night phase. If there are no other wereolves, they see a random center card. They win if no Werewolf is executed."
}

func (Werewolf) Strategy(st *GameState) string {
	return strategyText(st,
		[]string{
			"Generally, it is best to claim Village roles that gain no or little information, like Troublemaker",
		},
		[]roleInteraction{
			{"Tanner", "You can also try to claim Werewolf, as no Werewolf would reveal themselves. This will likely make you called a Tanner, causing nobody to vote for you."},
			{"Robber", "You could claim Robber and say you robbed someone right as they claim"},
			{"Seer", "If you are a solo Werewolf, you can claim to be a Seer that saw the card you saw in the center and a Werewolf, since there is actually a Werewolf card in the center"},
			{"Troublemaker", "A risky yet effective strategy is to claim Troublemaker and claim to have swapped a fellow Werewolf with a non-Werewolf and have the fellow Werewolf out their role and claim that the non-Werewolf in now a Werewolf"},
		})
}

func (Werewolf) DidWin(_ Player, executed []Player, _ bool) bool {
	for _, p := range executed {
		switch p.CurrentRole().Name() {
		case ROLE_WEREWOLF, "Tanner":
			return false
		}
	}

	return true
}

// ---- Seer ----

type Seer struct{}

func (Seer) Name() string   { return "Seer" }
func (Seer) WakeOrder() int { return WAKE_ORDER_SEER }

func (Seer) NightAction(actor Player, st *GameState) string {
	others := st.OtherPlayers(actor)

	choices := []PromptChoice{{Index: 0, Name: "Look at two center cards"}}
	for i, p := range others {
		choices = append(choices, PromptChoice{
			Index: i + 1,
			Name:  fmt.Sprintf("Look at %s's card", p.Name()),
		})
	}

	picks := actor.GetChoice(
		fmt.Sprintf("%s, choose what to look at.", actor.Name()),
		choices,
		ChoiceOptions{},
	)

	if picks[0] == 0 {
		cards := st.CenterCards[:2]
		return fmt.Sprintf(
			"You see the following center cards: %s, %s",
			cards[0].Name(), cards[1].Name(),
		)
	}

	target := others[picks[0]-1]
	return fmt.Sprintf(
		"You see that %s's role is: %s",
		target.Name(), target.CurrentRole().Name(),
	)
}

func (Seer) Rules() string {
	return "The Seer will see the identities of another player or two of the unused identities during the night phase."
}

func (Seer) Strategy(st *GameState) string {
	return strategyText(st,
		[]string{
			"The Seer should almost always look at 2 center cards, not only do they gain more information this way, it's very easy to refute the Seer's claim about a player's role.",
			"The Seer should debate on whether to reveal early or after someone claims a role she saw in the center but should never reveal what she saw in the center because they can wait too see if someone claims the role they saw",
			"Claiming early will make you sound more trustworthy, and may make a solo Werewolf more wary of claiming the role they saw in the center, even if the Seer did not see the card messing up their claim",
			"Waiting to claim until someone claims a role you saw in the center can make it more likely for you to be able to counter them, and if you wait even longer for someone to back up their claim means you can find who the Werewolves are easily, but you might be more suspicious for not claiming earlier",
		},
		nil)
}

func (Seer) DidWin(_ Player, executed []Player, werewolvesExist bool) bool {
	return villageDidWin(executed, werewolvesExist)
}

// ---- Robber ----

type Robber struct{}

func (Robber) Name() string   { return "Robber" }
func (Robber) WakeOrder() int { return WAKE_ORDER_ROBBER }

func (Robber) NightAction(actor Player, st *GameState) string {
	others := st.OtherPlayers(actor)

	choices := make([]PromptChoice, 0, len(others))
	for i, p := range others {
		choices = append(choices, PromptChoice{
			Index: i,
			Name:  fmt.Sprintf("Rob %s", p.Name()),
		})
	}

	picks := actor.GetChoice(
		fmt.Sprintf("%s, choose a player to rob.", actor.Name()),
		choices,
		ChoiceOptions{},
	)

	target := others[picks[0]]

	stolen := target.CurrentRole()
	target.SetCurrentRole(actor.CurrentRole())
	actor.SetCurrentRole(stolen)

	return fmt.Sprintf(
		"You swapped roles with %s. Your new role is: %s",
		target.Name(), actor.CurrentRole().Name(),
	)
}

func (Robber) Rules() string {
	return "The Robber may steal a player's card and see what it is during the night phase."
}

func (Robber) Strategy(st *GameState) string {
	return strategyText(st,
		[]string{
			"If the Robber steals a village card they can confirm them and back them up. Claim before they reveal to look more legitimate, though this may look like you're a werewolf giving another werewolf an alibi.",
			"They can also say they robbed someone but won't reveal until later so that the person you robbed can lie, as otherwise their role would be confirmed and they could not lie",
			"If you are now a Werewolf, say you robbed someone you didn't right after they claim as you now have an alibi that no one can really refute. Then, whoever the Werewolf you robbed is will still think they are a Werewolf and will act like a Werewolf so try and push them as much as possible and lead a victory to team Werewolf.",
		},
		nil)
}

func (Robber) DidWin(_ Player, executed []Player, werewolvesExist bool) bool {
	return villageDidWin(executed, werewolvesExist)
}

// ---- Troublemaker ----

type Troublemaker struct{}

func (Troublemaker) Name() string   { return "Troublemaker" }
func (Troublemaker) WakeOrder() int { return WAKE_ORDER_TROUBLEMAKER }

func (Troublemaker) NightAction(actor Player, st *GameState) string {
	others := st.OtherPlayers(actor)

	choices := make([]PromptChoice, 0, len(others))
	for i, p := range others {
		choices = append(choices, PromptChoice{Index: i, Name: p.Name()})
	}

	picks := actor.GetChoice(
		fmt.Sprintf("%s, choose two players to swap roles.", actor.Name()),
		choices,
		ChoiceOptions{Multiple: true, Min: 2, Max: 2},
	)

	if len(picks) != 2 || picks[0] == picks[1] {
		return "Invalid choice. You lose your night action."
	}

	first := others[picks[0]]
	second := others[picks[1]]

	swapped := first.CurrentRole()
	first.SetCurrentRole(second.CurrentRole())
	second.SetCurrentRole(swapped)

	return fmt.Sprintf(
		"You swapped the roles of %s and %s.",
		first.Name(), second.Name(),
	)
}

func (Troublemaker) Rules() string {
	return "The Troublemaker may swap two other players' cards without seeing them during the night phase."
}

func (Troublemaker) Strategy(st *GameState) string {
	return strategyText(st,
		[]string{
			"Troublemaker can lie about who they swapped which may cause a werewolf to out themselves, thinking they're now a villager.",
			"Since troublemaker gains no new information, it's very easy for a werewolf to pretend to be a troublemaker",
		},
		nil)
}

func (Troublemaker) DidWin(_ Player, executed []Player, werewolvesExist bool) bool {
	return villageDidWin(executed, werewolvesExist)
}

// ---- Tanner ----

type Tanner struct{}

func (Tanner) Name() string   { return "Tanner" }
func (Tanner) WakeOrder() int { return WAKE_NEVER }

func (Tanner) NightAction(Player, *GameState) string { return "" }

func (Tanner) Rules() string {
	return "The Tanner wins if they are executed. They lose in all other scenarios. Werewolves lose if tanner is executed."
}

func (Tanner) Strategy(st *GameState) string {
	return strategyText(st,
		[]string{
			"If you claim to have been a Werewolf, you will likely be called a Tanner as this is a very obvious play that no Werewolf would do (unless they want people to think they're a tanner).",
			"A Tanner can claim to be a Tanner, as no Tanner would reveal themselves, and they will likely be called as a Werewolf.",
			"In general, claiming something anyone else has claimed is a good strategy.",
			"Pretending to be any role that gains information, but not having any information to share, may make the town think you're a struggling werewolf.",
		},
		[]roleInteraction{
			{"Robber", "Claiming to be a Robber who robbed someone suspicious will direct suspicions towards you."},
		})
}

func (Tanner) DidWin(self Player, executed []Player, _ bool) bool {
	return executedContains(executed, self)
}

// ---- Villager ----

type Villager struct{}

func (Villager) Name() string   { return "Villager" }
func (Villager) WakeOrder() int { return WAKE_NEVER }

func (Villager) NightAction(Player, *GameState) string { return "" }

func (Villager) Rules() string {
	return "The Villager has no special abilities."
}

func (Villager) Strategy(st *GameState) string {
	return strategyText(st,
		[]string{
			"The main strategy for a villager player involves manipulating one of the werewolves into claiming Villager, thus narrowing the number of suspects for team village.",
			"Villager is a really attractive claim for a Werewolf or Dream Wolf as you're not given any secret information. Because of this you should never claim Villager initially, as it is a very suspicious claim.",
			"Make false claims. This leaves fewer roles open for werewolves to claim safely. Werewolves don't want to narrow it down to two suspects.",
			"Once you've located a werewolf, if you're also suspected of being a werewolf, call for a split vote between you and the werewolf, this is advantageous for team village, and the werewolf can't fight it without looking suspicious. Make sure to ask for all suspected werewolves to vote for you, so the werewolves can't ruin the vote.",
		},
		nil)
}

func (Villager) DidWin(_ Player, executed []Player, werewolvesExist bool) bool {
	return villageDidWin(executed, werewolvesExist)
}

// ---- 角色池 ----

// RoleByName 用于从配置里的角色名还原变体
func RoleByName(name string) (Role, error) {
	switch name {
	case ROLE_WEREWOLF:
		return Werewolf{}, nil
	case "Seer":
		return Seer{}, nil
	case "Robber":
		return Robber{}, nil
	case "Troublemaker":
		return Troublemaker{}, nil
	case "Tanner":
		return Tanner{}, nil
	case "Villager":
		return Villager{}, nil
	default:
		return nil, fmt.Errorf("未知角色: %s", name)
	}
}

func DefaultVillageRoles() []Role {
	return []Role{
		Seer{}, Robber{}, Troublemaker{}, Tanner{},
		Villager{}, Villager{}, Villager{},
	}
}

// RolesForPlayerCount 构建本局角色池：两张狼人牌加村民序列，
// 截断到 numPlayers+3 张（其中 3 张进入中央）
func RolesForPlayerCount(numPlayers int, villageRoles []Role) ([]Role, error) {
	pool := append([]Role{Werewolf{}, Werewolf{}}, villageRoles...)

	need := numPlayers + 3
	if numPlayers < 3 || need > len(pool) {
		return nil, fmt.Errorf(
			"玩家数 %d 超出角色池支持范围 [3, %d]",
			numPlayers, len(pool)-3,
		)
	}

	return pool[:need], nil
}

// AssignRoles 均匀洗牌后给每个玩家发一张，返回剩下的中央牌
func AssignRoles(players []Player, pool []Role, rng *rand.Rand) []Role {
	roles := append([]Role{}, pool...)

	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, p := range players {
		p.AssignRole(roles[i])
	}

	return roles[len(players):]
}

// NightRoles 返回夜晚行动的角色，按行动顺序稳定升序，
// 同名角色只保留首次出现
func NightRoles(pool []Role) []Role {
	var night []Role

	seen := make(map[string]bool)
	for _, r := range pool {
		if r.WakeOrder() < WAKE_NEVER && !seen[r.Name()] {
			seen[r.Name()] = true
			night = append(night, r)
		}
	}

	sort.SliceStable(night, func(i, j int) bool {
		return night[i].WakeOrder() < night[j].WakeOrder()
	})

	return night
}

// RulesText 汇总整局的规则说明，供模型提示词和策略提示使用
func RulesText(pool []Role) string {
	var b strings.Builder

	b.WriteString("Rules:\n")
	b.WriteString("Each player has a role, but that role may be changed during the night phase. Three more roles are in the center.\n\n")
	b.WriteString("First there is a night phase where certain roles will act.\n")
	b.WriteString("Players may have their roles changed during the night, but they'll perform their original role's action in the night anyway. Usually a player has no way of knowing if their role changed.\n")
	b.WriteString("Roles activate in the order they're described below.")

	sorted := append([]Role{}, pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WakeOrder() < sorted[j].WakeOrder()
	})

	seen := make(map[string]bool)
	for _, r := range sorted {
		if seen[r.Name()] {
			continue
		}
		seen[r.Name()] = true

		b.WriteString(r.Rules())
		b.WriteString("\n")
	}

	b.WriteString("\nDuring the day, each player will vote for someone to execute. The players with the most votes (all on a tie) will be executed. Werewolves win if no werewolf is executed. Other roles win if a werewolf to be executed unless their rules say otherwise.\n")
	b.WriteString("Then the game is over and winners are determined. There is only one round.")

	return b.String()
}
