package components

import (
	"fmt"
	"strings"

	"github.com/nfrund/exerbeasts/internal/battle"
	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"
)

// Element ids the fragments swap into.
const (
	IDText   = "battle-text"
	IDPhase  = "battle-phase"
	IDMenu   = "battle-menu"
	IDPlayer = "player-hp"
	IDEnemy  = "enemy-hp"
)

// TextBox is the battle message box.
func TextBox(text string, oob bool) gomponents.Node {
	return Div(
		ID(IDText),
		Class("p-4 border-4 border-black bg-white font-mono text-lg min-h-[4rem]"),
		gomponents.If(oob, hx.SwapOOB("true")),
		gomponents.Text(text),
	)
}

// PhaseBadge shows the current phase as a small badge.
func PhaseBadge(phase battle.Phase, oob bool) gomponents.Node {
	return Span(
		ID(IDPhase),
		Class("text-xs uppercase tracking-wide text-gray-500"),
		gomponents.Attr("data-phase", string(phase)),
		gomponents.If(oob, hx.SwapOOB("true")),
		gomponents.Text(strings.ReplaceAll(string(phase), "-", " ")),
	)
}

func barColor(side battle.Side, c battle.Combatant) string {
	if side == battle.SideEnemy {
		return "bg-red-500"
	}
	switch c.Tier() {
	case battle.HealthHigh:
		return "bg-green-500"
	case battle.HealthMid:
		return "bg-yellow-400"
	default:
		return "bg-red-500"
	}
}

// HPBox is the info box of one combatant.
func HPBox(side battle.Side, c battle.Combatant, oob bool) gomponents.Node {
	id, label := IDPlayer, "YOU Lv. 30"
	if side == battle.SideEnemy {
		id, label = IDEnemy, "ENEMY Lv. 25"
	}
	pct := 0
	if c.MaxHP > 0 {
		pct = c.HP * 100 / c.MaxHP
	}
	return Div(
		ID(id),
		Class("p-3 border-2 border-black rounded bg-gray-50 w-64"),
		gomponents.If(oob, hx.SwapOOB("true")),
		Div(Class("font-bold"), gomponents.Text(label)),
		Div(
			Class("h-3 w-full bg-gray-300 rounded mt-1"),
			Div(
				Class("h-3 rounded "+barColor(side, c)),
				gomponents.Attr("style", fmt.Sprintf("width: %d%%", pct)),
			),
		),
		Div(Class("text-sm text-right font-mono"), gomponents.Textf("%d/%d HP", c.HP, c.MaxHP)),
	)
}

// MoveMenu renders the move buttons. They are disabled whenever input is.
func MoveMenu(moves []battle.Move, enabled bool, oob bool) gomponents.Node {
	return Div(
		ID(IDMenu),
		Class("grid grid-cols-2 gap-2"),
		gomponents.If(oob, hx.SwapOOB("true")),
		gomponents.Map(moves, func(m battle.Move) gomponents.Node {
			return Button(
				Type("button"),
				Class("p-2 border-2 border-black rounded bg-white hover:bg-yellow-100 disabled:opacity-50"),
				hx.Post("/battle/select"),
				hx.Vals(fmt.Sprintf(`{"move":%q}`, m.ID)),
				hx.Swap("none"),
				gomponents.Attr("title", m.Instruction()),
				gomponents.If(!enabled, Disabled()),
				gomponents.Text(m.Name),
			)
		}),
	)
}
