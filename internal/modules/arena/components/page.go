package components

import (
	"github.com/nfrund/exerbeasts/internal/battle"
	"maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"
)

// Board is the battle area, used by the page and sent whole on reconnect.
func Board(s battle.Snapshot, moves []battle.Move) gomponents.Node {
	return Div(
		ID("battle-board"),
		Class("flex flex-col gap-4"),
		Div(Class("flex justify-end"), HPBox(battle.SideEnemy, s.Enemy, false)),
		Div(Class("flex justify-start"), HPBox(battle.SidePlayer, s.Player, false)),
		TextBox(s.Text, false),
		PhaseBadge(s.Phase, false),
		MoveMenu(moves, s.InputEnabled, false),
	)
}

// Page is the full battle screen. The html websocket keeps it current.
func Page(s battle.Snapshot, moves []battle.Move) gomponents.Node {
	return c.HTML5(c.HTML5Props{
		Title:    "Exerbeasts",
		Language: "en",
		Head: []gomponents.Node{
			Script(Src("https://unpkg.com/htmx.org@1.9.12")),
			Script(Src("https://unpkg.com/htmx.org@1.9.12/dist/ext/ws.js")),
			Script(Src("https://cdn.tailwindcss.com")),
		},
		Body: []gomponents.Node{
			Class("bg-sky-100 min-h-screen"),
			Main(
				Class("max-w-2xl mx-auto p-6 flex flex-col gap-4"),
				hx.Ext("ws"),
				gomponents.Attr("ws-connect", "/ws/html"),
				H1(Class("text-2xl font-bold"), gomponents.Text("Exerbeasts")),
				Board(s, moves),
				Div(
					Class("flex gap-2"),
					Button(
						Type("button"),
						Class("px-3 py-1 border rounded"),
						hx.Post("/battle/reset"),
						hx.Swap("none"),
						gomponents.Text("New battle"),
					),
					A(Href("/battle/card.png"), Class("px-3 py-1 border rounded"), gomponents.Text("Battle card")),
				),
			),
		},
	})
}

// Sync is the out-of-band update that brings a connected page up to date.
func Sync(s battle.Snapshot, moves []battle.Move) gomponents.Node {
	return gomponents.Group{
		HPBox(battle.SideEnemy, s.Enemy, true),
		HPBox(battle.SidePlayer, s.Player, true),
		TextBox(s.Text, true),
		PhaseBadge(s.Phase, true),
		MoveMenu(moves, s.InputEnabled, true),
	}
}
