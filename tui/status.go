package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/fablecore/types"
)

// locationDisplayName derives a human-readable name from a location key.
// "village_square" -> "Village Square".
func locationDisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line: location
// (or the foe, mid-fight), HP, gold, quest progress, music, and turn.
func (m Model) renderStatusBar() string {
	w := m.engine.World
	p := w.Player

	style := styleStatusBar
	var left string
	if w.InCombat() {
		style = styleStatusCombat
		left = fmt.Sprintf(" ⚔ %s %d/%d HP | round %d",
			w.Monster.Name, w.Monster.HP, w.Monster.MaxHP, w.Combat.Rounds+1)
	} else {
		left = " " + locationDisplayName(p.Location)
	}

	done := 0
	for _, stage := range p.Quests {
		if stage == types.QuestComplete {
			done++
		}
	}

	right := fmt.Sprintf("HP %d/%d | Gold %d | Quests %d/%d | %s | T:%d ",
		p.HP, p.MaxHP, p.Gold, done, len(p.Quests), m.engine.Music.Current(), w.TurnCount)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return style.Width(m.width).Render(bar)
}
