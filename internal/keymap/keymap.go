// Package keymap resolves key presses into the closed set of commands the
// player understands.
package keymap

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"

	"github.com/olivier-w/crate/internal/config"
)

// Action is a user-triggerable command.
type Action int

const (
	ActionNone Action = iota
	ActionMoveUp
	ActionMoveDown
	ActionPlay
	ActionPause
	ActionNext
	ActionPrevious
	ActionCycleRepeat
	ActionQuit
)

var actionNames = [...]string{
	ActionNone:        "none",
	ActionMoveUp:      "move_up",
	ActionMoveDown:    "move_down",
	ActionPlay:        "play",
	ActionPause:       "pause",
	ActionNext:        "next",
	ActionPrevious:    "previous",
	ActionCycleRepeat: "cycle_repeat",
	ActionQuit:        "quit",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// QuitKeys cannot be rebound.
var QuitKeys = []string{"esc", "ctrl+c"}

// Resolver maps key strings to actions.
type Resolver struct {
	bindings map[string]Action
	help     map[Action]key.Binding
}

// NewResolver builds the lookup table once from the configured controls.
// Single letters match in either case.
func NewResolver(c config.Controls) *Resolver {
	r := &Resolver{
		bindings: make(map[string]Action),
		help:     make(map[Action]key.Binding),
	}
	r.bind(ActionPrevious, c.Previous, "prev")
	r.bind(ActionNext, c.Next, "next")
	r.bind(ActionPause, c.Pause, "pause")
	r.bind(ActionPlay, c.Play, "play")
	r.bind(ActionMoveUp, c.Up, "up")
	r.bind(ActionMoveDown, c.Down, "down")
	r.bind(ActionCycleRepeat, c.Repeat, "repeat")

	for _, k := range QuitKeys {
		r.bindings[k] = ActionQuit
	}
	r.help[ActionQuit] = key.NewBinding(key.WithKeys(QuitKeys...), key.WithHelp("esc", "quit"))
	return r
}

func (r *Resolver) bind(a Action, k, desc string) {
	keys := variants(k)
	for _, v := range keys {
		r.bindings[v] = a
	}
	r.help[a] = key.NewBinding(key.WithKeys(keys...), key.WithHelp(label(k), desc))
}

// variants returns the key strings a configured key matches.
func variants(k string) []string {
	if utf8.RuneCountInString(k) != 1 {
		return []string{k}
	}
	lower, upper := strings.ToLower(k), strings.ToUpper(k)
	if lower == upper {
		return []string{k}
	}
	return []string{lower, upper}
}

func label(k string) string {
	switch k {
	case "up":
		return "↑"
	case "down":
		return "↓"
	case "left":
		return "←"
	case "right":
		return "→"
	case " ":
		return "space"
	}
	if utf8.RuneCountInString(k) == 1 {
		return strings.ToLower(k)
	}
	return k
}

// Resolve returns the action for a key, or ActionNone if it is not bound.
func (r *Resolver) Resolve(k string) Action {
	return r.bindings[k]
}

// Binding returns the help binding for an action.
func (r *Resolver) Binding(a Action) key.Binding {
	return r.help[a]
}

// ShortHelp implements help.KeyMap.
func (r *Resolver) ShortHelp() []key.Binding {
	return []key.Binding{
		r.help[ActionPlay],
		r.help[ActionPause],
		r.help[ActionPrevious],
		r.help[ActionNext],
		r.help[ActionQuit],
	}
}

// FullHelp implements help.KeyMap. Each group is rendered as one column.
func (r *Resolver) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{r.help[ActionMoveUp], r.help[ActionMoveDown]},
		{r.help[ActionPlay], r.help[ActionPause]},
		{r.help[ActionPrevious], r.help[ActionNext]},
		{r.help[ActionCycleRepeat], r.help[ActionQuit]},
	}
}
