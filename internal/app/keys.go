package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Feedback      key.Binding
	Mode          key.Binding
	Port          key.Binding
	Starboard     key.Binding
	TackPort      key.Binding
	TackStarboard key.Binding
	TargetHere    key.Binding
	Sensitivity   key.Binding
	Narrower      key.Binding
	Wider         key.Binding
	North         key.Binding
	Quit          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Feedback: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "audio on/off"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m", "M"),
			key.WithHelp("m", "compass/steering"),
		),
		Port: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "target to port"),
		),
		Starboard: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "target to starboard"),
		),
		TackPort: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "tack to port"),
		),
		TackStarboard: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "tack to starboard"),
		),
		TargetHere: key.NewBinding(
			key.WithKeys("t", "T"),
			key.WithHelp("t", "target current heading"),
		),
		Sensitivity: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "sensitivity"),
		),
		Narrower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "narrow tolerance"),
		),
		Wider: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "widen tolerance"),
		),
		North: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "magnetic/true north"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
