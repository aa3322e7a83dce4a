package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk     = lipgloss.Color("#E8ECE3")
	ColorDim     = lipgloss.Color("#83907C")
	ColorAccent  = lipgloss.Color("#8FBC6F")
	ColorSuccess = lipgloss.Color("#A3BE8C")
	ColorWarn    = lipgloss.Color("#EBCB8B")
)
