package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the profile, connection state and transient messages.
type StatusBar struct {
	*tview.TextView
	profile string
	conn    string
	flash   string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetConnection updates the realtime connection indicator.
func (sb *StatusBar) SetConnection(state string) {
	sb.conn = state
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	conn := sb.conn
	switch conn {
	case "OPEN":
		conn = "[green]online[-]"
	case "RECONNECTING", "CONNECTING":
		conn = "[yellow]" + conn + "[-]"
	case "DISCONNECTED":
		conn = "[red]offline[-]"
	}

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", sb.profile, conn, clock)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
