package views

import (
	"fmt"

	"github.com/rivo/tview"
	"github.com/velorent/rentchat/internal/chat"
)

// MessageView displays the active conversation's messages.
type MessageView struct {
	*tview.TextView
	selfID string
}

// NewMessageView creates a new message view.
func NewMessageView(selfID string) *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv, selfID: selfID}
}

// SetPeerName updates the title with the conversation peer.
func (mv *MessageView) SetPeerName(name string) {
	mv.SetTitle(fmt.Sprintf(" %s ", sanitizeForTerminal(name)))
}

// Update re-renders the message list, oldest first.
func (mv *MessageView) Update(msgs []chat.Message) {
	mv.Clear()

	for _, m := range msgs {
		sender := m.SenderID
		if m.SenderID == mv.selfID {
			sender = "You"
		}

		line := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]%s\n%s\n",
			sender, formatTimestamp(m.Timestamp), statusMarker(m),
			sanitizeForTerminal(m.Content))
		if m.MediaURL != "" {
			line += fmt.Sprintf("[::d]%s[-:-:-]\n", m.MediaURL)
		}
		_, _ = fmt.Fprint(mv, line+"\n")
	}

	mv.ScrollToEnd()
}

func statusMarker(m chat.Message) string {
	switch m.Status {
	case chat.StatusSending:
		return " [::d]…[-:-:-]"
	case chat.StatusFailed:
		return " [red]failed[-]"
	default:
		return ""
	}
}
