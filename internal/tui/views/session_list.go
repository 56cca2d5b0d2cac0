package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
	"github.com/velorent/rentchat/internal/chat"
)

// SessionList is the conversation sidebar table.
type SessionList struct {
	*tview.Table
	sessions []*chat.Session
	selfID   string
}

// NewSessionList creates a new session list table.
func NewSessionList(selfID string) *SessionList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Conversations ")

	return &SessionList{Table: table, selfID: selfID}
}

// Update refreshes the list with a new session snapshot, keeping the
// highlight on the active conversation.
func (sl *SessionList) Update(sessions []*chat.Session, activeID string) {
	sl.sessions = sessions
	sl.Clear()

	sl.SetCell(0, 0, tview.NewTableCell(" With").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	sl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	sl.SetCell(0, 2, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, s := range sessions {
		row := i + 1
		name := s.ID
		if p := s.Peer(sl.selfID); p != nil {
			name = p.DisplayName()
		}
		if unread := s.UnreadCount(sl.selfID); unread > 0 {
			name = fmt.Sprintf("* %s (%d)", name, unread)
		}

		var preview string
		var at int64
		if lm := s.LastMessage(); lm != nil {
			preview = sanitizeForTerminal(lm.Content)
			at = lm.Timestamp
		}

		sl.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(name)).SetMaxWidth(30).SetExpansion(1))
		sl.SetCell(row, 1, tview.NewTableCell(" "+preview).SetMaxWidth(40).SetExpansion(2))
		sl.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(at)).SetMaxWidth(12))

		if s.ID == activeID {
			sl.Select(row, 0)
		}
	}
}

// SelectedSession returns the id of the currently selected conversation.
func (sl *SessionList) SelectedSession() string {
	row, _ := sl.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(sl.sessions) {
		return sl.sessions[idx].ID
	}
	return ""
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
