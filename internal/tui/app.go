// Package tui is the terminal client shell. It renders the chat core's
// state and translates key events into core operations; all synchronization
// semantics live in the core, the shell only draws.
package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/velorent/rentchat/internal/bus"
	"github.com/velorent/rentchat/internal/chat"
	"github.com/velorent/rentchat/internal/realtime"
	"github.com/velorent/rentchat/internal/status"
	"github.com/velorent/rentchat/internal/store"
	"github.com/velorent/rentchat/internal/tui/keys"
	"github.com/velorent/rentchat/internal/tui/model"
	"github.com/velorent/rentchat/internal/tui/views"
	"go.uber.org/zap"
)

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	core      *chat.Client
	transport *realtime.Manager
	machine   *status.Machine
	bus       *bus.Bus
	cache     *store.DB // optional; enables offline search
	registry  *keys.Registry
	flash     *model.Flash
	logger    *zap.Logger

	list      *views.SessionList
	msgView   *views.MessageView
	composer  *views.Composer
	statusBar *views.StatusBar
	searchV   *views.SearchView

	initialTarget      string
	initialReservation string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application. cache may be nil, which disables the
// offline search page.
func NewApp(core *chat.Client, transport *realtime.Manager, machine *status.Machine, b *bus.Bus, cache *store.DB, profileName string, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		core:      core,
		transport: transport,
		machine:   machine,
		bus:       b,
		cache:     cache,
		registry:  keys.NewRegistry(),
		flash:     &model.Flash{},
		logger:    logger,
		list:      views.NewSessionList(core.UserID()),
		msgView:   views.NewMessageView(core.UserID()),
		composer:  views.NewComposer(),
		statusBar: views.NewStatusBar(),
		searchV:   views.NewSearchView(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetProfile(profileName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

// SetInitialTarget records a participant to deep-link into on startup: the
// direct conversation with them is looked up or created before the first
// render.
func (a *App) SetInitialTarget(participantID, reservationID string) {
	a.initialTarget = participantID
	a.initialReservation = reservationID
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.Stop() },
	})
	a.registry.AddGlobal("refresh", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:refresh", Visible: true,
		Handler: func() { go a.core.Refresh(a.ctx) },
	})
	a.registry.AddView("main", "search", &keys.Action{
		Rune: 's', Key: tcell.KeyRune,
		Description: "s:search", Visible: true,
		Handler: func() { a.showSearch() },
	})
	a.registry.AddView("main", "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete", Visible: true,
		Handler: func() {
			id := a.list.SelectedSession()
			if id == "" {
				return
			}
			go func() {
				if err := a.core.Delete(a.ctx, id); err != nil {
					a.flash.Set("Delete failed: "+err.Error(), 5*time.Second)
				}
			}()
		},
	})
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, col int) {
		if id := a.list.SelectedSession(); id != "" {
			a.core.Activate(id)
			a.app.SetFocus(a.composer.InputField)
		}
	})

	a.composer.SetOnSend(func(text string) {
		a.core.Send(text)
	})

	a.searchV.SetOnQuery(func(query string) {
		if a.cache == nil || query == "" {
			return
		}
		go func() {
			results, err := a.cache.SearchMessages(query, "", 50)
			if err != nil {
				a.flash.Set("Search failed: "+err.Error(), 5*time.Second)
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.searchV.Update(results)
				a.app.SetFocus(a.searchV.Results())
			})
		}()
	})

	a.searchV.Results().SetSelectedFunc(func(row, col int) {
		if id := a.searchV.SelectedResult(); id != "" {
			a.core.Activate(id)
			a.pages.SwitchToPage("main")
			a.app.SetFocus(a.list)
		}
	})
}

func (a *App) setupLayout() {
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	main := tview.NewFlex().
		AddItem(a.list, 34, 0, true).
		AddItem(right, 0, 1, false)

	a.pages.AddPage("main", main, true, true)
	a.pages.AddPage("search", a.searchV, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()
		focused := a.app.GetFocus()
		inInput := focused == a.composer.InputField || focused == a.searchV.Input()

		if event.Key() == tcell.KeyEscape {
			if currentPage == "search" {
				a.pages.SwitchToPage("main")
			}
			a.app.SetFocus(a.list)
			return nil
		}
		if event.Key() == tcell.KeyTab && currentPage == "main" {
			if inInput {
				a.app.SetFocus(a.list)
			} else {
				a.app.SetFocus(a.composer.InputField)
			}
			return nil
		}

		// Let text input widgets handle all keys normally.
		if inInput {
			return event
		}

		// 'i' focuses the composer.
		if currentPage == "main" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer.InputField)
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}
		return event
	})
}

func (a *App) showSearch() {
	if a.cache == nil {
		a.flash.Set("Search requires the local cache", 3*time.Second)
		return
	}
	a.pages.SwitchToPage("search")
	a.app.SetFocus(a.searchV.Input())
}

// render redraws every view from the core's current state. Must run on the
// tview event loop.
func (a *App) render() {
	sessions := a.core.Sessions()
	activeID := a.core.ActiveID()
	a.list.Update(sessions, activeID)

	if activeID != "" {
		for _, s := range sessions {
			if s.ID != activeID {
				continue
			}
			name := s.ID
			if p := s.Peer(a.core.UserID()); p != nil {
				name = p.DisplayName()
			}
			a.msgView.SetPeerName(name)
			break
		}
		a.msgView.Update(a.core.Messages())
	}

	a.statusBar.SetConnection(string(a.machine.Current()))
	a.statusBar.SetFlash(a.flash.Get())
}

// eventLoop reacts to bus events and schedules redraws.
func (a *App) eventLoop() {
	chatCh, unsubChat := a.bus.Subscribe("chat.", 64)
	rtCh, unsubRT := a.bus.Subscribe("realtime.", 16)
	ticker := time.NewTicker(5 * time.Second)

	defer func() {
		unsubChat()
		unsubRT()
		ticker.Stop()
	}()

	for {
		select {
		case evt := <-chatCh:
			switch evt.Kind {
			case "chat.send_failed":
				if f, ok := evt.Payload.(chat.SendFailure); ok {
					a.flash.Set("Send failed: "+f.Reason, 5*time.Second)
				}
			case "chat.error":
				if msg, ok := evt.Payload.(string); ok {
					a.flash.Set(msg, 5*time.Second)
				}
			}
			a.app.QueueUpdateDraw(a.render)
		case evt := <-rtCh:
			switch evt.Kind {
			case "realtime.up":
				// A recovered connection may have missed pushes.
				go a.core.Refresh(a.ctx)
			case "realtime.down":
				a.flash.Set("Connection lost, reconnecting…", 5*time.Second)
			}
			a.app.QueueUpdateDraw(a.render)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.render)
		case <-a.ctx.Done():
			return
		}
	}
}

// Run starts the core, connects the realtime transport and enters the
// tview event loop. Blocks until quit.
func (a *App) Run() error {
	a.core.Start(a.ctx)
	a.transport.Connect()

	go a.eventLoop()
	go func() {
		if a.initialTarget != "" {
			if err := a.core.OpenDirect(a.ctx, a.initialTarget, a.initialReservation); err != nil {
				a.logger.Error("initial direct open failed", zap.Error(err))
			}
			return
		}
		a.core.Refresh(a.ctx)
	}()

	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.transport.Close()
	a.core.Stop()
	a.app.Stop()
}
