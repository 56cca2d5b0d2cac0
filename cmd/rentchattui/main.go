package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/velorent/rentchat/internal/bus"
	"github.com/velorent/rentchat/internal/chat"
	"github.com/velorent/rentchat/internal/config"
	"github.com/velorent/rentchat/internal/identity"
	"github.com/velorent/rentchat/internal/lock"
	"github.com/velorent/rentchat/internal/logging"
	"github.com/velorent/rentchat/internal/mirror"
	"github.com/velorent/rentchat/internal/profile"
	"github.com/velorent/rentchat/internal/realtime"
	"github.com/velorent/rentchat/internal/rest"
	"github.com/velorent/rentchat/internal/status"
	"github.com/velorent/rentchat/internal/store"
	"github.com/velorent/rentchat/internal/tui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	withFlag := flag.String("with", "", "open the direct conversation with this participant id")
	reservationFlag := flag.String("reservation", "", "reservation id for a newly created conversation")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := profile.EnsureDir(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to file only.
	logger, err := logging.FileOnly(profile.TUILogPath(profileName), profileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(profile.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	config.LoadEnv(profile.BaseDir())
	id, err := identity.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// One syncing process per profile; the TUI runs the core itself, so it
	// takes the same lock the daemon would.
	lk, err := lock.Acquire(profile.Dir(profileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = lk.Release() }()

	// The cache powers offline search and stays fresh through the mirror.
	// Running without it only disables the search page.
	cache, err := store.Open(profile.CacheDBPath(profileName))
	if err == nil {
		if _, err := cache.Migrate(); err != nil {
			_ = cache.Close()
			cache = nil
		}
	} else {
		cache = nil
	}
	if cache == nil {
		logger.Warn("cache unavailable, search disabled")
	} else {
		defer func() { _ = cache.Close() }()
	}

	b := bus.New()
	machine := status.NewMachine(b)
	api := rest.New(cfg.Backend.APIURL, id, cfg.HTTPTimeout(), logger)
	transport := realtime.NewManager(cfg.Backend.WSURL, id, b, machine, logger,
		cfg.ReconnectInterval(), cfg.Realtime.MaxAttempts)
	core := chat.NewClient(id, api, b, logger)

	if cache != nil {
		engine := mirror.NewEngine(cache, core, b, logger)
		engine.Start(context.Background())
		defer engine.Stop()
	}

	app := tui.NewApp(core, transport, machine, b, cache, profileName, logger)
	if *withFlag != "" {
		app.SetInitialTarget(*withFlag, *reservationFlag)
	}
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
