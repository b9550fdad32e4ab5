package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"login-monitor/cmd/console/ui"
	"login-monitor/internal/config"
	"login-monitor/internal/store"
)

func main() {
	var (
		driver = flag.String("driver", "", "Store driver (mysql or sqlite); overrides config")
		dsn    = flag.String("dsn", "", "Store DSN; overrides config")
		redis  = flag.String("redis", "", "Change feed address; overrides config")
	)
	flag.Parse()

	cfg := config.Init()
	if *driver != "" {
		cfg.StoreDriver = *driver
	}
	if *dsn != "" {
		cfg.StoreDSN = *dsn
	}
	if *redis != "" {
		cfg.RedisAddr = *redis
	}

	st, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open command store: %v\n", err)
		os.Exit(1)
	}
	if cfg.RedisAddr != "" {
		st.AttachFeed(store.NewFeed(cfg.RedisAddr, cfg.RedisPassword))
	}

	p := tea.NewProgram(ui.NewRootModel(st), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "console error: %v\n", err)
		os.Exit(1)
	}
}
