// ABOUTME: Entry point for the parley web console server.
// ABOUTME: Wires config, local store, tenant resolver, and chat controller.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/chat"
	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/console"
	"github.com/2389/parley/internal/convo"
	"github.com/2389/parley/internal/kv"
	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/tenant"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                  _                                                  _
 _ __   __ _ _ __| | ___ _   _        ___ ___  _ __  ___  ___ | | ___
| '_ \ / _' | '__| |/ _ \ | | |_____ / __/ _ \| '_ \/ __|/ _ \| |/ _ \
| |_) | (_| | |  | |  __/ |_| |_____| (_| (_) | | | \__ \ (_) | |  __/
| .__/ \__,_|_|  |_|\___|\__, |      \___\___/|_| |_|___/\___/|_|\___|
|_|                      |___/
`

// getConfigPath returns the path to the parley config file.
// Priority: PARLEY_CONFIG env var > XDG_CONFIG_HOME/parley/parley.yaml > ~/.config/parley/parley.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PARLEY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "parley.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "parley", "parley.yaml")
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Console.Addr == "" {
		cfg.Console.Addr = "127.0.0.1:8787"
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Backend:  %s\n", cfg.Backend.URL)
	green.Print("    ▶ ")
	fmt.Printf("Console:  http://%s\n", cfg.Console.Addr)
	green.Print("    ▶ ")
	fmt.Printf("Store:    %s\n", storeLabel(cfg.Store))
	fmt.Println()

	logger.Info("starting parley-console",
		"config", configPath,
		"backend", cfg.Backend.URL,
		"addr", cfg.Console.Addr,
	)

	store, err := kv.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	client := backend.New(cfg.Backend.URL, cfg.Backend.AdminToken, logger)

	resolver, err := tenant.New(ctx, store, client, logger)
	if err != nil {
		return fmt.Errorf("initializing tenant resolver: %w", err)
	}
	if cfg.Tenant.RefreshInterval > 0 {
		go resolver.Watch(ctx, cfg.Tenant.RefreshInterval)
	}

	controller := chat.New(convo.NewStore(store, logger), session.NewIdentity(store), client, chat.Options{
		PageDefaultAgent: cfg.Chat.DefaultAgent,
		MinDelay:         cfg.Chat.MinDelay,
		HistoryLimit:     cfg.Chat.HistoryLimit,
		Logger:           logger,
	})
	if err := controller.Start(ctx, resolver.TenantID()); err != nil {
		return fmt.Errorf("starting conversation: %w", err)
	}

	web := console.New(console.Config{
		Addr:         cfg.Console.Addr,
		PasswordHash: cfg.Console.PasswordHash,
	}, resolver, controller, client, logger)
	return web.Serve(ctx)
}

func storeLabel(cfg kv.Config) string {
	switch cfg.Driver {
	case kv.DriverMemory:
		return "memory"
	case kv.DriverRedis:
		return "redis " + cfg.RedisAddr
	default:
		return "sqlite " + cfg.Path
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
