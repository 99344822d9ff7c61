// ABOUTME: Interactive terminal chat client for a parley backend.
// ABOUTME: Wires the conversation controller over a persistent local store.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/chat"
	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/convo"
	"github.com/2389/parley/internal/handoff"
	"github.com/2389/parley/internal/kv"
	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/tenant"
)

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
	// Load .env if present; real env vars win
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Terminal client keeps logs quiet unless something goes wrong
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

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

	gray := color.New(color.FgHiBlack)
	fmt.Printf("parley connected to %s\n", cfg.Backend.URL)
	if branding, err := client.GetConfig(ctx, resolver.TenantID()); err == nil && branding.CompanyName != "" {
		fmt.Printf("Welcome to %s\n", branding.CompanyName)
		if branding.WelcomeMessage != "" {
			gray.Println(branding.WelcomeMessage)
		}
	}
	gray.Printf("tenant: %s  session: %s\n", resolver.TenantID(), controller.SessionID())
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	out := &printer{}
	out.printTranscript(controller.Messages())

	return loop(ctx, resolver, controller, out)
}

func loop(ctx context.Context, resolver *tenant.Resolver, controller *chat.Controller, out *printer) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		printPrompt(controller)

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if err := handleCommand(ctx, resolver, controller, out, input); err != nil {
				color.Red("[error] %v", err)
			}
			fmt.Println()
			continue
		}

		if err := controller.Send(ctx, input); err != nil {
			color.Red("[error] %v", err)
		}
		out.printNewTurns(controller)
		fmt.Println()
	}
}

// printPrompt shows the active agent in the prompt when one is set.
func printPrompt(controller *chat.Controller) {
	agentID, source := controller.ActiveAgent()
	if agentID != "" && source != handoff.SourceNone {
		fmt.Printf("[%s]> ", agentID)
	} else {
		fmt.Print("> ")
	}
}

func handleCommand(ctx context.Context, resolver *tenant.Resolver, controller *chat.Controller, out *printer, input string) error {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/help":
		printHelp()

	case "/tenants":
		if err := resolver.Refresh(ctx); err != nil {
			color.Yellow("catalog unavailable, showing last known tenants")
		}
		catalog := resolver.Catalog()
		if len(catalog.Tenants) == 0 {
			fmt.Println("No tenants available")
			return nil
		}
		fmt.Println("Tenants:")
		for _, t := range catalog.Tenants {
			marker := "  "
			if t.ID == resolver.TenantID() {
				marker = color.GreenString("* ")
			}
			name := t.Name
			if name == "" {
				name = t.ID
			}
			fmt.Printf("%s%s: %s\n", marker, t.ID, name)
		}

	case "/tenant":
		if args == "" {
			fmt.Printf("Current tenant: %s\n", resolver.TenantID())
			return nil
		}
		if err := resolver.SetTenantID(ctx, args); err != nil {
			return fmt.Errorf("switching tenant: %w", err)
		}
		if err := controller.SetTenant(ctx, resolver.TenantID()); err != nil {
			return fmt.Errorf("reloading conversation: %w", err)
		}
		fmt.Printf("Now on tenant %s\n", resolver.TenantID())
		out.printTranscript(controller.Messages())

	case "/agent":
		if args == "" {
			agentID, source := controller.ActiveAgent()
			if agentID == "" {
				fmt.Println("No active agent, backend routing applies")
			} else {
				fmt.Printf("Active agent: %s (%s)\n", agentID, source)
			}
			return nil
		}
		if err := controller.SetPageDefaultAgent(ctx, args); err != nil {
			return fmt.Errorf("setting agent: %w", err)
		}
		agentID, _ := controller.ActiveAgent()
		fmt.Printf("Requesting agent %s\n", agentID)

	case "/new":
		if err := controller.StartNewConversation(ctx); err != nil {
			return fmt.Errorf("starting new conversation: %w", err)
		}
		fmt.Printf("Started new conversation %s\n", controller.SessionID())

	case "/history":
		out.printTranscript(controller.Messages())

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", cmd)
	}

	return nil
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /tenants       List available tenants")
	fmt.Println("  /tenant <id>   Switch tenant")
	fmt.Println("  /agent <id>    Request a specific agent for this conversation")
	fmt.Println("  /new           Start a new conversation")
	fmt.Println("  /history       Reprint the conversation transcript")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit")
}

// printer writes transcript turns, remembering how much has already been
// shown so each send only prints the new ones.
type printer struct {
	lastPrinted int
}

func (p *printer) printNewTurns(controller *chat.Controller) {
	messages := controller.Messages()
	if p.lastPrinted > len(messages) {
		p.lastPrinted = 0
	}
	for _, m := range messages[p.lastPrinted:] {
		printMessage(m)
	}
	p.lastPrinted = len(messages)
}

func (p *printer) printTranscript(messages []convo.Message) {
	if len(messages) == 0 {
		p.lastPrinted = 0
		return
	}
	fmt.Println(strings.Repeat("-", 60))
	for _, m := range messages {
		printMessage(m)
	}
	fmt.Println(strings.Repeat("-", 60))
	p.lastPrinted = len(messages)
}

func printMessage(m convo.Message) {
	stamp := color.HiBlackString(m.Timestamp)
	switch m.Kind {
	case convo.KindUser:
		fmt.Printf("%s %s %s\n", stamp, color.BlueString("you:"), m.Text)
	case convo.KindBot:
		fmt.Printf("%s %s %s\n", stamp, color.GreenString("bot:"), m.Text)
	case convo.KindHandoff:
		fmt.Printf("%s %s\n", stamp, color.YellowString(m.Text))
	}
}
