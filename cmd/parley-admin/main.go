// ABOUTME: Admin CLI for managing parley backend tenants and agents.
// ABOUTME: Talks to the backend admin API with a bearer token from env or token file.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/tenant"
)

const banner = `
                  _                        _           _
 _ __   __ _ _ __| | ___ _   _        __ _| |_ __ ___ (_)_ __
| '_ \ / _' | '__| |/ _ \ | | |_____ / _' | | '_ ' _ \| | '_ \
| |_) | (_| | |  | |  __/ |_| |_____| (_| | | | | | | | | | | |
| .__/ \__,_|_|  |_|\___|\__, |      \__,_|_|_| |_| |_|_|_| |_|
|_|                      |___/
`

// getToken returns the admin token from PARLEY_ADMIN_TOKEN or ~/.config/parley/token
func getToken() string {
	if token := os.Getenv("PARLEY_ADMIN_TOKEN"); token != "" {
		return token
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	tokenPath := filepath.Join(configDir, "parley", "token")
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

func backendURL() string {
	if url := os.Getenv("PARLEY_BACKEND_URL"); url != "" {
		return url
	}
	return "http://localhost:3000"
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	client := backend.New(backendURL(), getToken(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "status":
		err = cmdStatus(ctx, client)
	case "tenants":
		err = cmdTenants(ctx, client, args)
	case "agents":
		err = cmdAgents(ctx, client, args)
	case "sessions":
		err = cmdSessions(ctx, client, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: parley-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  status                    Check backend reachability and credential")
	fmt.Println("  tenants                   List tenants")
	fmt.Println("  tenants create <id> [name]  Create a tenant")
	fmt.Println("  tenants delete <id>       Delete a tenant")
	fmt.Println("  agents                    List agents for a tenant")
	fmt.Println("  agents show <id>          Show one agent definition")
	fmt.Println("  agents import <file.toml> Create or update an agent from a TOML file")
	fmt.Println("  agents delete <id>        Delete an agent")
	fmt.Println("  sessions                  List conversations for a tenant")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  PARLEY_BACKEND_URL   Backend base URL (default: http://localhost:3000)")
	fmt.Println("  PARLEY_ADMIN_TOKEN   Admin bearer token (or ~/.config/parley/token)")
	fmt.Println("  PARLEY_TENANT        Tenant for agent/session commands (default: default)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  export PARLEY_ADMIN_TOKEN=\"eyJhbG...\"")
	fmt.Println("  parley-admin tenants")
	fmt.Println("  PARLEY_TENANT=acme parley-admin agents import support-agent.toml")
	fmt.Println()
}

// currentTenant returns the tenant targeted by agent and session commands.
func currentTenant() string {
	return tenant.Normalize(os.Getenv("PARLEY_TENANT"))
}

func cmdStatus(ctx context.Context, client *backend.Client) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()

	tenants, err := client.ListTenants(ctx)
	if err != nil {
		yellow.Printf("  Backend:    ")
		color.Red("UNREACHABLE (%v)\n", err)
		return nil
	}

	green.Printf("  Backend:    ")
	fmt.Printf("connected to %s (%d tenants)\n", backendURL(), len(tenants))

	if client.HasAdminCredential() {
		green.Printf("  Credential: ")
		if _, err := client.ListTenantsAdmin(ctx); err != nil {
			color.Red("rejected (%v)\n", err)
		} else {
			fmt.Println("accepted")
		}
	} else {
		yellow.Printf("  Credential: ")
		fmt.Println("(none - set PARLEY_ADMIN_TOKEN)")
	}

	fmt.Println()
	return nil
}

func cmdTenants(ctx context.Context, client *backend.Client, args []string) error {
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdTenantsList(ctx, client)
	case "create", "add":
		if len(args) < 1 {
			return fmt.Errorf("usage: parley-admin tenants create <id> [name]")
		}
		opt := backend.TenantOption{ID: args[0]}
		if len(args) > 1 {
			opt.Name = strings.Join(args[1:], " ")
		}
		if err := client.CreateTenant(ctx, opt); err != nil {
			return fmt.Errorf("creating tenant: %w", err)
		}
		color.Green("Created tenant %s", opt.ID)
		return nil
	case "delete", "rm", "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: parley-admin tenants delete <id>")
		}
		if err := client.DeleteTenant(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting tenant: %w", err)
		}
		color.Green("Deleted tenant %s", args[0])
		return nil
	default:
		return fmt.Errorf("unknown tenants subcommand: %s (use list, create, delete)", subcmd)
	}
}

func cmdTenantsList(ctx context.Context, client *backend.Client) error {
	tenants, err := client.ListTenantsAdmin(ctx)
	if err != nil {
		// Fall back to the public catalog for read-only listing
		tenants, err = client.ListTenants(ctx)
		if err != nil {
			return fmt.Errorf("listing tenants: %w", err)
		}
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Tenants")
	cyan.Println("  -------")

	if len(tenants) == 0 {
		fmt.Println("  (no tenants)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME")
	fmt.Fprintln(w, "  --\t----")
	for _, t := range tenants {
		fmt.Fprintf(w, "  %s\t%s\n", t.ID, t.Name)
	}
	w.Flush()
	fmt.Println()

	return nil
}

// agentFile is the TOML shape accepted by `agents import`.
type agentFile struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	Description  string   `toml:"description"`
	Instructions string   `toml:"instructions"`
	Model        string   `toml:"model"`
	Tools        []string `toml:"tools"`
}

func cmdAgents(ctx context.Context, client *backend.Client, args []string) error {
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	tenantID := currentTenant()

	switch subcmd {
	case "list", "ls":
		return cmdAgentsList(ctx, client, tenantID)
	case "show":
		if len(args) < 1 {
			return fmt.Errorf("usage: parley-admin agents show <id>")
		}
		return cmdAgentsShow(ctx, client, tenantID, args[0])
	case "import":
		if len(args) < 1 {
			return fmt.Errorf("usage: parley-admin agents import <file.toml>")
		}
		return cmdAgentsImport(ctx, client, tenantID, args[0])
	case "delete", "rm", "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: parley-admin agents delete <id>")
		}
		if err := client.DeleteAgent(ctx, tenantID, args[0]); err != nil {
			return fmt.Errorf("deleting agent: %w", err)
		}
		color.Green("Deleted agent %s", args[0])
		return nil
	default:
		return fmt.Errorf("unknown agents subcommand: %s (use list, show, import, delete)", subcmd)
	}
}

func cmdAgentsList(ctx context.Context, client *backend.Client, tenantID string) error {
	agents, err := client.ListAgents(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("listing agents: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  Agents (%s)\n", tenantID)
	cyan.Println("  ------")

	if len(agents) == 0 {
		fmt.Println("  (no agents)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tMODEL\tDESCRIPTION")
	fmt.Fprintln(w, "  --\t----\t-----\t-----------")
	for _, a := range agents {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", a.ID, a.Name, a.Model, truncate(a.Description, 40))
	}
	w.Flush()
	fmt.Println()

	return nil
}

func cmdAgentsShow(ctx context.Context, client *backend.Client, tenantID, id string) error {
	agent, err := client.GetAgent(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("fetching agent: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  %s\n", agent.Name)
	cyan.Println("  " + strings.Repeat("-", len(agent.Name)))
	fmt.Printf("  ID:           %s\n", agent.ID)
	fmt.Printf("  Model:        %s\n", agent.Model)
	if agent.Description != "" {
		fmt.Printf("  Description:  %s\n", agent.Description)
	}
	if len(agent.Tools) > 0 {
		fmt.Printf("  Tools:        %s\n", strings.Join(agent.Tools, ", "))
	}
	if agent.Instructions != "" {
		fmt.Println()
		fmt.Println("  Instructions:")
		for _, line := range strings.Split(agent.Instructions, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	fmt.Println()

	return nil
}

func cmdAgentsImport(ctx context.Context, client *backend.Client, tenantID, path string) error {
	var def agentFile
	if _, err := toml.DecodeFile(path, &def); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if def.Name == "" {
		return fmt.Errorf("%s: name is required", path)
	}

	agent := backend.Agent{
		ID:           def.ID,
		Name:         def.Name,
		Description:  def.Description,
		Instructions: def.Instructions,
		Model:        def.Model,
		Tools:        def.Tools,
	}

	if err := client.SaveAgent(ctx, tenantID, agent); err != nil {
		return fmt.Errorf("saving agent: %w", err)
	}

	if agent.ID != "" {
		color.Green("Updated agent %s on tenant %s", agent.ID, tenantID)
	} else {
		color.Green("Created agent %q on tenant %s", agent.Name, tenantID)
	}
	return nil
}

func cmdSessions(ctx context.Context, client *backend.Client, _ []string) error {
	tenantID := currentTenant()

	sessions, err := client.ListSessions(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  Sessions (%s)\n", tenantID)
	cyan.Println("  --------")

	if len(sessions) == 0 {
		fmt.Println("  (no sessions)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SESSION\tAGENT\tUPDATED\tLAST MESSAGE")
	fmt.Fprintln(w, "  -------\t-----\t-------\t------------")
	for _, s := range sessions {
		updated := s.UpdatedAt
		if t, err := time.Parse(time.RFC3339, s.UpdatedAt); err == nil {
			updated = t.Format("Jan 02 15:04")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", s.Phone, s.AgentID, updated, truncate(s.LastMessage, 40))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
