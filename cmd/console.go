package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marcus/academy/internal/config"
	"github.com/marcus/academy/internal/fragment"
	"github.com/marcus/academy/internal/serve"
	"github.com/marcus/academy/internal/ui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the terminal console against a fragment server",
	Long: `Open the interactive user administration console.

The console connects to a running academy serve instance. A local
server is discovered through the port file; --server or the config
file override that. Data changes made by other clients show up live
through the server's event stream.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().String("server", "", "Server base URL (default: discovered or from config)")
	consoleCmd.Flags().String("token", "", "Bearer token (default: from config)")
}

func runConsole(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("console requires an interactive terminal")
	}

	dir := getBaseDir()
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	serverURL, _ := cmd.Flags().GetString("server")
	if serverURL == "" {
		serverURL = serve.DiscoverServer(dir)
	}
	if serverURL == "" {
		serverURL = cfg.ServerURL
	}
	if serverURL == "" {
		return fmt.Errorf("no server found: start one with 'academy serve' or pass --server")
	}

	token, _ := cmd.Flags().GetString("token")
	if !flagChanged(cmd.Flags(), "token") && cfg.Token != "" {
		token = cfg.Token
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := fragment.NewClient(serverURL, token)
	stream := client.OpenTriggerStream(ctx)

	p := tea.NewProgram(ui.New(client, stream), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
