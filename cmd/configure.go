package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/academy/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or change console configuration",
}

var configServerCmd = &cobra.Command{
	Use:   "server [URL]",
	Short: "Show or set the fragment server URL the console connects to",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigServer,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configServerCmd)
}

func runConfigServer(cmd *cobra.Command, args []string) error {
	dir := getBaseDir()

	if len(args) == 0 {
		url, err := config.GetServerURL(dir)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if url == "" {
			fmt.Println("no server configured")
			return nil
		}
		fmt.Println(url)
		return nil
	}

	if err := config.SetServerURL(dir, args[0]); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("server set to %s\n", args[0])
	return nil
}
