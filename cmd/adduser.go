package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marcus/academy/internal/store"
)

var adduserCmd = &cobra.Command{
	Use:   "adduser USERNAME EMAIL",
	Short: "Bootstrap an admin account without the UI",
	Long: `Create an admin account directly in the store.

Intended for first-run setup before any admin exists to use the
console. The password is read from --password or prompted for on the
terminal. Does nothing if the username is already taken.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdduser,
}

func init() {
	rootCmd.AddCommand(adduserCmd)

	adduserCmd.Flags().String("password", "", "Password for the new account (prompted if omitted)")
}

func runAdduser(cmd *cobra.Command, args []string) error {
	username, email := args[0], args[1]

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	st, err := store.Open(getBaseDir())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	created, err := st.EnsureAdmin(username, email, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if !created {
		fmt.Printf("User %s already exists, nothing to do\n", username)
		return nil
	}
	fmt.Printf("Created admin %s (%s)\n", username, email)
	return nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt on: pass --password")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
