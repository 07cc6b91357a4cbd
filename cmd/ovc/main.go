package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ovc-go/internal/app"
	"ovc-go/internal/config"
	"ovc-go/internal/ovc"
)

// passphraseEnv supplies the private key passphrase without a prompt, e.g. for `ovc serve`.
const passphraseEnv = "OVC_PASSPHRASE"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "AddFile", "ScanAll").
func newApp(ctx context.Context, operation string, args []string) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, operation, args...)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against a freshly wired App and records a failure in the
// operation log before closing it.
func withApp(operation string, fn func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, operation, args)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fn(ctx, a, cmd, args); err != nil {
			a.Fail(err)
			return err
		}
		return nil
	}
}

// readPassphrase returns $OVC_PASSPHRASE or prompts for it on the terminal.
func readPassphrase(prompt string) (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a passphrase; set %s", passphraseEnv)
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(raw), nil
}

// decryptionFor unlocks the private key when v was archived encrypted.
func decryptionFor(a *app.App, encrypted bool) (ovc.DecryptionContext, error) {
	if !encrypted {
		return nil, nil
	}
	if !a.Encrypted() {
		return nil, errors.New("version is encrypted but encryption is not configured")
	}
	passphrase, err := readPassphrase("Passphrase: ")
	if err != nil {
		return nil, err
	}
	return a.Unlock(passphrase)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var rootCmd = &cobra.Command{
	Use:          "ovc",
	Short:        "Monitored-file versioning and alerting",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(encryptionCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(dirCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(scanLogsCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(alertCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(serveCmd)
}
