package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ovc-go/internal/app"
	"ovc-go/internal/config"
	"ovc-go/internal/database"
	"ovc-go/internal/encryption"
	"ovc-go/internal/scanner"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])

		if cfg.Scanner.Type == "script" {
			written, err := scanner.InstallScripts(cfg.Scanner)
			if err != nil {
				return fmt.Errorf("installing device scripts: %w", err)
			}
			for _, path := range written {
				fmt.Printf("Installed %s\n", path)
			}
			fmt.Printf("Device scripts run with %s; edit them to match how your devices are reached.\n", cfg.Scanner.Interpreter)
		}
		fmt.Println("Next: run `ovc db migrate`.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s\n", cfg.Database.Type)
		fmt.Printf("Archive:     %s\n", cfg.Archive.Type)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		fmt.Printf("Scanner:     %s (timeout %s, concurrency %d)\n", cfg.Scanner.Type, cfg.Scanner.Timeout, cfg.Scanner.Concurrency)
		fmt.Printf("Staging:     %s (max %d bytes)\n", cfg.Staging.Type, cfg.Staging.MaxSize)
		fmt.Printf("Listen:      %s\n", cfg.Server.Listen)
		return nil
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the metadata database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.NewDatabaseFromConfig(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if err := db.MigrateUp(); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date.")
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup PATH",
	Short: "Write a snapshot of the SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("BackupDatabase", func(_ context.Context, a *app.App, _ *cobra.Command, args []string) error {
		if err := a.BackupDatabase(args[0]); err != nil {
			return err
		}
		fmt.Printf("Database written to %s\n", args[0])
		return nil
	}),
}

var encryptionCmd = &cobra.Command{
	Use:   "encryption",
	Short: "Manage encryption at rest",
}

var encryptionSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate the key pair protecting archived copies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if enc == nil {
			return fmt.Errorf("encryption type is %q; set [encryption] type = \"age\" first", cfg.Encryption.Type)
		}
		if enc.IsConfigured() {
			fmt.Println("Encryption keys already exist.")
			return nil
		}

		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbBackupCmd)

	encryptionCmd.AddCommand(encryptionSetupCmd)
}
