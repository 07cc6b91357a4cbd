package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ovc-go/internal/app"
	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
	"ovc-go/internal/ovc"
)

const timeLayout = "2006-01-02 15:04:05"

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan files for changes",
	Long:  "Scan one file (--file), one directory (--dir) or every active directory (--all).",
	RunE: withApp("Scan", func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
		fileID, _ := cmd.Flags().GetString("file")
		dirID, _ := cmd.Flags().GetString("dir")
		all, _ := cmd.Flags().GetBool("all")

		svc := a.Service()
		switch {
		case fileID != "":
			out, err := svc.ScanFile(ctx, fileID)
			if err != nil {
				return err
			}
			printOutcome(out)
		case dirID != "":
			res, err := svc.ScanDirectory(ctx, dirID)
			if err != nil {
				return err
			}
			printDirectoryScan(res)
		case all:
			results, err := svc.ScanAll(ctx)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No active directories.")
			}
			for _, res := range results {
				printDirectoryScan(res)
			}
		default:
			return errors.New("one of --file, --dir or --all is required")
		}
		return nil
	}),
}

func printOutcome(out *ovc.DetectionOutcome) {
	line := fmt.Sprintf("%s  %-13s", out.FileID, out.Kind)
	if out.Version != nil {
		line += fmt.Sprintf("  v%d %s", out.Version.VersionNo, shortHash(out.Version.FileHash))
	}
	if out.Alert != nil {
		line += fmt.Sprintf("  alert %s %s", out.Alert.AlertType, out.Alert.ID)
	}
	if out.ScanErr != nil {
		line += fmt.Sprintf("  (%v)", out.ScanErr)
	}
	fmt.Println(line)
}

func printDirectoryScan(res *ovc.DirectoryScanResult) {
	fmt.Printf("%s: %s, %d scanned, %d changed\n", res.Directory.Path, res.Log.Status, res.Log.FilesScanned, res.Log.ChangesDetected)
	for _, out := range res.Outcomes {
		if out.Changed() || out.ScanErr != nil {
			fmt.Print("  ")
			printOutcome(out)
		}
	}
	for _, f := range res.Failures {
		fmt.Printf("  %s  failed: %v\n", f.FileID, f.Err)
	}
}

var scanLogsCmd = &cobra.Command{
	Use:   "scan-logs DIR_ID",
	Short: "View the scan log of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("ListScanLogs", func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		logs, err := a.Service().ListScanLogs(ctx, args[0], limit)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Println("No scans recorded.")
			return nil
		}
		for _, l := range logs {
			fmt.Printf("%s  %-9s  %3d scanned  %3d changed  %s\n",
				l.ScannedAt.Local().Format(timeLayout), l.Status, l.FilesScanned, l.ChangesDetected, orDash(l.Message))
		}
		return nil
	}),
}

var versionsCmd = &cobra.Command{
	Use:   "versions FILE_ID",
	Short: "List the recorded versions of a file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("ListVersions", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		versions, err := a.Service().ListVersions(ctx, args[0])
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("No versions recorded.")
			return nil
		}
		for _, v := range versions {
			printVersion(v)
		}
		return nil
	}),
}

func printVersion(v *sqlc.FileVersion) {
	flags := ""
	if v.StoredLocation == "" {
		flags += "  [not archived]"
	}
	if v.Encrypted {
		flags += "  [encrypted]"
	}
	fmt.Printf("v%-4d %s  %s  %8s  %s%s\n",
		v.VersionNo, v.ID, shortHash(v.FileHash), v.FileSize, v.DetectedAt.Local().Format(timeLayout), flags)
}

var historyCmd = &cobra.Command{
	Use:   "history FILE_ID",
	Short: "View the change history of a file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("ChangeHistory", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		rows, err := a.Service().ChangeHistory(ctx, args[0])
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No changes recorded.")
			return nil
		}
		for _, h := range rows {
			fmt.Printf("%s  v%-4d %s  %8s  %s/%s\n",
				h.DetectedAt.Local().Format(timeLayout), h.VersionNo, shortHash(h.FileHash), h.FileSize, h.AbsoluteDirectory, h.FileName)
		}
		return nil
	}),
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List alerts",
	RunE: withApp("ListAlerts", func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
		open, _ := cmd.Flags().GetBool("open")
		fileID, _ := cmd.Flags().GetString("file")

		alerts, err := a.Service().ListAlerts(ctx, ovc.AlertFilter{FileID: fileID, OpenOnly: open})
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			fmt.Println("No alerts.")
			return nil
		}
		for _, al := range alerts {
			printAlert(al)
		}
		return nil
	}),
}

func printAlert(al *sqlc.FileAlert) {
	by := ""
	switch model.AlertState(al.State) {
	case model.AlertAcknowledged:
		by = " by " + al.AcknowledgedBy
	case model.AlertCleared:
		by = " by " + al.ClearedBy
	}
	fmt.Printf("%s  %s  %-8s %-12s%s  %s\n",
		al.ID, al.CreatedAt.Local().Format(timeLayout), al.AlertType, al.State, by, al.Message)
}

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Acknowledge or clear an alert",
}

func alertActor(cmd *cobra.Command) (string, error) {
	by, _ := cmd.Flags().GetString("by")
	if by == "" {
		by = os.Getenv("USER")
	}
	if by == "" {
		return "", errors.New("--by is required")
	}
	return by, nil
}

var alertAckCmd = &cobra.Command{
	Use:   "ack ALERT_ID",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("AcknowledgeAlert", func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
		by, err := alertActor(cmd)
		if err != nil {
			return err
		}
		al, err := a.Service().Acknowledge(ctx, args[0], by)
		if err != nil {
			return err
		}
		printAlert(al)
		return nil
	}),
}

var alertClearCmd = &cobra.Command{
	Use:   "clear ALERT_ID",
	Short: "Clear an alert",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("ClearAlert", func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
		by, err := alertActor(cmd)
		if err != nil {
			return err
		}
		al, err := a.Service().Clear(ctx, args[0], by)
		if err != nil {
			return err
		}
		printAlert(al)
		return nil
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore VERSION_ID",
	Short: "Write a recorded version back to its device",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("Restore", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		v, err := a.Service().GetVersion(ctx, args[0])
		if err != nil {
			return err
		}
		dc, err := decryptionFor(a, v.Encrypted)
		if err != nil {
			return err
		}

		res, err := a.Service().Restore(ctx, v.ID, dc)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %s/%s to v%d via %s\n", v.AbsoluteDirectory, v.FileName, v.VersionNo, res.Address)
		for _, al := range res.ClearedAlerts {
			fmt.Printf("  cleared alert %s\n", al.ID)
		}
		for _, err := range res.ClearErrors {
			fmt.Printf("  could not clear: %v\n", err)
		}
		return nil
	}),
}

var downloadCmd = &cobra.Command{
	Use:   "download VERSION_ID OUT",
	Short: "Save the archived bytes of a version to a local file",
	Args:  cobra.ExactArgs(2),
	RunE: withApp("Download", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		v, err := a.Service().GetVersion(ctx, args[0])
		if err != nil {
			return err
		}
		dc, err := decryptionFor(a, v.Encrypted)
		if err != nil {
			return err
		}

		out, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[1], err)
		}
		if err := a.Service().ArchivedBytes(ctx, v.ID, out, dc); err != nil {
			out.Close()
			os.Remove(args[1])
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", args[1], err)
		}
		fmt.Printf("Saved v%d of %s to %s\n", v.VersionNo, v.FileName, args[1])
		return nil
	}),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: withApp("Serve", func(ctx context.Context, a *app.App, _ *cobra.Command, _ []string) error {
		var dc ovc.DecryptionContext
		if a.Encrypted() && os.Getenv(passphraseEnv) != "" {
			var err error
			if dc, err = a.Unlock(os.Getenv(passphraseEnv)); err != nil {
				return err
			}
		} else if a.Encrypted() {
			a.Logger().Warn("no passphrase set; encrypted versions cannot be downloaded or restored", "env", passphraseEnv)
		}
		return a.Serve(ctx, dc)
	}),
}

func init() {
	scanCmd.Flags().String("file", "", "Scan a single monitored file")
	scanCmd.Flags().String("dir", "", "Scan a monitored directory")
	scanCmd.Flags().Bool("all", false, "Scan every active directory")
	scanCmd.MarkFlagsMutuallyExclusive("file", "dir", "all")

	scanLogsCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries to show")

	alertsCmd.Flags().Bool("open", false, "Only new and acknowledged alerts")
	alertsCmd.Flags().String("file", "", "Only alerts of this file")

	alertCmd.AddCommand(alertAckCmd)
	alertCmd.AddCommand(alertClearCmd)
	for _, c := range []*cobra.Command{alertAckCmd, alertClearCmd} {
		c.Flags().String("by", "", "Who is acting (default $USER)")
	}
}
