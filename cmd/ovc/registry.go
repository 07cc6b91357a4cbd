package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ovc-go/internal/app"
	"ovc-go/internal/inventory"
	"ovc-go/internal/ovc"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage devices and their addresses",
}

var deviceAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a device",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("AddDevice", func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
		device, err := a.Service().AddDevice(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Device %s: %s\n", device.Name, device.ID)

		if addr, _ := cmd.Flags().GetString("address"); addr != "" {
			addrType, _ := cmd.Flags().GetString("type")
			priority, _ := cmd.Flags().GetInt("priority")
			if _, err := a.Service().AddDeviceAddress(ctx, device.ID, addr, addrType, priority); err != nil {
				return err
			}
			fmt.Printf("  address %s (%s, priority %d)\n", addr, addrType, priority)
		}
		return nil
	}),
}

var deviceAddrCmd = &cobra.Command{
	Use:   "addr DEVICE_ID ADDRESS",
	Short: "Add a network address to a device",
	Args:  cobra.ExactArgs(2),
	RunE: withApp("AddDeviceAddress", func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
		addrType, _ := cmd.Flags().GetString("type")
		priority, _ := cmd.Flags().GetInt("priority")

		addr, err := a.Service().AddDeviceAddress(ctx, args[0], args[1], addrType, priority)
		if err != nil {
			return err
		}
		fmt.Printf("Address %s added (%s, priority %d)\n", addr.Address, addr.AddressType, addr.Priority)
		return nil
	}),
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices with their addresses",
	RunE: withApp("ListDevices", func(ctx context.Context, a *app.App, _ *cobra.Command, _ []string) error {
		devices, err := a.Service().ListDevices(ctx)
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No devices registered.")
			return nil
		}

		for _, d := range devices {
			fmt.Printf("%s  %s\n", d.ID, d.Name)
			addrs, err := a.Service().ListDeviceAddresses(ctx, d.ID)
			if err != nil {
				return err
			}
			for _, addr := range addrs {
				fmt.Printf("    %-3d %-12s %s\n", addr.Priority, addr.AddressType, addr.Address)
			}
		}
		return nil
	}),
}

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Manage monitored directories",
}

var dirAddCmd = &cobra.Command{
	Use:   "add DEVICE_ID PATH",
	Short: "Monitor a directory on a device",
	Args:  cobra.ExactArgs(2),
	RunE: withApp("AddDirectory", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		dir, err := a.Service().AddDirectory(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Monitoring %s: %s\n", dir.Path, dir.ID)
		return nil
	}),
}

var dirListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored directories",
	RunE: withApp("ListDirectories", func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
		deviceID, _ := cmd.Flags().GetString("device")
		dirs, err := a.Service().ListDirectories(ctx, deviceID)
		if err != nil {
			return err
		}
		if len(dirs) == 0 {
			fmt.Println("No directories monitored.")
			return nil
		}
		for _, d := range dirs {
			state := "active"
			if !d.Active {
				state = "paused"
			}
			fmt.Printf("%s  %-7s %s  %s\n", d.ID, state, d.DeviceID, d.Path)
		}
		return nil
	}),
}

var dirRemoveCmd = &cobra.Command{
	Use:   "remove DIR_ID",
	Short: "Stop monitoring a directory and its files",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("RemoveDirectory", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		if err := a.Service().RemoveDirectory(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Directory removed.")
		return nil
	}),
}

func setDirectoryActive(active bool) func(context.Context, *app.App, *cobra.Command, []string) error {
	return func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		if err := a.Service().SetDirectoryActive(ctx, args[0], active); err != nil {
			return err
		}
		if active {
			fmt.Println("Directory activated.")
		} else {
			fmt.Println("Directory paused.")
		}
		return nil
	}
}

var dirActivateCmd = &cobra.Command{
	Use:   "activate DIR_ID",
	Short: "Resume scanning a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp("ActivateDirectory", setDirectoryActive(true)),
}

var dirDeactivateCmd = &cobra.Command{
	Use:   "deactivate DIR_ID",
	Short: "Pause scanning a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp("DeactivateDirectory", setDirectoryActive(false)),
}

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage monitored files",
}

var fileAddCmd = &cobra.Command{
	Use:   "add DIR_ID NAME",
	Short: "Monitor a file and record its baseline",
	Args:  cobra.ExactArgs(2),
	RunE: withApp("AddFile", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		res, err := a.Service().AddFile(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Monitoring %s: %s\n", res.File.FileName, res.File.ID)
		if res.Baseline.Kind == ovc.OutcomeSkipped {
			fmt.Printf("  baseline not recorded: %v\n", res.Baseline.ScanErr)
		} else if res.Baseline.Version != nil {
			fmt.Printf("  baseline v%d %s\n", res.Baseline.Version.VersionNo, shortHash(res.Baseline.Version.FileHash))
		}
		return nil
	}),
}

var fileListCmd = &cobra.Command{
	Use:   "list DIR_ID",
	Short: "List monitored files of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("ListFiles", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		files, err := a.Service().ListFiles(ctx, args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No files monitored.")
			return nil
		}
		for _, f := range files {
			lastScan := "never"
			if f.LastScanAt.Valid {
				lastScan = f.LastScanAt.Time.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %-20s last scan %s\n", f.ID, f.FileName, lastScan)
		}
		return nil
	}),
}

var fileRemoveCmd = &cobra.Command{
	Use:   "remove FILE_ID",
	Short: "Stop monitoring a file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp("RemoveFile", func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
		if err := a.Service().RemoveFile(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("File removed.")
		return nil
	}),
}

func init() {
	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceAddrCmd)
	deviceCmd.AddCommand(deviceListCmd)
	for _, c := range []*cobra.Command{deviceAddCmd, deviceAddrCmd} {
		c.Flags().String("type", inventory.PrimaryAddressType, "Address type")
		c.Flags().Int("priority", 0, "Lower values are tried first")
	}
	deviceAddCmd.Flags().String("address", "", "Initial network address")

	dirCmd.AddCommand(dirAddCmd)
	dirCmd.AddCommand(dirListCmd)
	dirCmd.AddCommand(dirRemoveCmd)
	dirCmd.AddCommand(dirActivateCmd)
	dirCmd.AddCommand(dirDeactivateCmd)
	dirListCmd.Flags().String("device", "", "Only directories of this device")

	fileCmd.AddCommand(fileAddCmd)
	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileRemoveCmd)
}
