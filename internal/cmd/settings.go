package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dslh/cadscript-mcp/internal/clientsettings"
	"github.com/dslh/cadscript-mcp/internal/paths"
)

var (
	settingsPath     string
	settingsName     string
	settingsCommand  string
	settingsDisabled bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the MCP client settings file",
	Long: `Register cadscript with an MCP client (Claude Desktop, Cline) by editing
the mcpServers map of its settings file. Other keys in the file are kept.`,
}

var settingsInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Add or replace the cadscript server entry",
	Args:  cobra.NoArgs,
	RunE:  runSettingsInstall,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured MCP servers",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a server entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editSettings(cmd, "Removed", func(f *clientsettings.File) error {
			return f.Remove(settingsName)
		})
	},
}

var settingsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable a server entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editSettings(cmd, "Enabled", func(f *clientsettings.File) error {
			return f.SetDisabled(settingsName, false)
		})
	},
}

var settingsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable a server entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editSettings(cmd, "Disabled", func(f *clientsettings.File) error {
			return f.SetDisabled(settingsName, true)
		})
	},
}

func init() {
	settingsCmd.PersistentFlags().StringVar(&settingsPath, "path", "", "settings file (default depends on the OS)")
	settingsCmd.PersistentFlags().StringVar(&settingsName, "name", "fusion360", "server name in mcpServers")
	settingsInstallCmd.Flags().StringVar(&settingsCommand, "command", "", "command the client runs (default is this executable)")
	settingsInstallCmd.Flags().BoolVar(&settingsDisabled, "disabled", false, "install the entry disabled")

	settingsCmd.AddCommand(settingsInstallCmd, settingsListCmd, settingsRemoveCmd, settingsEnableCmd, settingsDisableCmd)
	rootCmd.AddCommand(settingsCmd)
}

func resolveSettingsPath() (string, error) {
	if settingsPath != "" {
		return settingsPath, nil
	}
	return paths.GetClientSettingsPath()
}

func runSettingsInstall(cmd *cobra.Command, args []string) error {
	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}
	command := settingsCommand
	if command == "" {
		command, err = os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
	}

	f, err := clientsettings.LoadOrNew(path)
	if err != nil {
		return err
	}
	if err := f.Install(settingsName, clientsettings.NewServerConfig(command, settingsDisabled)); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added '%s' to MCP settings: %s\n", settingsName, path)
	fmt.Fprintln(cmd.OutOrStdout(), "Restart the MCP client to load the new server.")
	return nil
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}
	f, err := clientsettings.Load(path)
	if err != nil {
		return err
	}
	servers, err := f.Servers()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "MCP servers in %s (%d):\n", path, len(servers))
	for _, s := range servers {
		status := "enabled"
		if s.Disabled {
			status = "disabled"
		}
		fmt.Fprintf(w, "  • %s (%s)\n", s.Name, status)
		fmt.Fprintf(w, "    command: %s\n", s.Command)
		if len(s.Args) > 0 {
			fmt.Fprintf(w, "    args: %v\n", s.Args)
		}
	}
	return nil
}

func editSettings(cmd *cobra.Command, verb string, edit func(*clientsettings.File) error) error {
	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}
	f, err := clientsettings.Load(path)
	if err != nil {
		return err
	}
	if err := edit(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s '%s' in MCP settings: %s\n", verb, settingsName, path)
	return nil
}
