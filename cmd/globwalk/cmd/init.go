package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/globwalk/configs"
	"github.com/Aman-CERP/globwalk/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a commented .globwalk.yaml template into the current directory, or
with --user the per-user config under ~/.config/globwalk/. An existing
file is preserved unless --force is given, in which case it is backed up
first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force, user)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project one")

	return cmd
}

func runInit(cmd *cobra.Command, force, user bool) error {
	path := ".globwalk.yaml"
	template := configs.ProjectConfigTemplate
	if user {
		path = config.GetUserConfigPath()
		template = configs.UserConfigTemplate
	}

	if !user {
		// Both extensions are valid; never shadow a .yml with a fresh .yaml.
		if _, err := os.Stat(".globwalk.yml"); err == nil {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), ".globwalk.yml already exists, keeping it")
			return nil
		}
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, use --force to overwrite\n", path)
			return nil
		}
		backup, err := config.BackupConfig(path)
		if err != nil {
			return fmt.Errorf("back up existing config: %w", err)
		}
		if backup != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "backed up existing config to %s\n", backup)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
