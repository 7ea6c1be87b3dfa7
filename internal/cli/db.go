package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/dbmanager"
)

func newDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage vector databases",
		Long: `List, inspect, back up and delete the vector databases under the
configured data directory.`,
	}

	cmd.AddCommand(newDBListCommand())
	cmd.AddCommand(newDBStatusCommand())
	cmd.AddCommand(newDBDeleteCommand())
	cmd.AddCommand(newDBBackupCommand())

	return cmd
}

func newDBListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			infos, err := dbmanager.New(cfg.Storage.DataDir).List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Printf("No databases found under %s\n", cfg.Storage.DataDir)
				return nil
			}

			for _, info := range infos {
				printDBInfo(&info)
			}
			return nil
		},
	}
}

func newDBStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show one database's artifacts and stats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			name := cfg.Storage.Database
			if len(args) == 1 {
				name = args[0]
			}

			info, err := dbmanager.New(cfg.Storage.DataDir).Status(name)
			if err != nil {
				if dbmanager.IsNotFound(err) {
					return fmt.Errorf("database %q does not exist", name)
				}
				return err
			}

			printDBInfo(info)
			return nil
		},
	}
}

func newDBDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			name := args[0]
			if !force {
				return fmt.Errorf("refusing to delete %q without --force", name)
			}

			if err := dbmanager.New(cfg.Storage.DataDir).Delete(name); err != nil {
				if dbmanager.IsNotFound(err) {
					return fmt.Errorf("database %q does not exist", name)
				}
				return err
			}

			fmt.Printf("Deleted database %q\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}

func newDBBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <name>",
		Short: "Copy a database into the backups directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dest, err := dbmanager.New(cfg.Storage.DataDir).Backup(args[0])
			if err != nil {
				if dbmanager.IsNotFound(err) {
					return fmt.Errorf("database %q does not exist", args[0])
				}
				return err
			}

			fmt.Printf("Backed up to %s\n", dest)
			return nil
		},
	}
}

func printDBInfo(info *dbmanager.Info) {
	status := "complete"
	if !info.Complete {
		status = fmt.Sprintf("INCOMPLETE (missing %v)", info.MissingFiles)
	}

	fmt.Printf("%s\n", info.Name)
	fmt.Printf("  path:   %s\n", info.Path)
	fmt.Printf("  status: %s\n", status)
	if info.Config != nil {
		fmt.Printf("  model:  %s\n", info.Config.ModelName)
		fmt.Printf("  vectors: %d (dimension %d)\n", info.Config.TotalVectors, info.Config.Dimension)
	}
	fmt.Printf("  size:   %.1f KB\n", float64(info.SizeBytes)/1024)
}
