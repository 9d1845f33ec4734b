package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/agri-assistant/internal/config"
	"github.com/menta2k/agri-assistant/internal/utils"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Writes the default configuration to --config or to
~/.config/agri-assistant/config.json. The API key is never stored in the file;
keep it in the API_KEY environment variable.`,
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}

		if utils.FileExists(path) && !forceInit {
			if _, err := config.LoadFromFile(path); err != nil {
				return fmt.Errorf("%s exists but is invalid (use --force to overwrite): %w", path, err)
			}
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Default().SaveToFile(path); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
