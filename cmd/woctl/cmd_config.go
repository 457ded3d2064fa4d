package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"workorders/internal/settings"
)

var (
	apiBaseURL      string
	templateBaseURL string

	username string
	password string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the backend base URLs",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		view := struct {
			settings.Settings `yaml:",inline"`
			Username          string `yaml:"username,omitempty"`
		}{mgr.Current(), mgr.Username()}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(view)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the API and template base URLs",
	Example: `  woctl config set --api-base-url https://orders.example.com
  woctl config set --template-base-url https://files.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var u settings.Update
		if cmd.Flags().Changed("api-base-url") {
			u.APIBaseURL = &apiBaseURL
		}
		if cmd.Flags().Changed("template-base-url") {
			u.TemplateBaseURL = &templateBaseURL
		}
		if u.APIBaseURL == nil && u.TemplateBaseURL == nil {
			return errors.New("nothing to change: pass --api-base-url or --template-base-url")
		}
		s, err := mgr.Update(cmd.Context(), u)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "api_base_url: %s\ntemplate_base_url: %s\n", s.APIBaseURL, s.TemplateBaseURL)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget stored URLs and return to the environment defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := mgr.Reset(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "api_base_url: %s\ntemplate_base_url: %s\n", s.APIBaseURL, s.TemplateBaseURL)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if password == "" {
			password = os.Getenv("WOCTL_PASSWORD")
		}
		if username == "" || password == "" {
			return errors.New("--username and --password (or WOCTL_PASSWORD) are required")
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := mgr.Login(ctx, username, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", mgr.Current().APIBaseURL, username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mgr.Logout(cmd.Context())
	},
}

func init() {
	configSetCmd.Flags().StringVar(&apiBaseURL, "api-base-url", "", "Backend base URL, /api is appended")
	configSetCmd.Flags().StringVar(&templateBaseURL, "template-base-url", "", "Base URL for import templates")
	configCmd.AddCommand(configShowCmd, configSetCmd, configResetCmd)

	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Account name")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
}
