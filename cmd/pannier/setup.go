package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a config file interactively",
	Long: `Create a config.yaml interactively.

You will be prompted for:
  - Server port and public URL
  - Store backend and its location
  - Admin credentials`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().String("output", "config.yaml", "where to write the config file")
	rootCmd.AddCommand(setupCmd)
}

type setupConfig struct {
	Server struct {
		Port      int    `yaml:"port"`
		PublicURL string `yaml:"public_url,omitempty"`
	} `yaml:"server"`
	Store struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path,omitempty"`
		DSN     string `yaml:"dsn,omitempty"`
	} `yaml:"store"`
	Auth struct {
		Enabled  bool   `yaml:"enabled"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Mode     string `yaml:"mode"`
	} `yaml:"auth"`
}

func runSetup(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(output); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", output),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var cfg setupConfig

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: "5710",
		Validate: func(input string) error {
			p, err := strconv.Atoi(input)
			if err != nil || p < 1 || p > 65535 {
				return errors.New("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	urlPrompt := promptui.Prompt{
		Label:   "Public URL (empty to derive from requests)",
		Default: "",
	}
	cfg.Server.PublicURL, err = urlPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	backendSelect := promptui.Select{
		Label: "Store backend",
		Items: []string{"fs", "memory", "sqlite", "postgres"},
	}
	_, cfg.Store.Backend, err = backendSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	switch cfg.Store.Backend {
	case "fs":
		pathPrompt := promptui.Prompt{Label: "Data directory", Default: "./data"}
		cfg.Store.Path, err = pathPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	case "sqlite":
		dsnPrompt := promptui.Prompt{Label: "Database file", Default: "pannier.db"}
		cfg.Store.DSN, err = dsnPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	case "postgres":
		dsnPrompt := promptui.Prompt{Label: "Postgres DSN"}
		cfg.Store.DSN, err = dsnPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	}

	userPrompt := promptui.Prompt{
		Label: "Admin username",
		Validate: func(input string) error {
			if input == "" {
				return errors.New("username is required")
			}
			return nil
		},
	}
	cfg.Auth.Username, err = userPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	passPrompt := promptui.Prompt{
		Label: "Admin password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	cfg.Auth.Password, err = passPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	modeSelect := promptui.Select{
		Label: "Auth mode",
		Items: []string{"cookie", "token"},
	}
	_, cfg.Auth.Mode, err = modeSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Auth.Enabled = true

	raw, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(output, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s. Start the server with 'pannier serve'.\n", output)
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
