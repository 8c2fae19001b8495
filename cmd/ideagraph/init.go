package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/ideagraph/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/ideagraph.yaml
var configTemplate []byte

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a commented ideagraph configuration file",
		Long: `Init writes a configuration file with the default request settings and
commented examples of per-locale settings (domain, Accept-Language,
User-Agent rotation, headers, cookie and proxy).

Examples:
  # Create .ideagraph in the current directory
  ideagraph init

  # Create the per-user file in the XDG config directory
  ideagraph init --xdg

  # Overwrite an existing file
  ideagraph init -f -o myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().Bool("xdg", false,
		"Write config.yaml to the XDG config directory instead of --output")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if useXDG {
		outputPath = filepath.Join(config.XDGConfigDir(), "config.yaml")
	}
	if err := prepareConfigPath(outputPath, force); err != nil {
		return err
	}

	// The file may hold cookies, so only the owner can read it.
	if err := os.WriteFile(outputPath, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `Created configuration file: %s

Uncomment the "locales" section to give each --lang value its own domain,
Accept-Language, User-Agents, headers, cookie and SOCKS5 proxy.
`, outputPath)
	return nil
}

// prepareConfigPath refuses to replace an existing file unless force is
// set, and creates the missing parent directories.
func prepareConfigPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}
