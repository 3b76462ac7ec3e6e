package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample fshd configuration file.

By default, the file is created at $XDG_CONFIG_HOME/fsh/config.yaml. Use
--config to specify a custom path.

Examples:
  fshd init
  fshd init --config /etc/fsh/config.yaml
  fshd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "force overwrite of an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error
	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to declare your folders")
	fmt.Println("  2. Start the server with: fshd start --foreground")
	fmt.Printf("  3. Or specify a custom config: fshd start --config %s --foreground\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  The sample config uses the token auth backend, which needs")
	fmt.Println("  security.auth.signing_key_file (a key of at least 32 bytes);")
	fmt.Println("  fshd does not start until it is set.")

	return nil
}
