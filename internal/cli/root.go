package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	v := newViper()

	rootCmd := &cobra.Command{
		Use:   "wheelhouse",
		Short: "Publish Python wheels and maintain a static simple index",
		Long: `Wheelhouse keeps a JSON registry of packages and their wheels, uploads
wheel files to object storage and renders a static PEP 503 simple index
from the registry that pip can install from.

Commands:
  - register: add a package to the registry
  - upload:   publish wheels and record them in the registry
  - render:   regenerate the index from the registry
  - list:     show the registry contents`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging
			if v.GetBool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}

			return readConfigFile(v)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./wheelhouse.yaml if present)")
	rootCmd.PersistentFlags().String("registry", defaultRegistryPath, "Path to the registry JSON file")
	rootCmd.PersistentFlags().String("index-dir", defaultIndexDir, "Output directory for the index")
	bindFlags(v, rootCmd.PersistentFlags(), map[string]string{
		"verbose":   "verbose",
		"config":    "config",
		"registry":  keyRegistry,
		"index-dir": keyIndexDir,
	})

	// Add subcommands
	rootCmd.AddCommand(NewRegisterCmd(v))
	rootCmd.AddCommand(NewUploadCmd(v))
	rootCmd.AddCommand(NewRenderCmd(v))
	rootCmd.AddCommand(NewListCmd(v))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// newViper returns a viper instance with defaults and WHEELHOUSE_ env binding
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}
