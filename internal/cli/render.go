package cli

import (
	"github.com/ralt/wheelhouse/internal/registry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRenderCmd creates the render command
func NewRenderCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Regenerate the index from the registry",
		Long: `Rewrites the whole index directory from the registry. Rendering is
deterministic: an unchanged registry produces byte-identical pages. Run it
after editing the registry by hand or after a failed render.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(v)
			if err != nil {
				return err
			}

			store := registry.NewFileStore(env.config.RegistryPath)
			reg, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			if len(reg.Packages) == 0 {
				logrus.Warn("No packages found in registry, the index will be empty")
			}

			return env.gen.Generate(cmd.Context(), reg)
		},
	}

	cmd.Flags().Bool("gzip", false, "Also write gzip-compressed pages")
	cmd.Flags().String("title", "", "Root page title")
	bindFlags(v, cmd.Flags(), map[string]string{
		"gzip":  keyGzip,
		"title": keyTitle,
	})

	return cmd
}
