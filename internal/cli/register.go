package cli

import (
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(v *viper.Viper) *cobra.Command {
	var req registry.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register PACKAGE",
		Short: "Add a package to the registry",
		Long: `Adds a package with its source and upstream repositories to the registry
and regenerates the index. Registration fails if a package with the same
normalized name (case-insensitive, "_" and "." treated as "-") exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(v)
			if err != nil {
				return err
			}

			req.Name = args[0]
			store := registry.NewFileStore(env.config.RegistryPath)
			return registry.NewRegistrar(store, env.gen).Register(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVar(&req.SourceRepo, "source", "", "Source repository URL (the fork that is built)")
	cmd.Flags().StringVar(&req.UpstreamRepo, "upstream", "", "Upstream repository URL")
	cmd.Flags().StringVar(&req.Branch, "branch", models.DefaultBranch, "Source branch")
	cmd.Flags().StringVar(&req.Description, "description", "", "Package description shown on its index page")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("upstream")

	return cmd
}
