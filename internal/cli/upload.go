package cli

import (
	"github.com/ralt/wheelhouse/internal/registry"
	"github.com/ralt/wheelhouse/internal/storage"
	"github.com/ralt/wheelhouse/internal/uploader"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewUploadCmd creates the upload command
func NewUploadCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload PATH...",
		Short: "Upload wheels and record them in the registry",
		Long: `Uploads wheel files (or every wheel found under a directory) to object
storage, records them under their registered package and regenerates the
index. Wheels of unregistered packages are uploaded but not recorded unless
--require-registered is set, in which case the upload is refused.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(v)
			if err != nil {
				return err
			}

			t, err := storage.New(cmd.Context(), env.config)
			if err != nil {
				return err
			}

			up := uploader.New(
				registry.NewFileStore(env.config.RegistryPath),
				t,
				env.gen,
				uploader.WithPrefix(env.config.Prefix),
				uploader.WithSigner(env.signer),
				uploader.WithRequireRegistered(env.config.RequireRegistered),
			)

			results, err := up.UploadAll(cmd.Context(), args)
			for _, r := range results {
				logrus.Infof("%s -> %s (sha256 %s, registry %s)", r.Filename, r.URL, r.SHA256, r.Action)
			}
			return err
		},
	}

	cmd.Flags().String("backend", defaultBackend, "Storage backend (s3, gcs, file)")
	cmd.Flags().String("bucket", "", "Storage bucket")
	cmd.Flags().String("prefix", "", "Object key prefix")
	cmd.Flags().String("base-url", "", "Public URL prefix for uploaded objects")
	cmd.Flags().Bool("require-registered", false, "Refuse to upload wheels of unregistered packages")
	bindFlags(v, cmd.Flags(), map[string]string{
		"backend":            keyBackend,
		"bucket":             keyBucket,
		"prefix":             keyPrefix,
		"base-url":           keyBaseURL,
		"require-registered": keyRequireRegistered,
	})

	return cmd
}
