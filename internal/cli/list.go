package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	packageurl "github.com/package-url/packageurl-go"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/registry"
	"github.com/ralt/wheelhouse/internal/wheel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listRow is one wheel (or one package without wheels) in the listing
type listRow struct {
	Package    string `json:"package"`
	Normalized string `json:"normalized"`
	Filename   string `json:"filename,omitempty"`
	Platform   string `json:"platform,omitempty"`
	UploadDate string `json:"upload_date,omitempty"`
	PURL       string `json:"purl"`
}

// NewListCmd creates the list command
func NewListCmd(v *viper.Viper) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show registered packages and their wheels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(v)
			if err != nil {
				return err
			}

			reg, err := registry.NewFileStore(config.RegistryPath).Load(cmd.Context())
			if err != nil {
				return err
			}

			rows := listRows(reg)
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), rows)
			case "table", "":
				return writeTable(cmd.OutOrStdout(), rows)
			default:
				return models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("unknown format %q", format))
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")

	return cmd
}

// listRows flattens the registry in index order: packages by normalized name,
// wheels in upload order
func listRows(reg *models.Registry) []listRow {
	names := make([]string, 0, len(reg.Packages))
	for name := range reg.Packages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return registry.Normalize(names[i]) < registry.Normalize(names[j])
	})

	var rows []listRow
	for _, name := range names {
		entry := reg.Packages[name]
		normalized := registry.Normalize(name)

		if len(entry.Wheels) == 0 {
			rows = append(rows, listRow{
				Package:    name,
				Normalized: normalized,
				PURL:       wheelPURL(normalized, "", ""),
			})
			continue
		}

		for _, w := range entry.Wheels {
			version := ""
			if fn, err := wheel.ParseFilename(w.Filename); err == nil {
				version = fn.Version
			}
			rows = append(rows, listRow{
				Package:    name,
				Normalized: normalized,
				Filename:   w.Filename,
				Platform:   w.Platform,
				UploadDate: w.UploadDate,
				PURL:       wheelPURL(normalized, version, w.Filename),
			})
		}
	}
	return rows
}

// wheelPURL builds pkg:pypi/<name>@<version>?file_name=<wheel>
func wheelPURL(name, version, filename string) string {
	var qualifiers packageurl.Qualifiers
	if filename != "" {
		qualifiers = packageurl.Qualifiers{{Key: "file_name", Value: filename}}
	}
	return packageurl.NewPackageURL(packageurl.TypePyPi, "", name, version, qualifiers, "").ToString()
}

func writeJSON(w io.Writer, rows []listRow) error {
	if rows == nil {
		rows = []listRow{}
	}
	output, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func writeTable(w io.Writer, rows []listRow) error {
	table := tablewriter.NewWriter(w)
	table.Header("PACKAGE", "WHEEL", "PLATFORM", "UPLOADED", "PURL")
	for _, r := range rows {
		if err := table.Append([]string{r.Package, r.Filename, r.Platform, r.UploadDate, r.PURL}); err != nil {
			return err
		}
	}
	return table.Render()
}
