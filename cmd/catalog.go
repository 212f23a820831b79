package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/mossy/internal/models"
)

var (
	catalogFormat  string
	catalogReplace bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import or export the habit catalog",
	Long: `Import or export a user's habit catalog as YAML or JSON.

Exports are always written in the current document shape. Imports accept
older shapes too (dailyActivities, dailySpecific, malusList, bare strings)
and merge top-level keys into the stored catalog unless --replace is given.`,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the catalog to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return catalogExportRun(path)
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a catalog from a YAML or JSON file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return catalogImportRun(args[0])
	},
}

func init() {
	catalogExportCmd.Flags().StringVarP(&catalogFormat, "format", "f", "", "Output format: yaml or json (default from file extension, else yaml)")
	catalogImportCmd.Flags().StringVarP(&catalogFormat, "format", "f", "", "Input format: yaml or json (default from file extension)")
	catalogImportCmd.Flags().BoolVar(&catalogReplace, "replace", false, "Drop every stored key the file does not set")
	catalogCmd.AddCommand(catalogExportCmd, catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func catalogExportRun(path string) error {
	ctx := context.Background()
	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}
	c, err := svc.Catalog(ctx, u.ID)
	if err != nil {
		return err
	}
	doc, err := c.Document()
	if err != nil {
		return err
	}
	data, err := encodeDocument(doc, formatFor(path, catalogFormat))
	if err != nil {
		return err
	}

	if path == "" || path == "-" {
		_, err = ui.Out.Write(data)
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would write catalog of %s to %s", u.Name, path)
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	ui.Success("Exported catalog of %s to %s", u.Name, path)
	return nil
}

func catalogImportRun(path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := decodeDocument(data, formatFor(path, catalogFormat))
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}

	patch := doc
	if catalogReplace {
		stored, err := svc.Store().LoadCatalogDocument(ctx, u.ID)
		if err != nil {
			return err
		}
		patch = replacementPatch(stored, doc)
	}

	if dryRun {
		ui.DryRunMsg("Would import keys %s into the catalog of %s", strings.Join(patch.Keys(), ", "), u.Name)
		return nil
	}
	merged, err := svc.Store().SaveCatalog(ctx, u.ID, patch)
	if err != nil {
		return err
	}
	c := merged.Catalog()
	ui.Success("Imported catalog of %s: %d base, %d weekly, %d malus",
		u.Name, len(c.BaseActivities), len(c.WeeklyActivities), len(c.Malus))
	return nil
}

// replacementPatch turns doc into a patch that also nulls every stored key doc
// does not carry.
func replacementPatch(stored, doc models.Document) models.Document {
	patch := models.Document{}
	for k := range stored {
		patch[k] = json.RawMessage("null")
	}
	for k, v := range doc {
		patch[k] = v
	}
	return patch
}

func formatFor(path, flag string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// encodeDocument renders a catalog document as indented JSON or YAML.
func encodeDocument(doc models.Document, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		// Round-trip through a generic value so YAML sees plain maps and lists.
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		_ = enc.Close()
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (use yaml or json)", format)
	}
}

// decodeDocument reads a catalog document from JSON or YAML. The top level must
// be a mapping.
func decodeDocument(data []byte, format string) (models.Document, error) {
	switch format {
	case "json":
		var doc models.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse JSON catalog: %w", err)
		}
		if doc == nil {
			return nil, fmt.Errorf("catalog must be an object")
		}
		return doc, nil
	case "yaml", "yml":
		var v map[string]any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse YAML catalog: %w", err)
		}
		if v == nil {
			return nil, fmt.Errorf("catalog must be a mapping")
		}
		doc := models.Document{}
		for k, val := range v {
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", k, err)
			}
			doc[k] = raw
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown format %q (use yaml or json)", format)
	}
}
