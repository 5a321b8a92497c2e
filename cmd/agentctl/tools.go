package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"voice-agent-workers/internal/tools"
	"voice-agent-workers/pkg/registry"
)

const catalogVersion = "1.0.0"

func newToolsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the tool registry",
	}

	load := func() (*tools.Registry, error) {
		cfg, err := flags.load()
		if err != nil {
			return nil, err
		}
		return localRegistry(cfg, flags.logger())
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			return printToolTable(cmd.OutOrStdout(), reg)
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info [name]",
		Short: "Show a tool's parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			info, ok := reg.Info(args[0])
			if !ok {
				return fmt.Errorf("unknown tool %q, available: %s", args[0], strings.Join(reg.Names(), ", "))
			}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	var outPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tool catalog as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			cat, err := catalogFromRegistry(reg, catalogVersion)
			if err != nil {
				return err
			}
			if err := cat.Validate(); err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				data, err := json.MarshalIndent(cat, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := registry.SaveCatalog(cat, outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tools to %s\n", len(cat.Tools), outPath)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout when empty)")

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a tool catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := registry.LoadCatalog(args[0])
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("catalog %s does not exist", args[0])
				}
				return err
			}
			if err := cat.Validate(); err != nil {
				return fmt.Errorf("catalog validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog validation passed. Found %d tools.\n", len(cat.Tools))
			return nil
		},
	}

	cmd.AddCommand(listCmd, infoCmd, exportCmd, validateCmd)
	return cmd
}

func printToolTable(out io.Writer, reg *tools.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREQUIRED\tOPTIONAL\tDESCRIPTION")
	for _, name := range reg.Names() {
		info, _ := reg.Info(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			info.Name,
			dashIfEmpty(strings.Join(info.RequiredParams, ",")),
			dashIfEmpty(strings.Join(info.OptionalParams, ",")),
			info.Description,
		)
	}
	return w.Flush()
}

// catalogFromRegistry renders every registered tool, in registration order,
// as a catalog entry carrying its input schema.
func catalogFromRegistry(reg *tools.Registry, version string) (*registry.ToolCatalog, error) {
	entries := make([]registry.Tool, 0, len(reg.Names()))
	for _, def := range reg.Definitions() {
		entry := registry.Tool{
			Name:           def.Name,
			Description:    def.Description,
			RequiredParams: nonNil(def.RequiredParams),
			OptionalParams: nonNil(def.OptionalParams),
		}
		if len(def.InputSchema.Properties) > 0 {
			schema, err := tools.ToParams(def.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", def.Name, err)
			}
			entry.InputSchema = schema
		}
		entries = append(entries, entry)
	}
	return registry.NewCatalog(version, entries...), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
