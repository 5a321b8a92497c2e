package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"voice-agent-workers/internal/conversation/persona"
)

func newPersonasCmd(flags *globalFlags) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the persona catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			catalog, err := persona.LoadCatalog(cfg.Pipeline.PersonaFile, cfg.Pipeline.DefaultPersona)
			if err != nil {
				return err
			}

			if asYAML {
				data, err := catalog.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tROLE\tCOMPANY")
			for _, p := range catalog.List() {
				key := p.Key
				if key == catalog.DefaultKey() {
					key += " (default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, p.Name, p.Role, p.Company)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the catalog in its file format")
	return cmd
}
