package main

import (
	"fmt"

	j "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPrintCmd(g *globalFlags) *cobra.Command {
	var schemaPath, format string
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the structure of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			s, err := e.loader.LoadFile(schemaPath, "")
			if err != nil {
				return err
			}
			var out []byte
			switch format {
			case "yaml":
				out, err = yaml.Marshal(s.Describe())
			case "json":
				out, err = j.MarshalIndent(s.Describe(), "", "  ")
				out = append(out, '\n')
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (YAML)")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml, json)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
