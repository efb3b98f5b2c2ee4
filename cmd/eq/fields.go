package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/syssam/eq/naming"
	"github.com/syssam/eq/schema/field"
)

func newFieldsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "Print the classified field sets of a record type",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, t, err := opts.setup()
			if err != nil {
				return err
			}
			fs := cfg.Meta().Fields(t)
			sets := []struct {
				name   string
				fields []*field.Descriptor
			}{
				{"id", fs.ID},
				{"scaffoldable", fs.Scaffoldable},
				{"select", fs.Select},
				{"insert", fs.Insert},
				{"update", fs.Update},
				{"upsert_insert", fs.UpsertInsert},
				{"upsert_update", fs.UpsertUpdate},
			}
			if opts.jsonOutput {
				out := make(map[string][]string, len(sets))
				for _, s := range sets {
					out[s.name] = names(s.fields)
				}
				return printJSON(cmd, map[string]any{
					"type":   t.Name,
					"table":  naming.Unquote(cfg.Meta().TableName(t)),
					"fields": out,
				})
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "TABLE\t%s\n", cfg.Meta().TableName(t))
			for _, f := range t.Fields {
				fmt.Fprintf(w, "COLUMN\t%s\t%s\t%s\n", f.Name, cfg.Meta().ColumnName(t, f), f.Info)
			}
			for _, s := range sets {
				fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(s.name), strings.Join(names(s.fields), ", "))
			}
			return w.Flush()
		},
	}
}

func names(fields []*field.Descriptor) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}
