package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/syssam/eq"
	"github.com/syssam/eq/schema"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		op    string
		where string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the statements of a record type",
		Long: `Print the statement of the given kind, or every statement kind when --op
is omitted. With --where, the select, update or delete statement is filtered
by the given expression instead of the identity fields.`,
		Example: `  eq render --schema users.yaml --type User --op select
  eq render --schema users.yaml --type User --op update --where "Age > @Age"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, t, err := opts.setup()
			if err != nil {
				return err
			}
			if op != "" {
				kind, err := eq.ParseOp(op)
				if err != nil {
					return err
				}
				q, err := render(cfg, t, kind, where)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd, map[string]string{string(kind): q})
				}
				fmt.Fprintln(cmd.OutOrStdout(), q)
				return nil
			}
			return renderAll(cmd, opts, cfg, t)
		},
	}
	cmd.Flags().StringVar(&op, "op", "", "statement kind (select, select_all, insert, identity, upsert, update, delete)")
	cmd.Flags().StringVar(&where, "where", "", "filter expression for select, update and delete")
	return cmd
}

func render(cfg *eq.Config, t *schema.Type, op eq.Op, where string) (string, error) {
	if where == "" {
		return eq.Compile(cfg, t, op)
	}
	b := eq.New(cfg, t, "")
	switch op {
	case eq.OpSelect, eq.OpSelectAll:
		b.SelectWhere(where)
	case eq.OpUpdate:
		b.UpdateWhere(where)
	case eq.OpDelete:
		b.DeleteWhere(where)
	default:
		return "", fmt.Errorf("--where does not apply to %s statements", op)
	}
	return b.Build()
}

// renderAll prints every statement kind. Kinds the record type does not
// support are reported in place of their statement.
func renderAll(cmd *cobra.Command, opts *options, cfg *eq.Config, t *schema.Type) error {
	out := make(map[string]string, len(eq.Ops))
	for _, op := range eq.Ops {
		q, err := eq.Compile(cfg, t, op)
		if err != nil {
			q = "error: " + err.Error()
		}
		out[string(op)] = q
	}
	if opts.jsonOutput {
		return printJSON(cmd, out)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSTATEMENT")
	for _, op := range eq.Ops {
		fmt.Fprintf(w, "%s\t%s\n", op, out[string(op)])
	}
	return w.Flush()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
