// Command eq renders the SQL statements and classified field sets of record
// types declared in a schema file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/eq"
	"github.com/syssam/eq/compiler/load"
	"github.com/syssam/eq/schema"
)

type options struct {
	schemaFile string
	typeName   string
	configFile string
	dialect    string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "eq",
		Short:         "Compile SQL statements from record type metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.schemaFile, "schema", "", "schema file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&opts.typeName, "type", "", "record type name")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (.toml, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&opts.dialect, "dialect", "", "SQL dialect (mysql, postgres, sqlite); overrides the config file")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output as JSON")
	_ = cmd.MarkPersistentFlagRequired("schema")
	_ = cmd.MarkPersistentFlagRequired("type")

	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newFieldsCmd(opts))
	return cmd
}

// setup loads the config and the selected record type.
func (o *options) setup() (*eq.Config, *schema.Type, error) {
	var extra []eq.Option
	if o.dialect != "" {
		extra = append(extra, eq.WithDialect(o.dialect))
	}
	var (
		cfg *eq.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = eq.LoadConfig(o.configFile, extra...)
	} else {
		cfg, err = eq.NewConfig(extra...)
	}
	if err != nil {
		return nil, nil, err
	}
	types, err := load.ReadFile(o.schemaFile)
	if err != nil {
		return nil, nil, err
	}
	t, ok := load.Lookup(types, o.typeName)
	if !ok {
		return nil, nil, fmt.Errorf("type %q not found in %s", o.typeName, o.schemaFile)
	}
	return cfg, t, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
