package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llmfactory"
	"github.com/effective-security/mcpclient/pkg/llmutils"
	"github.com/effective-security/mcpclient/pkg/schema"
	"github.com/effective-security/mcpclient/tools"
	"github.com/spf13/cobra"
)

func (c *cli) toolsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tools <path_to_server_script>",
		Short: "Print the tool definitions sent to the LLM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := connectSession(ctx, args[0], c.sessionOptions()...)
			if err != nil {
				return err
			}
			defer func() {
				_ = session.Close()
			}()

			list, err := session.ListTools(ctx)
			if err != nil {
				return errors.WithMessage(err, "failed to list tools")
			}
			defs := tools.Adapt(list, tools.WithSchemaMode(c.schemaMode()))

			switch strings.ToLower(format) {
			case "json":
				fmt.Fprintln(c.out, llmutils.ToJSONIndent(defs))
			case "yaml":
				fmt.Fprint(c.out, llmutils.ToYAML(defs))
			default:
				return errors.Newf("unsupported format: %s", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	return cmd
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the LLM config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			js := schema.JSONSchema(reflect.TypeOf(llmfactory.Config{}))
			fmt.Fprintln(c.out, llmutils.ToJSONIndent(js))
			return nil
		},
	}
}
