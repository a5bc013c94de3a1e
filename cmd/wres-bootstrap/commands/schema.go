package commands

import (
	"fmt"

	"wres-bootstrap/internal/poolio"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the pool document",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := poolio.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(s))
			return nil
		},
	}
}
