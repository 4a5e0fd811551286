package commands

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/spf13/cobra"
)

func newQueryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <jsonpath>",
		Short: "Evaluate a JSONPath expression against the active profile",
		Long: `Evaluate a JSONPath expression against the active profile's data,
as it appears in a full backup.

Examples:
  gracebooks query '$.accounts[*].name'
  gracebooks query '$.journalEntries[?(@.date >= "2024-03-01")].id'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("encoding profile: %w", err)
			}
			var doc any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("decoding profile: %w", err)
			}
			result, err := jsonpath.Get(args[0], doc)
			if err != nil {
				return fmt.Errorf("evaluating %s: %w", args[0], err)
			}
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
