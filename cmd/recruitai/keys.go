package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/keys"
)

var keysJSON bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show the configured API keys, redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := keys.NewPool(ai.NewKeySource(cfg.AI), keys.WithCooldown(cfg.AI.KeyCooldown))
		if err != nil {
			return err
		}
		return printKeys(cmd.OutOrStdout(), pool.Snapshot(), keysJSON)
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().BoolVar(&keysJSON, "output-json", false, "print the snapshot as JSON")
}

func printKeys(out io.Writer, snap []keys.CredentialStatus, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tKEY\tCURRENT\tCOOLING DOWN\tFAILED AT")
	for _, c := range snap {
		failed := "-"
		if c.FailedAt != nil {
			failed = c.FailedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.Index, c.Key, yesNo(c.Current), yesNo(c.CoolingDown), failed)
	}
	return tw.Flush()
}
