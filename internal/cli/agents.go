package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/agents"
	"github.com/dshills/quorum/internal/config"
)

var flagAgentsJSON bool

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List available review analyzers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		enabled := make(map[string]bool)
		for _, a := range enabledAgents(cfg.Agents) {
			enabled[a.Key] = true
		}

		out := cmd.OutOrStdout()
		if flagAgentsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(agents.Catalog())
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tNAME\tCATEGORY\tLLM\tENABLED\tFOCUS")
		for _, a := range agents.Catalog() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", a.Key, a.Name, a.Category, yesNo(a.LLM), yesNo(enabled[a.Key]), a.Focus)
		}
		return tw.Flush()
	},
}

// enabledAgents filters the catalog to the configured analyzer keys.
func enabledAgents(keys []string) []agents.Info {
	if len(keys) == 0 {
		return agents.Catalog()
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []agents.Info
	for _, info := range agents.Catalog() {
		if want[info.Key] {
			out = append(out, info)
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	agentsCmd.Flags().BoolVar(&flagAgentsJSON, "json", false, "Print as JSON")
}
