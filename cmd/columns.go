package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the table columns and their initial visibility",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		vis, err := cfg.Columns.Visibility()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tLABEL\tDEFAULT\tVISIBLE")
		for _, st := range vis.States() {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", st.Key, st.Label, st.DefaultVisible, st.Visible)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}
