package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/gulaysahinn/pitchmate-pro/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved presentations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			path := cfg.Store.Path
			if path == "" {
				path = store.DefaultDBPath()
			}
			st, err := store.Open(path)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tOVERALL\tEYE\tBODY\tWPM\tFILLERS")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\t%d\t%d\n",
					p.ID, p.CreatedAt.Format("2006-01-02 15:04"),
					p.OverallScore, p.EyeContactScore, p.BodyLanguageScore,
					p.WPM, p.FillerCount)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of presentations to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
