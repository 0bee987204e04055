package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "List the content a learner has seen, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.Cache.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No usage recorded.")
			return nil
		}
		if limit > 0 && len(recs) > limit {
			recs = recs[:limit]
		}

		fmt.Printf("%-19s  %-36s  %s\n", "Used", "Item", "Score")
		fmt.Println(rule(64))
		for _, r := range recs {
			score := "-"
			if r.Score != nil {
				score = fmt.Sprintf("%d", *r.Score)
			}
			fmt.Printf("%-19s  %-36s  %s\n", r.UsedAt.Local().Format("2006-01-02 15:04:05"), r.ContentItemID, score)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of records to show")
}
