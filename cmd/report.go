package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <user> <skill> <exercise-type> <score>",
	Short: "Report a graded attempt (0-100) and update the learner's level",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid score %q: %w", args[3], err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Selector.ReportScore(cmd.Context(), args[0], args[1], args[2], score)
		if err != nil {
			return err
		}

		l := res.Level
		fmt.Printf("Outcome:  %s\n", res.Outcome)
		fmt.Printf("Level:    %.1f (%s)\n", l.NumericLevel, l.Band())
		fmt.Printf("Streaks:  %d correct, %d failed, %d attempts at band\n", l.CorrectStreak, l.FailureStreak, l.AttemptsAtBand)
		if res.Change != nil {
			fmt.Printf("Change:   %.1f -> %.1f (%s)\n", res.Change.From, res.Change.To, res.Change.Trigger)
		}
		return nil
	},
}
