package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Inspect learner levels",
}

var levelShowCmd = &cobra.Command{
	Use:   "show <user> <skill> <exercise-type>",
	Short: "Show a learner's level without creating one",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		l, err := a.Levels.Get(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if l == nil {
			fmt.Printf("No level recorded; a new learner starts at %.1f.\n", a.Levels.Policy().DefaultLevel)
			return nil
		}

		fmt.Printf("User:       %s\n", l.UserID)
		fmt.Printf("Skill:      %s / %s\n", l.SkillArea, l.ExerciseType)
		fmt.Printf("Level:      %.1f (%s)\n", l.NumericLevel, l.Band())
		fmt.Printf("Attempts:   %d at band\n", l.AttemptsAtBand)
		fmt.Printf("Streaks:    %d correct, %d failed\n", l.CorrectStreak, l.FailureStreak)
		fmt.Printf("Updated:    %s\n", l.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	levelCmd.AddCommand(levelShowCmd)
}
