package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/generator"
	"github.com/abhisek/lingua/internal/level"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Manage the shared content cache",
}

var contentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one cached item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := a.Cache.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s not found", args[0])
		}

		fmt.Printf("ID:         %s\n", item.ID)
		fmt.Printf("Skill:      %s / %s (%s)\n", item.SkillArea, item.ExerciseType, item.Kind)
		fmt.Printf("Band:       %s\n", item.Band)
		fmt.Printf("Used:       %d times\n", item.TimesUsed)
		fmt.Printf("Active:     %v\n", item.Active)
		fmt.Printf("Generated:  %s/%s in %s (schema v%d)\n", item.Generation.Provider, item.Generation.Model, item.Generation.Latency, item.Generation.SchemaVersion)
		fmt.Println()
		printPayload(item.Payload)
		return nil
	},
}

var contentRetireCmd = &cobra.Command{
	Use:   "retire <id>",
	Short: "Exclude an item from all future selections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Cache.Retire(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Retired %s.\n", args[0])
		return nil
	},
}

var contentStatsCmd = &cobra.Command{
	Use:   "stats <skill> <exercise-type>",
	Short: "Show the active pool per band",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Cache.PoolStats(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No active content.")
			return nil
		}

		fmt.Printf("%-4s  %8s  %10s\n", "Band", "Items", "Times used")
		fmt.Println(rule(26))
		var items int
		var used int64
		for _, st := range stats {
			fmt.Printf("%-4s  %8d  %10d\n", st.Band, st.Items, st.TimesUsed)
			items += st.Items
			used += st.TimesUsed
		}
		fmt.Println(rule(26))
		fmt.Printf("%-4s  %8d  %10d\n", "ALL", items, used)
		return nil
	},
}

var contentGenerateCmd = &cobra.Command{
	Use:   "generate <skill> <exercise-type>",
	Short: "Pre-generate content into the cache",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bandFlag, _ := cmd.Flags().GetString("band")
		count, _ := cmd.Flags().GetInt("count")
		topics, _ := cmd.Flags().GetStringSlice("topic")

		band, err := level.ParseBand(bandFlag)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.PreGenerate(cmd.Context(), generator.Request{
			SkillArea:    args[0],
			ExerciseType: args[1],
			Band:         band,
			TopicHints:   topics,
		}, count)
		for _, it := range items {
			fmt.Printf("%s  %s  %s\n", it.ID, it.Band, it.Generation.Latency)
		}
		if err != nil {
			return fmt.Errorf("stored %d of %d: %w", len(items), count, err)
		}
		return nil
	},
}

func init() {
	contentGenerateCmd.Flags().StringP("band", "b", "A2", "CEFR band to generate for")
	contentGenerateCmd.Flags().IntP("count", "c", 1, "Number of items")
	contentGenerateCmd.Flags().StringSliceP("topic", "t", nil, "Topic hint (repeatable)")

	contentCmd.AddCommand(contentShowCmd)
	contentCmd.AddCommand(contentRetireCmd)
	contentCmd.AddCommand(contentStatsCmd)
	contentCmd.AddCommand(contentGenerateCmd)
}
