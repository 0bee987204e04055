package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/engine"
)

var selectCmd = &cobra.Command{
	Use:   "select <user> <skill> <exercise-type>",
	Short: "Pick the next exercise for a learner and record its use",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringSlice("topic")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sel, err := a.Selector.SelectFor(cmd.Context(), args[0], args[1], args[2], engine.WithTopicHints(topics...))
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(map[string]any{
				"id":      sel.Item.ID,
				"source":  sel.Source,
				"band":    sel.Item.Band,
				"level":   sel.Level.NumericLevel,
				"kind":    sel.Item.Kind,
				"payload": sel.Item.Payload,
			})
		}

		fmt.Printf("Item:     %s\n", sel.Item.ID)
		fmt.Printf("Source:   %s\n", sel.Source)
		fmt.Printf("Learner:  %.1f (%s)\n", sel.Level.NumericLevel, sel.Level.Band())
		fmt.Printf("Band:     %s\n", sel.Item.Band)
		fmt.Println()
		printPayload(sel.Item.Payload)
		return nil
	},
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// printPayload renders an exercise for the terminal with answers marked.
func printPayload(p content.Payload) {
	switch p := p.(type) {
	case *content.Conversation:
		fmt.Printf("%s\n%s\n\n", p.Title, p.Scenario)
		for _, t := range p.Turns {
			fmt.Printf("%s: %s\n", t.Speaker, t.Line)
			printOptions(t.Options, t.CorrectIndex)
		}
	case *content.FillBlank:
		fmt.Println(p.Instructions)
		for i, it := range p.Items {
			fmt.Printf("%2d. %s____%s  [%s]\n", i+1, it.Prefix, it.Suffix, it.Answer)
		}
	case *content.Passage:
		fmt.Printf("%s\n\n%s\n\n", p.Title, p.Text)
		for i, b := range p.Blanks {
			fmt.Printf("{{%d}} %s\n", i+1, b.Answer)
		}
		fmt.Println()
		for i, q := range p.Questions {
			fmt.Printf("%d. %s\n", i+1, q.Prompt)
			printOptions(q.Options, q.CorrectIndex)
		}
	}
}

func printOptions(options []string, correct int) {
	for i, o := range options {
		mark := " "
		if i == correct {
			mark = "*"
		}
		fmt.Printf("   %s %c) %s\n", mark, 'a'+i, o)
	}
}

func init() {
	selectCmd.Flags().StringSliceP("topic", "t", nil, "Topic hint for generation (repeatable)")
	selectCmd.Flags().Bool("json", false, "Print the selection as JSON")
}
