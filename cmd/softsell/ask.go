package main

import (
	"fmt"
	"strings"

	"github.com/ashureev/softsell/internal/chat"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var asSuggestion bool
	var showTopic bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a single question",
		Long: `Prints the assistant's reply to one question and exits.

Examples:
  softsell ask "What types of licenses do you buy?"
  softsell ask --suggestion "How long does the process take?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatcher, _, err := newDispatcher()
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			var reply chat.Reply
			var suggestions []string
			if asSuggestion {
				reply, suggestions = dispatcher.RespondToSuggestion(question)
			} else {
				reply, suggestions = dispatcher.ClassifyAndRespond(question)
			}

			out := cmd.OutOrStdout()
			if showTopic {
				fmt.Fprintf(out, "[%s]\n", reply.Topic)
			}
			fmt.Fprintln(out, reply.Text)
			if len(suggestions) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "You might ask:")
				for _, s := range suggestions {
					fmt.Fprintf(out, "  - %s\n", s)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asSuggestion, "suggestion", false, "Treat the question as a clicked suggestion")
	cmd.Flags().BoolVar(&showTopic, "topic", false, "Print the matched topic before the reply")
	return cmd
}
