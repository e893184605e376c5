package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ashureev/softsell/internal/chat"
	"github.com/ashureev/softsell/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var noDelay bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the assistant",
		Long: `Reads questions from stdin and prints the assistant's replies.

Type the number of a suggestion to pick it, /suggestions to list them
again, and /quit to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dispatcher, v, err := newDispatcher()
			if err != nil {
				return err
			}
			opts := v.SessionOptions()
			if noDelay {
				opts = append(opts, chat.WithScheduler(chat.ImmediateScheduler{}))
			}
			sess := chat.NewSession(uuid.NewString(), dispatcher, opts...)
			return runREPL(cmd.InOrStdin(), cmd.OutOrStdout(), sess)
		},
	}

	cmd.Flags().BoolVar(&noDelay, "no-delay", false, "Reply immediately instead of simulating typing")
	return cmd
}

func runREPL(in io.Reader, out io.Writer, sess *chat.Session) error {
	events, cancel := sess.Subscribe()
	defer cancel()

	state := sess.Snapshot()
	for _, m := range state.Messages {
		printMessage(out, m)
	}
	printSuggestions(out, state.Suggestions)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		var exchange uint64
		var err error
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/suggestions":
			printSuggestions(out, sess.Suggestions())
			continue
		default:
			if n, convErr := strconv.Atoi(line); convErr == nil {
				suggestions := sess.Suggestions()
				if n < 1 || n > len(suggestions) {
					fmt.Fprintf(out, "No suggestion %d.\n", n)
					continue
				}
				exchange, err = sess.SelectSuggestion(suggestions[n-1])
			} else {
				exchange, err = sess.Send(line)
			}
		}
		if err != nil {
			return err
		}

		waitForReply(out, events, exchange)
	}
}

func waitForReply(out io.Writer, events <-chan chat.Event, exchange uint64) {
	for ev := range events {
		if ev.Exchange != exchange {
			continue
		}
		switch ev.Type {
		case chat.EventComposing:
			fmt.Fprintln(out, "  assistant is typing...")
		case chat.EventSuggestions:
			printSuggestions(out, ev.Suggestions)
		case chat.EventMessage:
			if ev.Message.Role == domain.RoleAssistant {
				printMessage(out, *ev.Message)
				return
			}
		}
	}
}

func printMessage(out io.Writer, m domain.ChatMessage) {
	if m.Role == domain.RoleUser {
		return
	}
	fmt.Fprintf(out, "\nassistant: %s\n\n", m.Content)
}

func printSuggestions(out io.Writer, suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(out, "Suggested questions:")
	for i, s := range suggestions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, s)
	}
}
