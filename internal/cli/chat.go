package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/saferstep/internal/model"
	"github.com/ppiankov/saferstep/internal/session"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Chat opens one conversation with the assistant on the terminal.

Type a message and press Enter. Type "exit" or press Ctrl-D to leave.
An SOS raised during the conversation is delivered before the command
exits.

Example:
  saferstep chat
  saferstep chat --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	a.checkRemote()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return chatLoop(ctx, a.sessionOptions(), cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatLoop runs one session over a line-oriented reader and writer.
func chatLoop(ctx context.Context, opts session.Options, in io.Reader, out io.Writer) error {
	opts.OnResponseReady = func(r model.Response) {
		printResponse(out, r)
	}

	s, err := session.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if trimmed := strings.TrimSpace(line); trimmed == "exit" || trimmed == "quit" {
			break
		}

		if _, err := s.Submit(ctx, line); err != nil {
			switch {
			case errors.Is(err, model.ErrEmptyInput):
				continue
			case errors.Is(err, model.ErrUtteranceTooLong):
				fmt.Fprintf(out, "Message too long, please shorten it.\n")
				continue
			default:
				return err
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	fmt.Fprintln(out)
	return scanner.Err()
}

// printResponse renders a reply with a category label for non-normal tags.
func printResponse(out io.Writer, r model.Response) {
	if r.Category != model.CategoryNormal {
		fmt.Fprintf(out, "[%s] %s\n\n", r.Category, r.Content)
		return
	}
	fmt.Fprintf(out, "%s\n\n", r.Content)
}
