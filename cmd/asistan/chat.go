package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/config"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/pending"
	grpctransport "github.com/nadzzz/asistan/internal/transport/grpc"
)

var chatAddr string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Starts a typed conversation. Without --addr the assistant runs in this
process using the configured backends; with --addr it talks to a running
daemon over gRPC.

Commands:
  /yes     confirm the pending action
  /no      reject the pending action
  /reset   start the conversation over
  /quit    leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAddr, "addr", "", "gRPC address of a running daemon (host:port)")
}

// chatBackend is what the REPL drives.
type chatBackend interface {
	Submit(ctx context.Context, text string) (*assistant.TurnResult, error)
	Confirm(ctx context.Context) (*pending.Outcome, error)
	Reject(ctx context.Context) (*pending.Outcome, error)
	Reset(ctx context.Context) ([]message.Turn, error)
	History(ctx context.Context) ([]message.Turn, error)
}

type localChat struct{ a *assistant.Assistant }

func (l localChat) Submit(ctx context.Context, text string) (*assistant.TurnResult, error) {
	res, err := l.a.HandleText(ctx, text)
	return &res, err
}

func (l localChat) Confirm(ctx context.Context) (*pending.Outcome, error) {
	out, err := l.a.Confirm(ctx)
	return &out, err
}

func (l localChat) Reject(ctx context.Context) (*pending.Outcome, error) {
	out, err := l.a.Reject(ctx)
	return &out, err
}

func (l localChat) Reset(ctx context.Context) ([]message.Turn, error) {
	return l.a.Reset(ctx), nil
}

func (l localChat) History(context.Context) ([]message.Turn, error) {
	return l.a.History(), nil
}

type remoteChat struct{ c *grpctransport.Client }

func (r remoteChat) Submit(ctx context.Context, text string) (*assistant.TurnResult, error) {
	return r.c.Submit(ctx, text)
}

func (r remoteChat) Confirm(ctx context.Context) (*pending.Outcome, error) { return r.c.Confirm(ctx) }
func (r remoteChat) Reject(ctx context.Context) (*pending.Outcome, error)  { return r.c.Reject(ctx) }

func (r remoteChat) Reset(ctx context.Context) ([]message.Turn, error) {
	h, err := r.c.Reset(ctx)
	if err != nil {
		return nil, err
	}
	return h.Turns, nil
}

func (r remoteChat) History(ctx context.Context) ([]message.Turn, error) {
	h, err := r.c.History(ctx)
	if err != nil {
		return nil, err
	}
	return h.Turns, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var backend chatBackend
	if chatAddr != "" {
		c, err := grpctransport.Dial(chatAddr)
		if err != nil {
			return err
		}
		defer c.Close()
		backend = remoteChat{c: c}
	} else {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		// Keep the terminal for the conversation.
		cfg.Logging.Level = "error"
		config.SetupLogging(cfg.Logging)

		d, err := wire(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := d.Close(); err != nil {
				slog.Error("closing components", "error", err)
			}
		}()
		backend = localChat{a: d.backend.Assistant}
	}

	return repl(ctx, backend, cmd.InOrStdin(), cmd.OutOrStdout())
}

func printTurns(w io.Writer, turns []message.Turn) {
	for _, t := range turns {
		if t.Role == message.RoleUser {
			continue
		}
		fmt.Fprintf(w, "asistan> %s\n", t.Content)
	}
}

// repl reads lines from in until EOF or /quit.
func repl(ctx context.Context, b chatBackend, in io.Reader, out io.Writer) error {
	history, err := b.History(ctx)
	if err != nil {
		return err
	}
	printTurns(out, history)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			return nil
		case "/yes":
			o, err := b.Confirm(ctx)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			printTurns(out, []message.Turn{o.Turn})
		case "/no":
			o, err := b.Reject(ctx)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			printTurns(out, []message.Turn{o.Turn})
		case "/reset":
			turns, err := b.Reset(ctx)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			printTurns(out, turns)
		default:
			res, err := b.Submit(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			printTurns(out, res.Appended)
			if res.Pending != nil {
				fmt.Fprintf(out, "asistan> %s (/yes, /no)\n", res.Pending.Prompt)
			}
		}
	}
}
