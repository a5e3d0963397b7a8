// Command copilotconsole is a terminal stand-in for the in-car client. It
// holds a co-pilot session open, answers OBD polls with simulated telemetry,
// and sends typed lines as transcripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/copilot"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	url      string
	persona  string
	language string
	seed     uint64
	timeout  time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional: lets COPILOT_WS_URL live next to the server's settings.
	_ = godotenv.Load()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "copilotconsole",
		Short: "Interactive console for a VeloVoice co-pilot session",
		Long: `copilotconsole connects to the co-pilot WebSocket like the in-car client
would. Typed lines are sent as transcripts, OBD polls are answered with
simulated telemetry, and every server message lands in the timeline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.url, "url", defaultURL(), "Co-pilot WebSocket URL (env COPILOT_WS_URL)")
	cmd.PersistentFlags().StringVar(&opts.persona, "persona", persona.Default, "Persona to sync on connect")
	cmd.PersistentFlags().StringVar(&opts.language, "language", "en-US", "Response locale")
	cmd.PersistentFlags().Uint64Var(&opts.seed, "seed", uint64(time.Now().UnixNano()), "Telemetry simulator seed")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Dial and reply timeout")

	cmd.AddCommand(sayCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "copilotconsole version %s (build: %s)\n", Version, BuildTime)
		},
	})

	return cmd
}

func defaultURL() string {
	if url := strings.TrimSpace(os.Getenv("COPILOT_WS_URL")); url != "" {
		return url
	}
	return "ws://localhost:3001/ws"
}

func sayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "say [words...]",
		Short: "Send one transcript and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			reply, err := say(ctx, opts, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			if actions := renderActions(reply.Actions); actions != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "actions:", actions)
			}
			return nil
		},
	}
}

func runInteractive(ctx context.Context, opts *options) error {
	dialCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	sim := newSimulator(opts.seed)
	c, err := dialCopilot(dialCtx, opts.url, sim)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.syncPersona(opts.persona, opts.language); err != nil {
		return fmt.Errorf("sync persona: %w", err)
	}

	inbound := make(chan tea.Msg, 64)
	go c.readLoop(inbound)

	p := tea.NewProgram(newModel(c, sim, inbound, opts.persona, opts.language), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

// say sends one transcript and waits for the first ai_response. OBD polls
// that arrive meanwhile are still answered.
func say(ctx context.Context, opts *options, text string) (frame, error) {
	c, err := dialCopilot(ctx, opts.url, newSimulator(opts.seed))
	if err != nil {
		return frame{}, err
	}
	defer c.close()

	if err := c.transcript(text, opts.persona, opts.language); err != nil {
		return frame{}, fmt.Errorf("send transcript: %w", err)
	}

	inbound := make(chan tea.Msg, 16)
	go c.readLoop(inbound)

	for {
		select {
		case <-ctx.Done():
			return frame{}, fmt.Errorf("waiting for reply: %w", ctx.Err())
		case msg, ok := <-inbound:
			if !ok {
				return frame{}, errors.New("connection closed before reply")
			}
			switch msg := msg.(type) {
			case frameMsg:
				if msg.Type == copilot.TypeAIResponse {
					return frame(msg), nil
				}
			case disconnectedMsg:
				return frame{}, fmt.Errorf("connection lost: %w", msg.err)
			}
		}
	}
}
