package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ospolov/go-dm-client/internal/client"
	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/service"
	"github.com/ospolov/go-dm-client/internal/workers"
	"github.com/ospolov/go-dm-client/models"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "dmcli",
		Short:   "Direct-message client for the private messaging API",
		Version: fmt.Sprintf("%s (built %s, commit %s)", buildVersion, buildDate, buildCommit),
		Long: `dmcli drives an authenticated messaging session from the terminal.

The device identity is derived deterministically from the configured seed
(DM_SESSION_SEED), the session survives restarts in a local snapshot, and
fetched threads are cached in sqlite so the inbox stays readable offline.`,
		SilenceUsage: true,
	}

	registerConfigFlags(rootCmd)

	rootCmd.AddCommand(
		createLoginCmd(),
		createLogoutCmd(),
		createWhoamiCmd(),
		createInboxCmd(),
		createThreadCmd(),
		createSendCmd(),
		createWatchCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configFlagNames are the root persistent flags forwarded to the config
// layer, where they take precedence over environment variables.
var configFlagNames = []string{
	"app-id", "max-code-attempts", "base-url", "request-timeout",
	"retry-attempts", "seed", "session-file", "cache-path",
}

func registerConfigFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String("app-id", "", "application identifier")
	fs.Int("max-code-attempts", 0, "wrong one-time codes tolerated before auth fails")
	fs.String("base-url", "", "API origin")
	fs.Duration("request-timeout", 0, "outbound request timeout")
	fs.Int("retry-attempts", 0, "max retries for transient network failures")
	fs.String("seed", "", "profile seed the device identity derives from")
	fs.String("session-file", "", "session snapshot path")
	fs.String("cache-path", "", "sqlite thread cache path")
}

// configArgs collects the config flags the user actually set, in the form
// config.ParseFlags expects.
func configArgs(cmd *cobra.Command) []string {
	var args []string
	for _, name := range configFlagNames {
		f := cmd.Root().PersistentFlags().Lookup(name)
		if f != nil && f.Changed {
			args = append(args, "-"+name, f.Value.String())
		}
	}
	return args
}

// newApp assembles the application for one command invocation.
func newApp(cmd *cobra.Command) (*client.App, error) {
	return client.NewApp(cmd.Context(), logger.NewClientLogger("dmcli"), configArgs(cmd)...)
}

func createLoginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		Long: `Authenticate against the messaging API.

Two-factor prompts and security checkpoints are resolved interactively;
type "resend" at a checkpoint prompt to request a fresh code. On success the
session snapshot is written to disk and reused by every other command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if username == "" {
				username = promptLine("username: ")
			}
			password, err := promptPassword("password: ")
			if err != nil {
				return err
			}

			return runLoginFlow(ctx, app, username, password)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	return cmd
}

// runLoginFlow drives the auth state machine until it settles in a terminal
// state, prompting for one-time codes along the way.
func runLoginFlow(ctx context.Context, app *client.App, username, password string) error {
	auth := app.Services.Auth

	state, err := auth.SubmitLogin(ctx, username, password)
	for {
		if err != nil && !errors.Is(err, service.ErrCodeRejected) {
			return err
		}
		if errors.Is(err, service.ErrCodeRejected) {
			color.Yellow("code rejected, try again")
		}

		switch state {
		case service.StateAuthenticated:
			if user, uerr := app.Services.Direct.CurrentUser(ctx); uerr == nil {
				color.Green("logged in as @%s", user.Username)
			} else {
				color.Green("logged in")
			}
			return nil

		case service.StateAwaitingTwoFactor:
			if challenge, ok := auth.PendingChallenge(); ok && challenge.DeliveryHint != "" {
				fmt.Printf("a verification code was sent to %s\n", challenge.DeliveryHint)
			}
			state, err = auth.SubmitTwoFactorCode(ctx, promptLine("two-factor code: "))

		case service.StateAwaitingChallenge:
			code := promptLine("challenge code (or \"resend\"): ")
			if strings.EqualFold(code, "resend") {
				if rerr := auth.ResendCode(ctx); rerr != nil {
					color.Yellow("resend failed: %v", rerr)
				} else {
					fmt.Println("a new code is on its way")
				}
				continue
			}
			state, err = auth.SubmitChallengeCode(ctx, code)

		default:
			// StateFailed arrives together with an ErrAuthFailed error and
			// is handled above; anything else here is a bug
			return fmt.Errorf("login flow stuck in state %s", state)
		}
	}
}

func createLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and delete the local snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err = app.Services.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			color.Green("logged out")
			return nil
		},
	}
}

func createWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the current session belongs to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Services.Direct.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("@%s (id %d)\n", user.Username, user.UserID)
			return nil
		},
	}
}

func createInboxCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List direct-message threads, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			var threads []models.Thread
			if cached {
				threads, err = app.Services.Direct.CachedInbox(ctx)
			} else {
				threads, err = app.Services.Direct.ListInbox(ctx)
			}
			if err != nil {
				return err
			}

			if len(threads) == 0 {
				fmt.Println("inbox is empty")
				return nil
			}
			title := color.New(color.FgCyan, color.Bold)
			for _, thread := range threads {
				title.Printf("%s", thread.Title)
				fmt.Printf("  [%s]  %s\n", thread.ThreadID, formatMicros(thread.LastActivityAt))
				if thread.LastMessagePreview != "" {
					fmt.Printf("    %s\n", thread.LastMessagePreview)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Serve the last cached inbox without a network call")
	return cmd
}

func createThreadCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "thread <thread-id>",
		Short: "Show the messages of one thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			threadID := args[0]
			var messages []models.Message
			if cached {
				messages, err = app.Services.Direct.CachedThreadMessages(ctx, threadID)
			} else {
				messages, err = app.Services.Direct.ThreadMessages(ctx, threadID)
			}
			if err != nil {
				return err
			}

			sender := color.New(color.FgMagenta)
			for _, msg := range messages {
				sender.Printf("%d", msg.SenderUserID)
				fmt.Printf("  %s  %s\n", formatMicros(msg.TimestampMicros), renderMessage(msg))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Serve cached messages without a network call")
	return cmd
}

func createSendCmd() *cobra.Command {
	var recipient, threadID, message string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a text message",
		Long: `Send a text message.

With --to the recipient is a username, or a numeric user id to skip the
lookup round trip. With --thread the message is delivered into an
existing thread instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			var result models.SendResult
			if threadID != "" {
				result, err = app.Services.Direct.SendTextToThread(ctx, threadID, message)
			} else {
				result, err = app.Services.Direct.SendText(ctx, recipient, message)
			}
			if err != nil {
				return err
			}
			color.Green("sent (thread %s, item %s)", result.ThreadID, result.ItemID)
			return nil
		},
	}

	cmd.Flags().StringVar(&recipient, "to", "", "Recipient username or numeric user id")
	cmd.Flags().StringVar(&threadID, "thread", "", "Existing thread id to reply into")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message text")
	cmd.MarkFlagsOneRequired("to", "thread")
	cmd.MarkFlagsMutuallyExclusive("to", "thread")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func createWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the local cache in sync until interrupted",
		Long:  "Periodically refetch the inbox so the cache tracks the server state. Runs until interrupted (Ctrl+C).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Printf("watching inbox every %s, Ctrl+C to stop\n", interval)
			refresher := workers.NewInboxRefresher(app.Services.Direct, interval, app.Logger)
			workers.New(refresher).Run(ctx)

			color.Yellow("stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Refresh interval")
	return cmd
}

func promptLine(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func formatMicros(micros int64) string {
	if micros == 0 {
		return "-"
	}
	return time.UnixMicro(micros).Local().Format("2006-01-02 15:04")
}

func renderMessage(msg models.Message) string {
	switch msg.ItemType {
	case models.ItemTypeText:
		return msg.Text
	case models.ItemTypeLike:
		return "[like]"
	case models.ItemTypeMedia:
		return "[media]"
	case models.ItemTypeLink:
		if msg.Text != "" {
			return msg.Text
		}
		return "[link]"
	default:
		return "[unsupported message]"
	}
}
