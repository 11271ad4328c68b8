// Command aguidemo drives a toy AG-UI transport through the aguicore
// runtime, for exercising the pipeline end to end without a real remote
// agent on the other end.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kadirpekel/agui-go/pkg/aguicore"
	"github.com/kadirpekel/agui-go/pkg/logger"
)

var (
	message  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "aguidemo",
	Short: "aguidemo — exercise the AG-UI client runtime against a toy transport",
	Long:  "aguidemo drives aguicore.Agent against an in-process echo transport: one-shot with --message, or an interactive REPL otherwise.",
	Run: func(cmd *cobra.Command, args []string) {
		runDemo()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&message, "message", "m", "", "send a single message and exit (omit for interactive mode)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

func loadEnvFiles() {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			slog.Warn("aguidemo: failed to load env file", "file", f, "error", err)
		}
	}
}

func main() {
	loadEnvFiles()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDemo() {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger.Init(level, os.Stderr, "simple")
	log := logger.GetLogger()

	a, err := aguicore.NewAgent(aguicore.AgentConfig{
		Transport: echoTransport{},
		Logger:    log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "aguidemo: %v\n", err)
		os.Exit(1)
	}

	a.Subscribe(aguicore.Subscriber{
		OnNewMessage: func(ctx context.Context, msg aguicore.Message) {
			if msg.Role != aguicore.RoleAssistant {
				return
			}
			if text, ok := msg.Content.Text(); ok {
				fmt.Printf("agent: %s\n", text)
			}
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if message != "" {
		send(ctx, a, message)
		return
	}

	fmt.Fprintln(os.Stderr, "aguidemo interactive mode — type a message, Ctrl+C to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "you: ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		send(ctx, a, line)
	}
}

func send(ctx context.Context, a *aguicore.Agent, text string) {
	_, err := a.RunAgent(ctx, aguicore.RunOptions{
		Messages: []aguicore.Message{
			{ID: uuid.NewString(), Role: aguicore.RoleUser, Content: aguicore.TextContent(text)},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "aguidemo: run failed: %v\n", err)
	}
}
