package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/unirag/campus-rag/assistant"
	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/tui"
)

var chatLogFile string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Log lines would tear the alternate screen.
		var sink io.Writer = io.Discard
		if chatLogFile != "" {
			f, err := os.OpenFile(chatLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			sink = f
		}
		logger.SetOutput(sink)
		defer logger.SetOutput(os.Stderr)

		ctx := cmd.Context()
		store, closer, err := assistant.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		a, err := assistant.New(cfg, assistant.Deps{Store: store})
		if err != nil {
			return err
		}
		_, err = tea.NewProgram(tui.New(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "write logs to this file while the chat is open")
	rootCmd.AddCommand(chatCmd)
}
