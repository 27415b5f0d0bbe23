package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"seo-assistant/cmd/seochat/controller"
	"seo-assistant/cmd/seochat/transform"
	"seo-assistant/cmd/seochat/ui"
	"seo-assistant/dto"
	"seo-assistant/models"
)

var askSessionID string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ctrl.FetchSessions(cmd.Context()); err != nil {
			return err
		}
		printSessions(cmd.OutOrStdout(), a.ctrl.Snapshot().Sessions)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [--session ID] TEXT",
	Short: "Send one prompt and print the suggestion",
	Long: `Sends TEXT as the first message of a new session, or to an existing session
with --session, waits for the generation job and prints the suggestion.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var task *controller.JobTask
		if askSessionID != "" {
			if err := a.ctrl.SelectSession(ctx, askSessionID); err != nil {
				return err
			}
			if _, task, err = a.ctrl.ContinueSession(ctx, args[0]); err != nil {
				return err
			}
		} else {
			var resp dto.AsyncSessionStartResponse
			if resp, task, err = a.ctrl.CreateSession(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "session %s (%s)\n", resp.SessionID, resp.SessionTitle)
		}

		if task == nil {
			return fmt.Errorf("no job was started")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "waiting for job %s…\n", task.JobID)
		status, err := task.Wait(ctx)
		if err != nil {
			return err
		}
		if status.AgentMessage == nil {
			return fmt.Errorf("job %s completed without a suggestion", task.JobID)
		}

		msg := transform.AgentMessage(*status.AgentMessage)
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMarkdown(ui.NewRenderer(80), ui.SuggestionMarkdown(msg.Suggestion)))
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename ID TITLE",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ctrl.UpdateSession(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "renamed %s\n", args[0])
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ctrl.DeleteSession(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "", "continue this session instead of starting a new one")
}

func printSessions(w io.Writer, sessions []models.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "no sessions")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "LAST MESSAGE")
	for _, s := range sessions {
		last := "-"
		if !s.LastMessageAt.IsZero() {
			last = s.LastMessageAt.Local().Format(time.DateTime)
		}
		t.Row(s.ID, s.Title, last)
	}
	fmt.Fprintln(w, t.Render())
}
