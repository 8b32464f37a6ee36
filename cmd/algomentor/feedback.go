package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/algomentor/internal/feedback"
	"github.com/jonathan/algomentor/internal/observability"
	"github.com/jonathan/algomentor/internal/schemas"
	"github.com/spf13/cobra"
)

var (
	feedbackHandles handleFlags
	feedbackJSON    bool
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Generate a coaching report for a set of handles",
	Long:  "Collect profiles, tags and recent failed submissions, then ask the model for a structured daily report. Requires GEMINI_API_KEY.",
	RunE:  runFeedback,
}

var validateFeedbackCmd = &cobra.Command{
	Use:   "validate-feedback <file>",
	Short: "Validate a daily feedback JSON document against the report schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateFeedback,
}

func init() {
	feedbackHandles.register(feedbackCmd)
	feedbackCmd.Flags().BoolVar(&feedbackJSON, "json", false, "Print JSON instead of a summary")

	rootCmd.AddCommand(feedbackCmd, validateFeedbackCmd)
}

func runFeedback(cmd *cobra.Command, _ []string) error {
	user, err := feedbackHandles.user()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, appOptions{withLLM: true})
	if err != nil {
		return err
	}
	defer a.Close()

	fb, err := a.dashboard.DailyFeedback(ctx, user)
	if err != nil {
		if feedback.IsRateLimited(err) {
			return errors.New(feedback.RateLimitedMessage)
		}
		return err
	}
	if feedbackJSON {
		return writeJSONTo(os.Stdout, fb)
	}
	observability.NewPrinter(os.Stdout).PrintFeedback(fb)
	return nil
}

func runValidateFeedback(cmd *cobra.Command, args []string) error {
	if err := schemas.ValidateDailyFeedbackFile(args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
	return nil
}
