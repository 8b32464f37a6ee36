package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/algomentor/internal/observability"
	"github.com/jonathan/algomentor/internal/recommend"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/spf13/cobra"
)

var (
	profileHandles handleFlags
	profileJSON    bool

	tagsHandles handleFlags
	tagsJSON    bool

	recHandles    handleFlags
	recJSON       bool
	recTags       string
	recDifficulty string
	recMinRating  int
	recMaxRating  int
	recLimit      int
	recPlatforms  string
	recContests   bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show per-platform statistics for a set of handles",
	RunE:  runProfile,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show the unified tag distribution for a set of handles",
	Long:  "Fetch solved problems from LeetCode and Codeforces and merge them into one canonical tag distribution, weakest first.",
	RunE:  runTags,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend practice problems and upcoming contests",
	Long: "Recommend problems from every connected platform. Without --tags the weakest tags of the handles' " +
		"distribution are used.",
	RunE: runRecommend,
}

func init() {
	profileHandles.register(profileCmd)
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "Print JSON instead of a summary")

	tagsHandles.register(tagsCmd)
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "Print JSON instead of a table")

	recHandles.register(recommendCmd)
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "Print JSON instead of a summary")
	recommendCmd.Flags().StringVar(&recTags, "tags", "", "Comma-separated canonical tags (default: weakest tags)")
	recommendCmd.Flags().StringVar(&recDifficulty, "difficulty", "", "easy, medium or hard")
	recommendCmd.Flags().IntVar(&recMinRating, "min-rating", 0, "Minimum Codeforces rating")
	recommendCmd.Flags().IntVar(&recMaxRating, "max-rating", 0, "Maximum Codeforces rating")
	recommendCmd.Flags().IntVar(&recLimit, "limit", 15, "Problems per platform")
	recommendCmd.Flags().StringVar(&recPlatforms, "platforms", "", "Comma-separated platforms (default: all)")
	recommendCmd.Flags().BoolVar(&recContests, "contests", true, "Include upcoming contests")

	rootCmd.AddCommand(profileCmd, tagsCmd, recommendCmd)
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	user, err := profileHandles.user()
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
	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	profiles, err := a.dashboard.Profiles(ctx, user)
	if err != nil {
		return err
	}
	if profileJSON {
		return writeJSONTo(os.Stdout, profiles)
	}
	observability.NewPrinter(os.Stdout).PrintProfiles(profiles)
	return nil
}

func runTags(cmd *cobra.Command, _ []string) error {
	user, err := tagsHandles.user()
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
	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	dist, err := a.dashboard.Tags(ctx, user)
	if err != nil {
		return err
	}
	if tagsJSON {
		return writeJSONTo(os.Stdout, dist)
	}
	observability.NewPrinter(os.Stdout).PrintTags(dist, a.tax.CanonicalOrder())
	return nil
}

// recommendRequest builds a recommend.Request from the recommend flags.
// Zero rating bounds mean unbounded.
func recommendRequest(cmd *cobra.Command) (recommend.Request, error) {
	if recLimit < 1 {
		return recommend.Request{}, fmt.Errorf("--limit must be positive")
	}
	req := recommend.Request{
		Tags:             splitCSV(recTags),
		LimitPerPlatform: recLimit,
		IncludeContests:  recContests,
		Platforms:        types.AllPlatforms,
	}
	if recDifficulty != "" {
		req.Difficulty = types.ParseDifficulty(recDifficulty)
		if req.Difficulty == types.DifficultyUnknown {
			return req, fmt.Errorf("--difficulty must be easy, medium or hard")
		}
	}
	if cmd.Flags().Changed("min-rating") {
		v := recMinRating
		req.MinRating = &v
	}
	if cmd.Flags().Changed("max-rating") {
		v := recMaxRating
		req.MaxRating = &v
	}
	if req.MinRating != nil && req.MaxRating != nil && *req.MinRating > *req.MaxRating {
		return req, fmt.Errorf("--min-rating must not exceed --max-rating")
	}
	if names := splitCSV(recPlatforms); len(names) > 0 {
		req.Platforms = nil
		for _, name := range names {
			p, err := types.ParsePlatform(name)
			if err != nil {
				return req, err
			}
			req.Platforms = append(req.Platforms, p)
		}
	}
	return req, nil
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	user, err := recHandles.user()
	if err != nil {
		return err
	}
	req, err := recommendRequest(cmd)
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
	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.dashboard.RecommendationsFor(ctx, user, req)
	if err != nil {
		return err
	}
	if recJSON {
		return writeJSONTo(os.Stdout, page)
	}
	observability.NewPrinter(os.Stdout).PrintRecommendations(page)
	return nil
}
