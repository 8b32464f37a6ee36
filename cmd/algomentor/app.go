package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/algomentor/internal/cache"
	"github.com/jonathan/algomentor/internal/config"
	"github.com/jonathan/algomentor/internal/dashboard"
	"github.com/jonathan/algomentor/internal/feedback"
	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/llm"
	"github.com/jonathan/algomentor/internal/platform/codechef"
	"github.com/jonathan/algomentor/internal/platform/codeforces"
	"github.com/jonathan/algomentor/internal/platform/leetcode"
	"github.com/jonathan/algomentor/internal/recommend"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/jonathan/algomentor/internal/unify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the platform stack shared by every command.
type app struct {
	cfg       *config.Config
	tax       *taxonomy.Taxonomy
	store     cache.Store
	dashboard *dashboard.Service
	llm       llm.Client
	closers   []func()
}

type appOptions struct {
	// withLLM connects the text-generation client; it requires GEMINI_API_KEY.
	withLLM bool
	// store is used for feedback persistence; nil generates on every call.
	store dashboard.FeedbackStore
}

// newApp wires the fetch client, cache, platform clients, unifier,
// recommender and dashboard from cfg.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	tax := taxonomy.Default()
	if cfg.TaxonomyFile != "" {
		loaded, err := taxonomy.Load(cfg.TaxonomyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load taxonomy: %w", err)
		}
		tax = loaded
	}
	a.tax = tax

	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			return nil, err
		}
		a.store = redisStore
		a.closers = append(a.closers, func() { _ = redisStore.Close() })
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
	} else {
		mem := cache.NewMemoryStore()
		janitorCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
		go mem.Janitor(janitorCtx, cache.DefaultSweepInterval)
		a.store = mem
		a.closers = append(a.closers, stop)
		log.Debug().Msg("using in-process cache")
	}

	opt := fetch.DefaultOptions()
	opt.Timeout = cfg.HTTPTimeout.Std()
	getter := fetch.NewCachedClient(fetch.NewClient(opt), a.store, 0)

	lc := leetcode.New(getter, leetcode.Endpoints{
		API:     cfg.NodeAPIURL,
		Profile: cfg.LeetCodeProfileAPIURL,
		Compete: cfg.CompeteAPIURL,
	}, tax)
	cf := codeforces.New(getter, cfg.CodeforcesAPIURL, tax)
	cc := codechef.New(getter, cfg.CompeteAPIURL)

	deps := dashboard.Deps{
		LeetCode:    lc,
		Codeforces:  cf,
		CodeChef:    cc,
		Unifier:     unify.New(lc, cf, tax),
		Recommender: recommend.NewEngine(lc, cf, cc, tax),
		Cache:       cache.NewLoader(a.store, cfg.CacheTTL.Std()),
		Taxonomy:    tax,
		Store:       opts.store,
	}

	if opts.withLLM {
		if cfg.GeminiAPIKey == "" {
			a.Close()
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		llmCfg, err := llm.DefaultConfig().ApplyEnv(os.LookupEnv)
		if err != nil {
			a.Close()
			return nil, err
		}
		client, err := llm.NewClient(ctx, llmCfg, cfg.GeminiAPIKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.llm = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		deps.Feedback = feedback.NewGenerator(client)
	}

	a.dashboard = dashboard.New(deps)
	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// handleFlags are the per-command platform handle flags.
type handleFlags struct {
	leetcode   string
	codeforces string
	codechef   string
}

func (h *handleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&h.leetcode, "leetcode", "", "LeetCode username")
	cmd.Flags().StringVar(&h.codeforces, "codeforces", "", "Codeforces handle")
	cmd.Flags().StringVar(&h.codechef, "codechef", "", "CodeChef username")
}

// user builds an anonymous dashboard user, requiring at least one handle.
// The ID is derived from the handles so cached data is never shared
// between different handle sets.
func (h *handleFlags) user() (dashboard.User, error) {
	handles := types.Handles{
		LeetCode:   h.leetcode,
		Codeforces: h.codeforces,
		CodeChef:   h.codechef,
	}.Trimmed()
	if !handles.Any() {
		return dashboard.User{}, fmt.Errorf("at least one of --leetcode, --codeforces or --codechef is required")
	}
	key := strings.Join([]string{handles.LeetCode, handles.Codeforces, handles.CodeChef}, "|")
	return dashboard.User{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("algomentor-cli:"+key)), Handles: handles}, nil
}

// splitCSV splits a comma-separated flag value, dropping blanks.
func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
