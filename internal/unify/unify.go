// Package unify folds per-platform tag statistics into one distribution over
// the canonical tags.
package unify

import (
	"context"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/platform/codeforces"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/rs/zerolog/log"
)

// LeetCodeSource provides canonical LeetCode solve counts.
type LeetCodeSource interface {
	TagDistribution(ctx context.Context, username string) fetch.Outcome[types.TagDistribution]
}

// CodeforcesSource provides native Codeforces tag counts.
type CodeforcesSource interface {
	TagCounts(ctx context.Context, handle string) fetch.Outcome[codeforces.SolvedTags]
}

// Status records what one platform contributed to a distribution.
type Status string

// Platform statuses.
const (
	StatusSkipped     Status = "skipped"
	StatusContributed Status = "contributed"
	StatusUnavailable Status = "unavailable"
	StatusUnsupported Status = "unsupported"
)

// Coverage maps each platform to its Status for one Unify call.
type Coverage map[types.Platform]Status

// Degraded reports whether any connected platform was unavailable.
func (c Coverage) Degraded() bool {
	for _, s := range c {
		if s == StatusUnavailable {
			return true
		}
	}
	return false
}

// Unifier builds unified tag distributions.
type Unifier struct {
	leetcode   LeetCodeSource
	codeforces CodeforcesSource
	tax        *taxonomy.Taxonomy
}

// New creates a Unifier. A nil taxonomy uses taxonomy.Default().
func New(lc LeetCodeSource, cf CodeforcesSource, tax *taxonomy.Taxonomy) *Unifier {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Unifier{leetcode: lc, codeforces: cf, tax: tax}
}

// Unify sums the canonical solve counts of every connected platform. An
// unavailable platform contributes nothing and is reported in the Coverage;
// it never fails the call. Zero entries are stripped.
func (u *Unifier) Unify(ctx context.Context, h types.Handles) (types.TagDistribution, Coverage) {
	totals := make(map[string]int, len(u.tax.Canonical()))
	for _, tag := range u.tax.Canonical() {
		totals[tag] = 0
	}
	coverage := Coverage{
		types.PlatformLeetCode:   StatusSkipped,
		types.PlatformCodeforces: StatusSkipped,
		types.PlatformCodeChef:   StatusSkipped,
	}

	if h.LeetCode != "" {
		lc := u.leetcode.TagDistribution(ctx, h.LeetCode)
		coverage[types.PlatformLeetCode] = statusOf(lc.Err)
		// Unavailable counts as an empty contribution.
		AddInto(totals, lc.OrZero(), u.tax)
	}

	if h.Codeforces != "" {
		cf := u.codeforces.TagCounts(ctx, h.Codeforces)
		coverage[types.PlatformCodeforces] = statusOf(cf.Err)
		AddInto(totals, FromCodeforces(cf.OrZero().Counts, u.tax), u.tax)
	}

	if h.CodeChef != "" {
		coverage[types.PlatformCodeChef] = StatusUnsupported
	}

	if coverage.Degraded() {
		log.Warn().Interface("coverage", coverage).Msg("tag distribution built from partial data")
	}
	return Strip(totals), coverage
}

// FromCodeforces translates native Codeforces tag counts onto canonical tags.
// Unknown and null-mapped tags are dropped.
func FromCodeforces(native map[string]int, tax *taxonomy.Taxonomy) types.TagDistribution {
	out := make(types.TagDistribution)
	for tag, n := range native {
		if canonical, ok := tax.FromCodeforces(tag); ok && n > 0 {
			out[canonical] += n
		}
	}
	return out
}

// AddInto adds the canonical entries of dist into totals.
func AddInto(totals map[string]int, dist types.TagDistribution, tax *taxonomy.Taxonomy) {
	for tag, n := range dist {
		if tax.IsCanonical(tag) && n > 0 {
			totals[tag] += n
		}
	}
}

// Strip drops non-positive entries.
func Strip(totals map[string]int) types.TagDistribution {
	out := make(types.TagDistribution, len(totals))
	for tag, n := range totals {
		if n > 0 {
			out[tag] = n
		}
	}
	return out
}

func statusOf(err error) Status {
	if err != nil {
		return StatusUnavailable
	}
	return StatusContributed
}
