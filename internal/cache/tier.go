package cache

import (
	"time"

	"marquee/internal/config"
)

// Tier names a TTL policy class. Tiers reflect how quickly each query class
// goes stale: list rankings churn hourly, details barely move within a day,
// and the genre dictionary is near-static.
type Tier string

const (
	TierTrending  Tier = "trending"
	TierPopular   Tier = "popular"
	TierSearch    Tier = "search"
	TierGenre     Tier = "genre"
	TierGenreList Tier = "genre_list"
	TierDetail    Tier = "detail"
)

// Policy maps tiers to entry lifetimes and carries the negative-entry TTL.
type Policy struct {
	ttls     map[Tier]time.Duration
	negative time.Duration
}

// PolicyFromConfig builds the tier policy table from configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	ttl := cfg.Cache.TTL
	return Policy{
		ttls: map[Tier]time.Duration{
			TierTrending:  time.Duration(ttl.Trending) * time.Second,
			TierPopular:   time.Duration(ttl.Popular) * time.Second,
			TierSearch:    time.Duration(ttl.Search) * time.Second,
			TierGenre:     time.Duration(ttl.Genre) * time.Second,
			TierGenreList: time.Duration(ttl.GenreList) * time.Second,
			TierDetail:    time.Duration(ttl.Detail) * time.Second,
		},
		negative: time.Duration(ttl.Negative) * time.Second,
	}
}

// TTL returns the entry lifetime for a tier and whether the tier is known.
func (p Policy) TTL(tier Tier) (time.Duration, bool) {
	ttl, ok := p.ttls[tier]
	return ttl, ok
}

// Negative returns the lifetime applied to not-found entries.
func (p Policy) Negative() time.Duration {
	return p.negative
}
