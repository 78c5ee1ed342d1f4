package attribution

import (
	"context"
	"errors"
	"regexp"

	"log/slog"

	"github.com/resolvewatch/api/internal/repository"
)

// Kind classifies which sort of blocklist caused a block.
type Kind string

const (
	// KindUnknown means no blocklist entry could be matched. Blocked
	// queries without attribution are usually IP literals or malformed
	// lookups rather than a data gap.
	KindUnknown Kind = "unknown"
	// KindNoTrack is the curated list shipped with the resolver.
	KindNoTrack Kind = "notrack"
	// KindCustom is the user's own blacklist.
	KindCustom Kind = "custom"
	// KindList is any third-party blocklist source.
	KindList Kind = "list"
)

const (
	sourceNoTrack = "bl_notrack"
	sourceCustom  = "custom"
)

// Attribution is the resolved cause of a blocked query.
type Attribution struct {
	Kind        Kind   `json:"kind"`
	Source      string `json:"source,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Unattributed reports whether no blocklist entry matched.
func (a Attribution) Unattributed() bool { return a.Kind == KindUnknown }

// registrableTail captures the trailing label.label pair of a name.
var registrableTail = regexp.MustCompile(`([\w-]+)\.([\w-]+)$`)

// Service resolves block attributions against the blocklist index.
type Service struct {
	blocklist repository.BlocklistRepository
	logger    *slog.Logger
}

// New returns an attribution service.
func New(blocklist repository.BlocklistRepository, logger *slog.Logger) Service {
	return Service{blocklist: blocklist, logger: logger}
}

// matcher is one lookup strategy. It returns the matched source tag or
// repository.ErrNotFound.
type matcher func(ctx context.Context) (string, error)

// Attribute resolves which blocklist caused the given requested name to be
// blocked. Strategies run in order and the first hit wins: exact site
// match, then a suffix match on the trailing label.label pair, then a bare
// ".tld" entry. Names without two dot-separated labels are Unknown.
func (s Service) Attribute(ctx context.Context, requestedName string) (Attribution, error) {
	for _, match := range s.matchers(requestedName) {
		source, err := match(ctx)
		if err == nil {
			return s.classify(source), nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return Attribution{}, err
		}
	}
	return Attribution{Kind: KindUnknown}, nil
}

func (s Service) matchers(requestedName string) []matcher {
	chain := []matcher{
		func(ctx context.Context) (string, error) {
			return s.blocklist.SourceForSite(ctx, requestedName)
		},
	}
	groups := registrableTail.FindStringSubmatch(requestedName)
	if groups == nil {
		return chain
	}
	registrable := groups[1] + "." + groups[2]
	tld := "." + groups[2]
	chain = append(chain,
		func(ctx context.Context) (string, error) {
			return s.blocklist.SourceForSuffix(ctx, registrable)
		},
		func(ctx context.Context) (string, error) {
			return s.blocklist.SourceForSite(ctx, tld)
		},
	)
	return chain
}

func (s Service) classify(source string) Attribution {
	switch source {
	case sourceNoTrack:
		return Attribution{Kind: KindNoTrack, Source: source, DisplayName: "NoTrack list"}
	case sourceCustom:
		return Attribution{Kind: KindCustom, Source: source, DisplayName: "Black list"}
	default:
		return Attribution{Kind: KindList, Source: source, DisplayName: DisplayName(source)}
	}
}
