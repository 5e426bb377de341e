package arbitrage

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/types"
)

// ErrInvalidRoute is returned when a route cannot be built from the configuration
var ErrInvalidRoute = errors.New("invalid route")

// Selector picks the next route to evaluate. Curated routes are walked in
// order and wrap around; without them a route is sampled from the routers,
// base assets and tokens. A Selector is not safe for concurrent use.
type Selector struct {
	routes     [][]string
	routers    []string
	baseAssets []string
	tokens     []string
	cursor     int
	rng        *rand.Rand
}

// NewSelector creates a selector over cfg. rng drives random sampling.
func NewSelector(cfg *config.Config, rng *rand.Rand) *Selector {
	s := &Selector{
		routes: cfg.Routes,
		rng:    rng,
	}
	for _, r := range cfg.Routers {
		s.routers = append(s.routers, r.Address)
	}
	for _, a := range cfg.BaseAssets {
		s.baseAssets = append(s.baseAssets, a.Address)
	}
	for _, a := range cfg.Tokens {
		s.tokens = append(s.tokens, a.Address)
	}
	return s
}

// Next returns the next route
func (s *Selector) Next() (types.Route, error) {
	if len(s.routes) > 0 {
		return s.nextCurated()
	}
	return s.nextRandom()
}

func (s *Selector) nextCurated() (types.Route, error) {
	entry := s.routes[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.routes)

	if len(entry) < 4 {
		return types.Route{}, fmt.Errorf("%w: route %v has %d elements", ErrInvalidRoute, entry, len(entry))
	}
	return buildRoute(entry[0], entry[1], entry[2], entry[3])
}

func (s *Selector) nextRandom() (types.Route, error) {
	switch {
	case len(s.routers) == 0:
		return types.Route{}, fmt.Errorf("%w: no routers", ErrInvalidRoute)
	case len(s.baseAssets) == 0:
		return types.Route{}, fmt.Errorf("%w: no base assets", ErrInvalidRoute)
	case len(s.tokens) == 0:
		return types.Route{}, fmt.Errorf("%w: no tokens", ErrInvalidRoute)
	}

	return buildRoute(
		s.routers[s.rng.Intn(len(s.routers))],
		s.routers[s.rng.Intn(len(s.routers))],
		s.baseAssets[s.rng.Intn(len(s.baseAssets))],
		s.tokens[s.rng.Intn(len(s.tokens))],
	)
}

func buildRoute(router1, router2, token1, token2 string) (types.Route, error) {
	for _, addr := range []string{router1, router2, token1, token2} {
		if !common.IsHexAddress(addr) {
			return types.Route{}, fmt.Errorf("%w: %q is not an address", ErrInvalidRoute, addr)
		}
	}
	return types.Route{
		Router1: common.HexToAddress(router1),
		Router2: common.HexToAddress(router2),
		Token1:  common.HexToAddress(token1),
		Token2:  common.HexToAddress(token2),
	}, nil
}
