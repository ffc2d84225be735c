// Package gate decides whether the real-time bridge should be active at all
// for a given identity and route.
package gate

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// CapabilityChatNotifications entitles an identity to the real-time chat
// notification feed.
const CapabilityChatNotifications = "chat:notifications"

// CapabilityStore answers entitlement lookups.
type CapabilityStore interface {
	Has(ctx context.Context, identity, capability string) (bool, error)
}

type Gate struct {
	caps CapabilityStore

	// Routes under this prefix host the live-chat view itself, which owns its
	// own in-page connection; activating the bridge there would double up.
	excludedRoute string
}

func New(caps CapabilityStore, excludedRoute string) *Gate {
	return &Gate{caps: caps, excludedRoute: excludedRoute}
}

// Allow reports whether the bridge may activate for this identity on this
// route. Lookup failures deny: a gate that cannot verify entitlement must
// not open a connection.
func (g *Gate) Allow(ctx context.Context, identity, route string) bool {
	if g.excludedRoute != "" && strings.HasPrefix(route, g.excludedRoute) {
		log.Debug().Str("route", route).Msg("gate: route excluded")
		return false
	}

	ok, err := g.caps.Has(ctx, identity, CapabilityChatNotifications)
	if err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("gate: capability lookup failed, denying")
		return false
	}
	if !ok {
		log.Debug().Str("identity", identity).Msg("gate: capability not granted")
	}
	return ok
}
