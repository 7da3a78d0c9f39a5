// Package ws streams live audit activity to authorized browsers.
package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/server/middleware"
	redisstore "github.com/gosuda/hrm/internal/store/redis"
)

// Subscriber is satisfied by *redisstore.PubSub.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub         Subscriber
	originPatterns []string
}

// NewHub creates a hub. originPatterns are host patterns allowed to open
// cross-origin sockets; same-origin is always accepted.
func NewHub(pubsub Subscriber, originPatterns []string) *Hub {
	return &Hub{pubsub: pubsub, originPatterns: originPatterns}
}

// ActivityChannelFor returns the channel p may watch: every company for the
// global role, otherwise only p's own company.
func ActivityChannelFor(p *domain.Principal) (string, bool) {
	if auth.IsGlobal(p) {
		return redisstore.GlobalActivityChannel(), true
	}
	if p.CompanyID == nil {
		return "", false
	}
	return redisstore.ActivityChannel(*p.CompanyID), true
}

// ServeActivity forwards audit entries as JSON text frames until either side
// goes away.
func (h *Hub) ServeActivity(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if err := auth.Authorize(p, auth.WatchActivity); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}
	channel, ok := ActivityChannelFor(p)
	if !ok {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients never send; CloseRead handles control frames and cancels ctx
	// once the peer closes.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	log.Debug().Int64("user_id", p.UserID).Str("channel", channel).Msg("activity stream opened")

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
