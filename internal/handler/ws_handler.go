package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/middleware"
	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/notify"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/Eursukkul/quickfix-service/pkg/auth"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	replayLimit    = 500

	msgJoinRoom       = "join_room"
	msgTrackingUpdate = "tracking_update"

	eventJoined = "joined"
	eventError  = "error"
)

// clientMessage is any frame a client sends; Type selects which fields apply.
type clientMessage struct {
	Type             string  `json:"type"`
	UserID           uint    `json:"user_id"`
	BookingID        uint    `json:"booking_id"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	StatusMessage    string  `json:"status_message"`
	EstimatedArrival string  `json:"estimated_arrival"`
}

type locationUpdate struct {
	BookingID        uint    `json:"booking_id"`
	ProviderID       uint    `json:"provider_id"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	StatusMessage    string  `json:"status_message,omitempty"`
	EstimatedArrival string  `json:"estimated_arrival,omitempty"`
}

type WSHandler struct {
	hub      *notify.Hub
	bus      notify.Bus
	bookings service.BookingService
	tokens   *auth.TokenManager
	upgrader websocket.Upgrader
	logger   *zap.Logger
	base     context.Context
}

// NewWSHandler serves notification sockets. Sessions end when base is
// cancelled; bus carries tracking updates to other instances.
func NewWSHandler(base context.Context, hub *notify.Hub, bus notify.Bus, bookings service.BookingService, tokens *auth.TokenManager, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		bus:      bus,
		bookings: bookings,
		tokens:   tokens,
		logger:   logger,
		base:     base,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the token query parameter authenticates the socket
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

func (h *WSHandler) Serve(c echo.Context) error {
	actor, err := middleware.ActorFromToken(h.tokens, c.QueryParam("token"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	var since *uint
	if s := c.QueryParam("since"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
		}
		cursor := uint(v)
		since = &cursor
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}

	sub := h.hub.Subscribe(actor.ID, string(actor.Role))
	s := &session{
		h:       h,
		conn:    conn,
		actor:   actor,
		sub:     sub,
		replies: make(chan notify.Notification, 8),
		logger:  h.logger.With(zap.String("session", sub.ID), zap.Uint("user_id", actor.ID)),
	}
	s.run(since)
	return nil
}

type session struct {
	h       *WSHandler
	conn    *websocket.Conn
	actor   service.Actor
	sub     *notify.Subscriber
	replies chan notify.Notification
	logger  *zap.Logger
}

func (s *session) run(since *uint) {
	ctx, cancel := context.WithCancel(s.h.base)
	defer cancel()

	s.logger.Info("websocket connected")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx, since)
	}()

	s.readLoop(ctx)

	// Unsubscribe closes the subscriber channel, which ends the write loop.
	s.h.hub.Unsubscribe(s.sub)
	cancel()
	wg.Wait()
	s.conn.Close()
	s.logger.Info("websocket disconnected")
}

func (s *session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// A cancelled base context unblocks the read by closing the socket.
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
		s.handle(ctx, msg)
	}
}

func (s *session) handle(ctx context.Context, msg clientMessage) {
	switch msg.Type {
	case msgJoinRoom:
		if !s.actor.IsAdmin() && msg.UserID != s.actor.ID {
			s.reply(eventError, map[string]string{"message": "cannot join another user's room"})
			return
		}
		room := notify.RoomForUser(msg.UserID)
		s.h.hub.Join(s.sub, room)
		s.reply(eventJoined, map[string]string{"room": room})

	case msgTrackingUpdate:
		if err := s.relayTracking(ctx, msg); err != nil {
			s.reply(eventError, map[string]string{"message": err.Error()})
		}

	default:
		s.reply(eventError, map[string]string{"message": "unknown message type"})
	}
}

// relayTracking forwards a provider's position to the booking's customer. The
// recipient comes from the booking, never from the client.
func (s *session) relayTracking(ctx context.Context, msg clientMessage) error {
	if !s.actor.IsProvider() {
		return service.ErrForbidden
	}

	booking, err := s.h.bookings.Get(ctx, s.actor, msg.BookingID)
	if err != nil {
		return err
	}
	if booking.ProviderID == nil || *booking.ProviderID != s.actor.ID {
		return service.ErrForbidden
	}
	if booking.Status != models.StatusAccepted && booking.Status != models.StatusInProgress {
		return service.ErrInvalidTransition
	}

	data, err := json.Marshal(locationUpdate{
		BookingID:        booking.ID,
		ProviderID:       s.actor.ID,
		Latitude:         msg.Latitude,
		Longitude:        msg.Longitude,
		StatusMessage:    msg.StatusMessage,
		EstimatedArrival: msg.EstimatedArrival,
	})
	if err != nil {
		return err
	}

	return s.h.bus.Publish(ctx, notify.Notification{
		Event: notify.EventLocationUpdate,
		Room:  notify.RoomForUser(booking.CustomerID),
		Data:  data,
	})
}

func (s *session) reply(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case s.replies <- notify.Notification{Event: event, Data: data}:
	default:
		s.logger.Warn("dropping reply for slow client", zap.String("event", event))
	}
}

func (s *session) writeLoop(ctx context.Context, since *uint) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// Outbox ids can commit out of order, so only ids the replay actually
	// sent are skipped on the live stream; a high-water mark would lose the rest.
	replayed := make(map[uint]struct{})
	if since != nil {
		events, err := s.h.bookings.Replay(ctx, s.actor, *since, replayLimit)
		if err != nil {
			s.logger.Error("replay events", zap.Error(err))
		}
		for _, ev := range events {
			if err := s.write(service.ToNotification(ev)); err != nil {
				s.conn.Close()
				return
			}
			replayed[ev.ID] = struct{}{}
		}
	}

	for {
		select {
		case n, ok := <-s.sub.C():
			if !ok {
				s.writeClose()
				return
			}
			if _, ok := replayed[n.Cursor]; ok && n.Cursor != 0 {
				delete(replayed, n.Cursor)
				continue
			}
			if err := s.write(n); err != nil {
				s.conn.Close()
				return
			}
		case n := <-s.replies:
			if err := s.write(n); err != nil {
				s.conn.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				return
			}
		case <-ctx.Done():
			s.writeClose()
			return
		}
	}
}

func (s *session) write(n notify.Notification) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(n.Frame())
}

func (s *session) writeClose() {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
