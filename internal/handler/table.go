// Package handler provides the HTTP and websocket handlers that connect a
// browser renderer to roulette tables.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/shopspring/decimal"

	"roulette-table/internal/config"
	"roulette-table/internal/game"
	"roulette-table/internal/game/roulette"
	"roulette-table/internal/pkg/lock"
)

const (
	// maxMessageSize bounds a single client frame.
	maxMessageSize = 4096
	// writeWait is the time allowed to write one frame to the client.
	writeWait = 5 * time.Second
)

// Client message types.
const (
	MsgMarkerReleased = "marker_released"
	MsgSpin           = "spin"
	MsgReset          = "reset"
	MsgSetBalance     = "set_balance"
)

// Server message types.
const (
	MsgSnapshot = "snapshot"
	MsgError    = "error"
)

// RectPayload is a marker rectangle in board coordinates.
type RectPayload struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right" validate:"gtefield=Left"`
	Bottom float64 `json:"bottom" validate:"gtefield=Top"`
}

// ClientMessage is one frame sent by the renderer.
type ClientMessage struct {
	Type     string           `json:"type" validate:"required,oneof=marker_released spin reset set_balance"`
	MarkerID int              `json:"marker_id" validate:"required_if=Type marker_released"`
	Rect     *RectPayload     `json:"rect" validate:"required_if=Type marker_released"`
	Amount   *decimal.Decimal `json:"amount" validate:"required_if=Type set_balance"`
}

// ServerMessage is one frame sent to the renderer.
type ServerMessage struct {
	Type     string             `json:"type"`
	Snapshot *roulette.Snapshot `json:"snapshot,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// LayoutResponse describes the board so the renderer can draw it.
type LayoutResponse struct {
	CellWidth  float64         `json:"cell_width"`
	CellHeight float64         `json:"cell_height"`
	Cells      []roulette.Cell `json:"cells"`
}

// TableListResponse lists the open tables.
type TableListResponse struct {
	Count  int      `json:"count"`
	Tables []string `json:"tables"`
}

// ErrorResponse is the body of a failed HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
}

var errTableClosed = errors.New("table not found")

// TableHandler opens one table per websocket connection and feeds it
// player events and wheel results.
type TableHandler struct {
	cfg       config.TableConfig
	registry  *game.Registry
	tableLock *lock.TableLock
	wheel     roulette.Wheel
	journal   roulette.Journal
	layout    *roulette.Layout
	validate  *validator.Validate
	upgrader  websocket.Upgrader
}

// NewTableHandler creates a new TableHandler. journal may be nil.
func NewTableHandler(
	cfg config.TableConfig,
	allowedOrigins []string,
	registry *game.Registry,
	tableLock *lock.TableLock,
	wheel roulette.Wheel,
	journal roulette.Journal,
) *TableHandler {
	return &TableHandler{
		cfg:       cfg,
		registry:  registry,
		tableLock: tableLock,
		wheel:     wheel,
		journal:   journal,
		layout:    roulette.StandardLayout(),
		validate:  validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Layout serves the board cells.
func (h *TableHandler) Layout(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, LayoutResponse{
		CellWidth:  roulette.CellWidth,
		CellHeight: roulette.CellHeight,
		Cells:      h.layout.Cells(),
	})
}

// List serves the ids of the open tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.IDs()
	render.JSON(w, r, TableListResponse{Count: len(ids), Tables: ids})
}

// Get serves a snapshot of one open table. The snapshot is taken under the
// table lock so it never shows a half-applied event.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tableID")
	table, ok := h.registry.Get(id)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: errTableClosed.Error()})
		return
	}

	var snap *roulette.Snapshot
	err := h.tableLock.WithLock(id, func() error {
		if _, ok := h.registry.Get(id); !ok {
			return errTableClosed
		}
		snap = table.Snapshot()
		return nil
	})
	if err != nil {
		// The table closed while we waited; drop the mutex we recreated.
		h.tableLock.Forget(id)
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
		return
	}
	render.JSON(w, r, snap)
}

// session is one connected player and the table it owns.
type session struct {
	conn   *websocket.Conn
	table  *roulette.Table
	logger zerolog.Logger
	ctx    context.Context

	timerMu sync.Mutex
	timer   *time.Timer
	pending sync.WaitGroup
}

// ServeWS upgrades the connection, opens a table and runs the read loop
// until the client goes away.
func (h *TableHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to upgrade connection")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	table := roulette.New(&roulette.Config{
		InitialBalance: decimal.NewFromInt(h.cfg.InitialBalance),
		HistorySize:    h.cfg.HistorySize,
		Layout:         h.layout,
		Journal:        h.journal,
	})
	if err := h.registry.Register(table); err != nil {
		logger.Error().Err(err).Msg("Failed to register table")
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	s := &session{
		conn:   conn,
		table:  table,
		logger: logger.With().Str("table_id", table.ID()).Logger(),
		ctx:    ctx,
	}
	defer h.closeSession(s, cancel)

	s.logger.Info().Int("open_tables", h.registry.Count()).Msg("Table opened")

	if err := h.withTable(s, func() error {
		return s.write(ServerMessage{Type: MsgSnapshot, Snapshot: table.Snapshot()})
	}); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to send initial snapshot")
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}
		if err := h.handleMessage(s, data); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to write to client")
			return
		}
	}
}

// handleMessage decodes, validates and applies one client frame. The
// returned error is a transport failure; game errors are reported to the
// client instead.
func (h *TableHandler) handleMessage(s *session, data []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return h.withTable(s, func() error {
			return s.write(ServerMessage{Type: MsgError, Error: "malformed message"})
		})
	}

	if err := h.validate.Struct(msg); err != nil {
		var verrs validator.ValidationErrors
		text := err.Error()
		if errors.As(err, &verrs) {
			text = validationMessage(verrs)
		}
		s.logger.Debug().Str("type", msg.Type).Str("error", text).Msg("Invalid message")
		return h.withTable(s, func() error {
			return s.write(ServerMessage{Type: MsgError, Error: text})
		})
	}

	ev := toEvent(msg)
	return h.withTable(s, func() error {
		wasSpinning := s.table.State() == roulette.StateSpinning
		if err := s.table.Handle(s.ctx, ev); err != nil {
			s.logger.Debug().Err(err).Str("event", ev.Name()).Msg("Event rejected")
			if werr := s.write(ServerMessage{Type: MsgError, Error: err.Error()}); werr != nil {
				return werr
			}
		} else if !wasSpinning && s.table.State() == roulette.StateSpinning {
			h.scheduleWheel(s)
		}
		return s.write(ServerMessage{Type: MsgSnapshot, Snapshot: s.table.Snapshot()})
	})
}

// scheduleWheel plays the wheel after the configured spin delay. It is
// called with the table lock held.
func (h *TableHandler) scheduleWheel(s *session) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	s.pending.Add(1)
	s.timer = time.AfterFunc(h.cfg.SpinDelay, func() {
		defer s.pending.Done()
		h.reportWheel(s)
	})
}

// reportWheel resolves the round once the table is free. A table in
// SPINNING only leaves that state here, so it waits for the lock rather
// than giving up; closeSession cancels the context to stop it.
func (h *TableHandler) reportWheel(s *session) {
	n := h.wheel.Spin()

	err := h.withTable(s, func() error {
		if s.ctx.Err() != nil {
			return nil
		}
		if _, err := s.table.ReportWinningNumber(s.ctx, n); err != nil {
			return fmt.Errorf("report winning number %d: %w", n, err)
		}
		return s.write(ServerMessage{Type: MsgSnapshot, Snapshot: s.table.Snapshot()})
	})
	if err != nil && s.ctx.Err() == nil {
		s.logger.Error().Err(err).Msg("Failed to report wheel result")
	}
}

// closeSession stops a pending wheel and releases the table.
func (h *TableHandler) closeSession(s *session, cancel context.CancelFunc) {
	cancel()

	s.timerMu.Lock()
	if s.timer != nil && s.timer.Stop() {
		s.pending.Done()
	}
	s.timerMu.Unlock()
	s.pending.Wait()

	h.registry.Unregister(s.table.ID())
	h.tableLock.Forget(s.table.ID())
	s.logger.Info().Int("open_tables", h.registry.Count()).Msg("Table closed")
}

func (h *TableHandler) withTable(s *session, fn func() error) error {
	return h.tableLock.WithLock(s.table.ID(), fn)
}

// write sends one frame. Callers hold the table lock, so frames reach the
// client in transition order.
func (s *session) write(msg ServerMessage) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func toEvent(msg ClientMessage) roulette.Event {
	switch msg.Type {
	case MsgMarkerReleased:
		return roulette.MarkerReleased{
			MarkerID: msg.MarkerID,
			Rect: roulette.Rect{
				Left:   msg.Rect.Left,
				Top:    msg.Rect.Top,
				Right:  msg.Rect.Right,
				Bottom: msg.Rect.Bottom,
			},
		}
	case MsgSpin:
		return roulette.SpinRequested{}
	case MsgSetBalance:
		return roulette.BalanceInjected{Amount: *msg.Amount}
	default:
		return roulette.ResetRequested{}
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	var msgs []string
	for _, err := range errs {
		switch err.ActualTag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("field %s is required", err.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("unknown message type %q", err.Value()))
		case "gtefield":
			msgs = append(msgs, fmt.Sprintf("field %s must not be less than %s", err.Field(), err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}

// originChecker accepts the listed origins; "*" accepts any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
