package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/franckalain/nutrilens/internal/metrics"
	"github.com/franckalain/nutrilens/internal/shell"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 16 << 20 // base64 photos
	writeWait      = 10 * time.Second

	messageBusy = "Uma análise já está em andamento."
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // sessions carry no credentials
	},
}

// inboundMessage is an action dispatched by the UI.
type inboundMessage struct {
	Type string `json:"type"`
	Data struct {
		Image string `json:"image"`
		Query string `json:"query"`
		ID    string `json:"id"`
	} `json:"data"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// session binds one websocket connection to one shell.
type session struct {
	id     string
	conn   *websocket.Conn
	shell  *shell.Shell
	logger *log.Entry

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	sess := &session{
		id:   uuid.New().String(),
		conn: conn,
	}
	sess.logger = log.WithField("session", sess.id)
	sess.shell = shell.New(s.analyzer,
		shell.WithSessionID(sess.id),
		shell.WithRenderer(sess.render),
	)

	// Store client connection
	s.sessions.Store(sess.id, sess)
	defer s.sessions.Delete(sess.id)
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	// Disconnecting cancels the preview ticker and any analysis in flight
	ctx, cancel := context.WithCancel(context.Background())
	defer sess.wg.Wait()
	defer cancel()

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		sess.shell.RunPreview(ctx, s.previewInterval)
	}()

	sess.logger.Info("Session opened")
	sess.render(sess.shell.View())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.logger.WithError(err).Warn("Error reading message")
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.logger.WithError(err).Debug("Error parsing message")
			sess.sendError("Invalid message format")
			continue
		}
		sess.handle(ctx, &msg)
	}
	sess.logger.Info("Session closed")
}

func (sess *session) handle(ctx context.Context, msg *inboundMessage) {
	switch msg.Type {
	case "submit_image":
		image := msg.Data.Image
		sess.async(func() error { return sess.shell.SubmitImage(ctx, image) })
	case "submit_text":
		query := msg.Data.Query
		sess.async(func() error { return sess.shell.SubmitText(ctx, query) })
	case "set_query":
		sess.shell.SetTextQuery(msg.Data.Query)
	case "reset":
		sess.report(sess.shell.Reset())
	case "select_history":
		sess.report(sess.shell.SelectHistory(msg.Data.ID))
	case "clear_history":
		sess.shell.ClearHistory()
	case "toggle_history":
		sess.shell.ToggleHistory()
	default:
		sess.sendError("Unknown message type")
	}
}

// async runs a submission off the read loop so the session stays responsive.
func (sess *session) async(submit func() error) {
	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		sess.report(submit())
	}()
}

func (sess *session) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, shell.ErrBusy):
		sess.sendError(messageBusy)
	case errors.Is(err, shell.ErrUnknownEntry):
		sess.sendError("History entry not found")
	default:
		sess.logger.WithError(err).Error("Session action failed")
		sess.sendError("Action failed")
	}
}

func (sess *session) render(view shell.View) {
	sess.write(outboundMessage{Type: "state", Data: view})
}

func (sess *session) sendError(message string) {
	sess.write(outboundMessage{Type: "error", Message: message})
}

func (sess *session) write(msg outboundMessage) {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteJSON(msg); err != nil {
		sess.logger.WithError(err).Debug("Error sending message")
	}
}
