package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/capture"
	"github.com/jonathan/interview-coach/internal/review"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
)

// ClientMessage is one message from the browser on the attempt socket. The
// browser runs the recognition engine and relays its events; command messages
// drive the session.
type ClientMessage struct {
	Type string `json:"type"`

	// load
	Question      string     `json:"question,omitempty"`
	CorrectAnswer string     `json:"correct_answer,omitempty"`
	InterviewID   *uuid.UUID `json:"interview_id,omitempty"`

	// interim
	Text string `json:"text,omitempty"`

	// results
	Fragments []string `json:"fragments,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// permission
	State string `json:"state,omitempty"`
}

// ServerMessage is one message pushed down the attempt socket.
type ServerMessage struct {
	Type     string           `json:"type"` // state or error
	Snapshot *review.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// wsSource adapts browser recognition messages into a capture.Source. The
// actual engine runs in the browser; Start and Stop only track whether events
// should flow.
type wsSource struct {
	mu         sync.Mutex
	active     bool
	permission capture.PermissionState
	events     chan capture.Event
}

func newWSSource() *wsSource {
	return &wsSource{
		permission: capture.PermissionPrompt,
		events:     make(chan capture.Event, 64),
	}
}

func (s *wsSource) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	return nil
}

func (s *wsSource) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return nil
}

func (s *wsSource) Events() <-chan capture.Event { return s.events }

func (s *wsSource) Permission(context.Context) (capture.PermissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission, nil
}

func (s *wsSource) setPermission(state capture.PermissionState) {
	s.mu.Lock()
	s.permission = state
	s.mu.Unlock()
	s.emit(capture.EventPermission{State: state})
}

// emit forwards an event to the consumer. Events arriving while capture is
// not active are dropped, as are events that would overflow the buffer:
// stalling the socket read loop is worse than losing a fragment.
func (s *wsSource) emit(ev capture.Event) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

func (s *wsSource) close() {
	close(s.events)
}

// attemptSession couples one socket to one review panel.
type attemptSession struct {
	server *Server
	conn   *websocket.Conn
	userID string

	mu     sync.Mutex
	source *wsSource
	panel  *review.Panel
}

// handleAttemptWS upgrades to a WebSocket and drives an answer session from
// browser recognition events, pushing state snapshots after every change.
func (s *Server) handleAttemptWS(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	session := &attemptSession{server: s, conn: conn, userID: userID}
	defer session.closeSource()
	defer conn.Close(websocket.StatusNormalClosure, "session ended")

	ctx := r.Context()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		session.dispatch(ctx, msg)
	}
}

func (session *attemptSession) dispatch(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case "load":
		session.handleLoad(ctx, msg)
	case "start":
		session.withPanel(ctx, func(p *review.Panel) error { return p.StartRecording(ctx) })
	case "stop":
		// StopRecording blocks through the settle delay and both model
		// phases; run it off the read loop so events keep flowing.
		go session.withPanel(ctx, func(p *review.Panel) error { return p.StopRecording(ctx) })
	case "save":
		session.withPanel(ctx, func(p *review.Panel) error {
			_, err := p.Save(ctx)
			return err
		})
	case "retake":
		session.withPanel(ctx, func(p *review.Panel) error { return p.RecordAgain(ctx) })
	case "interim":
		session.emit(capture.EventInterim{Text: msg.Text})
	case "results":
		session.emit(capture.EventFinal{Fragments: msg.Fragments})
	case "error":
		session.emit(capture.EventError{Err: &recognitionError{message: msg.Message}})
	case "permission":
		session.setPermission(capture.PermissionState(msg.State))
	default:
		session.sendError(ctx, "unknown message type: "+msg.Type)
	}
}

func (session *attemptSession) handleLoad(ctx context.Context, msg ClientMessage) {
	if msg.Question == "" {
		session.sendError(ctx, "question is required")
		return
	}

	session.mu.Lock()
	if session.source != nil {
		session.source.close()
	}
	source := newWSSource()
	question := types.Question{Question: msg.Question, Answer: msg.CorrectAnswer}
	panel := review.NewPanel(question, msg.InterviewID, session.userID,
		capture.NewRecorder(source), session.server.grader, session.server.analyzer, session.server.store)
	session.source = source
	session.panel = panel
	session.mu.Unlock()

	if err := panel.Load(ctx); err != nil {
		session.sendError(ctx, err.Error())
		return
	}
	session.pushState(ctx)
}

// withPanel runs a session operation and pushes the resulting state. Errors
// go to the client as error messages; the session stays usable.
func (session *attemptSession) withPanel(ctx context.Context, op func(*review.Panel) error) {
	session.mu.Lock()
	panel := session.panel
	session.mu.Unlock()
	if panel == nil {
		session.sendError(ctx, "no question loaded")
		return
	}
	if err := op(panel); err != nil {
		session.sendError(ctx, err.Error())
	}
	session.pushState(ctx)
}

func (session *attemptSession) emit(ev capture.Event) {
	session.mu.Lock()
	source := session.source
	session.mu.Unlock()
	if source != nil {
		source.emit(ev)
	}
}

func (session *attemptSession) setPermission(state capture.PermissionState) {
	session.mu.Lock()
	source := session.source
	session.mu.Unlock()
	if source != nil {
		source.setPermission(state)
	}
}

func (session *attemptSession) pushState(ctx context.Context) {
	session.mu.Lock()
	panel := session.panel
	session.mu.Unlock()
	if panel == nil {
		return
	}
	snapshot := panel.Snapshot()
	_ = wsjson.Write(ctx, session.conn, ServerMessage{Type: "state", Snapshot: &snapshot})
}

func (session *attemptSession) sendError(ctx context.Context, message string) {
	_ = wsjson.Write(ctx, session.conn, ServerMessage{Type: "error", Error: message})
}

func (session *attemptSession) closeSource() {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.source != nil {
		session.source.close()
		session.source = nil
	}
}

type recognitionError struct {
	message string
}

func (e *recognitionError) Error() string {
	if e.message == "" {
		return "recognition error"
	}
	return e.message
}
