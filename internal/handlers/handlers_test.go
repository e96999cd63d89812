package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/internal/handlers"
	"github.com/nfrund/roomchat/internal/identity"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/internal/rendering"
	"github.com/nfrund/roomchat/internal/summary"
)

const (
	testSessionSecret = "a-very-secret-key-for-testing-!"
	testRegistration  = "let-me-in"
)

var testRooms = []domain.Room{
	{ID: "general", Name: "General", Passcode: "open"},
	{ID: "ops", Name: "Ops", Passcode: "s3cr3t"},
}

// memAccounts is an in-memory account backend.
type memAccounts struct {
	mu    sync.Mutex
	users map[string]string // email -> password
}

func (m *memAccounts) VerifyCredentials(_ context.Context, email, password string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pw, ok := m.users[email]; !ok || pw != password {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Identity{ID: "user:" + email, Email: email}, nil
}

func (m *memAccounts) CreateAccount(_ context.Context, email, password string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, domain.ErrUserAlreadyExists
	}
	m.users[email] = password
	return &domain.Identity{ID: "user:" + email, Email: email}, nil
}

func (m *memAccounts) FindIdentity(_ context.Context, id string) (*domain.Identity, error) {
	email := strings.TrimPrefix(id, "user:")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Identity{ID: id, Email: email}, nil
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func (m *memProfiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProfiles) Put(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}

// memMessages is a message store and live feed in one.
type memMessages struct {
	mu   sync.Mutex
	msgs []domain.Message
	subs map[*memSub]bool
}

type memSub struct {
	room string
	ch   chan domain.Snapshot
	once sync.Once
	m    *memMessages
}

func (s *memSub) Snapshots() <-chan domain.Snapshot { return s.ch }

func (s *memSub) Cancel() {
	s.once.Do(func() {
		s.m.mu.Lock()
		delete(s.m.subs, s)
		s.m.mu.Unlock()
		close(s.ch)
	})
}

func (m *memMessages) Append(_ context.Context, nm domain.NewMessage) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := domain.Message{
		ID:             fmt.Sprintf("message:%d", len(m.msgs)+1),
		RoomID:         nm.RoomID,
		Text:           nm.Text,
		AuthorID:       nm.AuthorID,
		AuthorEmail:    nm.AuthorEmail,
		AuthorNickname: nm.AuthorNickname,
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, len(m.msgs), 0, time.UTC),
	}
	m.msgs = append(m.msgs, msg)
	for s := range m.subs {
		if s.room == nm.RoomID {
			s.ch <- domain.Snapshot{Messages: m.roomLocked(nm.RoomID)}
		}
	}
	return &msg, nil
}

func (m *memMessages) Subscribe(_ context.Context, roomID string) (domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &memSub{room: roomID, ch: make(chan domain.Snapshot, 16), m: m}
	m.subs[s] = true
	s.ch <- domain.Snapshot{Messages: m.roomLocked(roomID)}
	return s, nil
}

func (m *memMessages) roomLocked(roomID string) []domain.Message {
	var out []domain.Message
	for _, msg := range m.msgs {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	return out
}

func (m *memMessages) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.msgs {
		out = append(out, msg.Text)
	}
	return out
}

type testApp struct {
	t        *testing.T
	e        *echo.Echo
	manager  *chat.Manager
	accounts *memAccounts
	messages *memMessages
	cookies  map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	app := &testApp{
		t:        t,
		accounts: &memAccounts{users: map[string]string{"ada@example.com": "password1"}},
		messages: &memMessages{subs: map[*memSub]bool{}},
		cookies:  map[string]*http.Cookie{},
	}
	profiles := &memProfiles{profiles: map[string]domain.Profile{}}
	gate := chat.NewGate(testRooms)
	summarizer := summary.NewSummarizer(nil, time.UTC)

	app.manager = chat.NewManager(func(sid string) *chat.Controller {
		return chat.NewController(sid, identity.NewProvider(app.accounts, testRegistration), chat.Deps{
			Profiles:        profiles,
			Messages:        app.messages,
			Feed:            app.messages,
			Gate:            gate,
			Summarizer:      summarizer,
			NotificationTTL: time.Minute,
		})
	})
	t.Cleanup(app.manager.Close)

	renderer := rendering.NewUniversalRenderer()
	e := echo.New()
	e.Renderer = renderer
	e.Validator = handlers.NewValidator()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))
	e.Use(middleware.Session(app.manager))

	home := handlers.NewHomeHandler(renderer)
	auth := handlers.NewAuthHandler()
	rooms := handlers.NewRoomsHandler(gate)
	chatHandler := handlers.NewChatHandler(renderer, time.UTC)

	e.GET("/", home.HomeGet)
	e.DELETE("/notifications/:id", home.DismissNotification)
	e.GET("/auth/login", auth.LoginGet)
	e.POST("/auth/login", auth.LoginPost)
	e.GET("/auth/register", auth.RegisterGet)
	e.POST("/auth/register", auth.RegisterPost)
	e.POST("/auth/logout", auth.Logout)

	roomRoutes := e.Group("/rooms", middleware.RequireUser)
	roomRoutes.GET("", rooms.List)
	roomRoutes.POST("/:id/join", rooms.Join)
	roomRoutes.POST("/leave", rooms.Leave)

	inRoom := e.Group("/chat", middleware.RequireUser, middleware.RequireRoom)
	inRoom.GET("", chatHandler.Show)
	inRoom.POST("/messages", chatHandler.Send)
	inRoom.POST("/summary", chatHandler.Summarize)
	inRoom.DELETE("/summary", chatHandler.DismissSummary)

	e.GET("/_sid", func(c echo.Context) error {
		ctrl, _ := middleware.ControllerFrom(c)
		return c.String(http.StatusOK, ctrl.ID())
	})

	app.e = e
	return app
}

func (a *testApp) request(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	a.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	for _, ck := range a.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		a.cookies[ck.Name] = ck
	}
	return rec
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.request(http.MethodGet, path, nil, false)
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return a.request(http.MethodPost, path, form, false)
}

func (a *testApp) signIn() {
	a.t.Helper()
	rec := a.post("/auth/login", url.Values{"email": {"ada@example.com"}, "password": {"password1"}})
	require.Equal(a.t, http.StatusSeeOther, rec.Code)
	require.Equal(a.t, "/rooms", rec.Header().Get(echo.HeaderLocation))
}

// controller returns the controller behind the current session cookie.
func (a *testApp) controller() *chat.Controller {
	a.t.Helper()
	sid := a.get("/_sid").Body.String()
	ctrl, ok := a.manager.Get(sid)
	require.True(a.t, ok, "no controller for session %q", sid)
	return ctrl
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, location, rec.Header().Get(echo.HeaderLocation))
}
