package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/roomchat/internal/handlers"
)

func TestJoinRoom(t *testing.T) {
	t.Run("wrong passcode stays on the list", func(t *testing.T) {
		app := newTestApp(t)
		app.signIn()

		rec := app.post("/rooms/ops/join", url.Values{"passcode": {"nope"}})
		assertRedirect(t, rec, "/rooms")

		body := app.get("/rooms").Body.String()
		assert.Contains(t, body, "Wrong passcode for Ops.")
		assert.Contains(t, body, `value="nope"`, "the typed passcode is kept")
		assertRedirect(t, app.get("/chat"), "/rooms")
	})

	t.Run("matching passcode opens the room", func(t *testing.T) {
		app := newTestApp(t)
		app.signIn()

		assertRedirect(t, app.post("/rooms/ops/join", url.Values{"passcode": {"s3cr3t"}}), "/chat")

		rec := app.get("/chat")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<h1>Ops</h1>")
		assert.Contains(t, body, `ws-connect="/ws?screen=chat"`)
		assert.Contains(t, body, `id="composer"`)
	})

	t.Run("htmx join uses HX-Redirect", func(t *testing.T) {
		app := newTestApp(t)
		app.signIn()

		rec := app.request(http.MethodPost, "/rooms/general/join", url.Values{"passcode": {"open"}}, true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/chat", rec.Header().Get("HX-Redirect"))
	})

	t.Run("anonymous sessions are sent to sign in", func(t *testing.T) {
		app := newTestApp(t)
		assertRedirect(t, app.post("/rooms/general/join", url.Values{"passcode": {"open"}}), "/auth/login")
		assertRedirect(t, app.get("/chat"), "/auth/login")
	})
}

func TestLeaveRoom(t *testing.T) {
	app := newTestApp(t)
	app.signIn()
	assertRedirect(t, app.post("/rooms/general/join", url.Values{"passcode": {"open"}}), "/chat")

	assertRedirect(t, app.post("/rooms/leave", nil), "/rooms")
	assert.False(t, app.controller().State().InRoom())
	assertRedirect(t, app.get("/chat"), "/rooms")
}

func TestSendMessage(t *testing.T) {
	app := newTestApp(t)
	app.signIn()
	assertRedirect(t, app.post("/rooms/general/join", url.Values{"passcode": {"open"}}), "/chat")

	rec := app.request(http.MethodPost, "/chat/messages", url.Values{"text": {"  hello there  "}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="composer"`)
	assert.Contains(t, rec.Body.String(), `aria-label="Message"></textarea>`, "the draft is cleared after the write")
	assert.Contains(t, rec.Body.String(), `hx-swap-oob="true"`)
	assert.Equal(t, []string{"hello there"}, app.messages.texts())

	ctrl := app.controller()
	require.Eventually(t, func() bool {
		return len(ctrl.State().Messages) == 1
	}, time.Second, 10*time.Millisecond)

	body := app.get("/chat").Body.String()
	assert.Contains(t, body, "hello there")
	assert.Contains(t, body, "2024-05-01 12:00:00")

	t.Run("blank text writes nothing", func(t *testing.T) {
		app.post("/chat/messages", url.Values{"text": {"   "}})
		assert.Len(t, app.messages.texts(), 1)
	})

	t.Run("over-length text keeps the draft and shows a banner", func(t *testing.T) {
		long := strings.Repeat("x", 4001)
		rec := app.request(http.MethodPost, "/chat/messages", url.Values{"text": {long}}, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), long+"</textarea>")
		assert.Contains(t, rec.Body.String(), `maxlength="4000"`)
		assert.Contains(t, rec.Body.String(), "Messages can be at most 4000 characters.")
		assert.Len(t, app.messages.texts(), 1)

		st := ctrl.State()
		assert.Equal(t, long, st.Draft)
		require.NotNil(t, st.Notification)
		assert.Equal(t, "Messages can be at most 4000 characters.", st.Notification.Text)
	})
}

func TestSummarize(t *testing.T) {
	app := newTestApp(t)
	app.signIn()
	assertRedirect(t, app.post("/rooms/general/join", url.Values{"passcode": {"open"}}), "/chat")

	t.Run("empty room", func(t *testing.T) {
		assertRedirect(t, app.post("/chat/summary", nil), "/chat")
		assert.Contains(t, app.get("/chat").Body.String(), "There are no messages to summarize yet.")
	})

	t.Run("no API key configured", func(t *testing.T) {
		app.post("/chat/messages", url.Values{"text": {"hi"}})
		ctrl := app.controller()
		require.Eventually(t, func() bool {
			return len(ctrl.State().Messages) == 1
		}, time.Second, 10*time.Millisecond)

		assertRedirect(t, app.post("/chat/summary", nil), "/chat")
		assert.Contains(t, app.get("/chat").Body.String(), "Summaries are not available: no API key is configured.")
	})

	t.Run("htmx request returns the button fragment", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/chat/summary", url.Values{}, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `id="summarize-button"`)
	})

	t.Run("dismiss returns an empty overlay", func(t *testing.T) {
		rec := app.request(http.MethodDelete, "/chat/summary", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `<div id="summary-overlay"></div>`, rec.Body.String())
	})
}

func TestDismissNotification(t *testing.T) {
	app := newTestApp(t)
	app.signIn()

	note := app.controller().State().Notification
	require.NotNil(t, note)

	rec := app.request(http.MethodDelete, "/notifications/"+note.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `<div id="banner"></div>`, rec.Body.String())
	assert.Nil(t, app.controller().State().Notification)
}

type stubHealth bool

func (s stubHealth) IsHealthy() bool { return bool(s) }

type stubSessions int

func (s stubSessions) Len() int { return int(s) }

func TestHealth(t *testing.T) {
	cases := []struct {
		name     string
		healthy  bool
		wantCode int
		want     handlers.HealthResponse
	}{
		{"database up", true, http.StatusOK, handlers.HealthResponse{Status: "ok", Database: "up", Sessions: 3}},
		{"database down", false, http.StatusServiceUnavailable, handlers.HealthResponse{Status: "degraded", Database: "down", Sessions: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			require.NoError(t, handlers.NewHealthHandler(stubHealth(tc.healthy), stubSessions(3)).Check(c))

			assert.Equal(t, tc.wantCode, rec.Code)
			var got handlers.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}
