package summary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTranscript(t *testing.T) {
	msgs := []domain.Message{
		{AuthorNickname: "alice", Text: "hi", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{AuthorNickname: "bob", Text: "yo", CreatedAt: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)},
	}

	got := BuildTranscript(msgs, time.UTC)
	assert.Equal(t, "[2024-01-01 00:00:00] alice: hi\n[2024-01-01 00:01:00] bob: yo", got)
}

func TestBuildTranscript_FiltersAndUnknownTime(t *testing.T) {
	msgs := []domain.Message{
		{AuthorNickname: "alice", Text: "   "},
		{AuthorNickname: "", Text: "orphan"},
		{AuthorNickname: "carol", Text: "pending"},
	}

	assert.Equal(t, "[Unknown time] carol: pending", BuildTranscript(msgs, nil))
}

func TestBuildTranscript_KeepsStoredText(t *testing.T) {
	msgs := []domain.Message{{AuthorNickname: "alice", Text: "  indented\n  code  ", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}

	assert.Equal(t, "[2024-01-01 00:00:00] alice:   indented\n  code  ", BuildTranscript(msgs, time.UTC))
}

func TestBuildTranscript_DisplayZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	msgs := []domain.Message{{AuthorNickname: "alice", Text: "hi", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}

	assert.Equal(t, "[2024-01-01 02:00:00] alice: hi", BuildTranscript(msgs, loc))
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("[x] a: b")
	for _, want := range []string{"Overview", "Main topics", "Key participants", "Important points and decisions", "Tone"} {
		assert.Contains(t, prompt, want)
	}
	assert.True(t, strings.HasSuffix(prompt, "[x] a: b"))
}

type fakeGenerator struct {
	configured bool
	calls      int
	prompt     string
	reply      string
	err        error
}

func (f *fakeGenerator) IsConfigured() bool { return f.configured }

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func TestSummarizer_Preconditions(t *testing.T) {
	ctx := context.Background()
	valid := []domain.Message{{AuthorNickname: "alice", Text: "hi"}}

	t.Run("empty list", func(t *testing.T) {
		gen := &fakeGenerator{configured: true}
		_, err := NewSummarizer(gen, nil).Summarize(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyConversation)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		assert.Zero(t, gen.calls)
	})

	t.Run("not configured", func(t *testing.T) {
		gen := &fakeGenerator{}
		_, err := NewSummarizer(gen, nil).Summarize(ctx, valid)
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
		assert.Zero(t, gen.calls)
	})

	t.Run("nil generator", func(t *testing.T) {
		_, err := NewSummarizer(nil, nil).Summarize(ctx, valid)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("nothing valid", func(t *testing.T) {
		gen := &fakeGenerator{configured: true}
		_, err := NewSummarizer(gen, nil).Summarize(ctx, []domain.Message{{Text: "no nickname"}})
		assert.ErrorIs(t, err, ErrNoValidContent)
		assert.Zero(t, gen.calls)
	})
}

func TestSummarizer_ReturnsTextVerbatim(t *testing.T) {
	gen := &fakeGenerator{configured: true, reply: "  Overview: greetings.\n"}
	text, err := NewSummarizer(gen, nil).Summarize(context.Background(), []domain.Message{{AuthorNickname: "alice", Text: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "  Overview: greetings.\n", text)
	assert.Contains(t, gen.prompt, "[Unknown time] alice: hi")
}

func TestSummarizer_ProviderErrorsHaveDistinctMessages(t *testing.T) {
	msgs := []domain.Message{{AuthorNickname: "alice", Text: "hi"}}
	seen := map[string]ErrorKind{}

	for _, kind := range []ErrorKind{KindCredentialInvalid, KindQuotaExceeded, KindContentBlocked, KindNetwork, KindUnknown} {
		gen := &fakeGenerator{configured: true, err: &ProviderError{Kind: kind, Message: "x"}}
		_, err := NewSummarizer(gen, nil).Summarize(context.Background(), msgs)
		require.Error(t, err)

		msg := domain.UserMessage(err)
		prev, dup := seen[msg]
		assert.False(t, dup, "kind %s shares a message with %s", kind, prev)
		seen[msg] = kind

		if kind == KindNetwork {
			assert.Equal(t, domain.KindTransient, domain.KindOf(err))
		} else {
			assert.Equal(t, domain.KindProvider, domain.KindOf(err))
		}
	}
}

func TestGeminiClient_Generate(t *testing.T) {
	var gotKey, gotPath string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(apiKeyHeader)
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Summary "},{"text":"text"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	c := NewGeminiClient("k3y", srv.URL+"/", "gemini-test", 0)
	text, err := c.Generate(context.Background(), "prompt body")

	require.NoError(t, err)
	assert.Equal(t, "Summary text", text)
	assert.Equal(t, "k3y", gotKey)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "prompt body", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiClient_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{
			name:   "invalid key",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`,
			want:   KindCredentialInvalid,
		},
		{
			name:   "permission denied",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`,
			want:   KindCredentialInvalid,
		},
		{
			name:   "quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			want:   KindQuotaExceeded,
		},
		{
			name:   "unavailable",
			status: http.StatusServiceUnavailable,
			body:   `not json`,
			want:   KindNetwork,
		},
		{
			name:   "prompt blocked",
			status: http.StatusOK,
			body:   `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			want:   KindContentBlocked,
		},
		{
			name:   "candidate blocked",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`,
			want:   KindContentBlocked,
		},
		{
			name:   "bad request mentioning quota in text only",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"quota exceeded blocked api key","status":"INVALID_ARGUMENT"}}`,
			want:   KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewGeminiClient("key", srv.URL, "m", 0).Generate(context.Background(), "p")
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestGeminiClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGeminiClient("key", url, "m", 0).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestGeminiClient_NotConfigured(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	c := NewGeminiClient("  ", srv.URL, "m", 0)
	assert.False(t, c.IsConfigured())

	_, err := c.Generate(context.Background(), "p")
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Zero(t, hits.Load())
}

func TestGeminiClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	c := NewGeminiClient("key", srv.URL, "m", 1)
	_, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, "p")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}
