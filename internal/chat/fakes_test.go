package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/internal/identity"
	"github.com/nfrund/roomchat/internal/pubsub"
)

var testRooms = []domain.Room{
	{ID: "general", Name: "General", Passcode: "open"},
	{ID: "ops", Name: "Ops", Passcode: "s3cr3t"},
}

type fakeAccounts struct{}

func (fakeAccounts) VerifyCredentials(_ context.Context, email, password string) (*domain.Identity, error) {
	if password != "pw" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Identity{ID: "user:" + email, Email: email}, nil
}

func (fakeAccounts) CreateAccount(_ context.Context, email, _ string) (*domain.Identity, error) {
	return &domain.Identity{ID: "user:" + email, Email: email}, nil
}

func (fakeAccounts) FindIdentity(_ context.Context, id string) (*domain.Identity, error) {
	return nil, domain.ErrNotFound
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]string
	getErr   error
	putErr   error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]string)}
}

func (f *fakeProfiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	nick, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &domain.Profile{UserID: userID, Nickname: nick}, nil
}

func (f *fakeProfiles) Put(_ context.Context, p domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.profiles[p.UserID] = p.Nickname
	return nil
}

type fakeMessages struct {
	mu       sync.Mutex
	appended []domain.NewMessage
	err      error
	// release, when set, blocks Append until it is closed or receives.
	release chan struct{}
	started chan struct{}
}

func (f *fakeMessages) Append(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.appended = append(f.appended, msg)
	return &domain.Message{ID: fmt.Sprintf("message:%d", len(f.appended)), RoomID: msg.RoomID, Text: msg.Text}, nil
}

func (f *fakeMessages) records() []domain.NewMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.NewMessage, len(f.appended))
	copy(out, f.appended)
	return out
}

type fakeSub struct {
	feed     *fakeFeed
	room     string
	ch       chan domain.Snapshot
	keepOpen bool

	once      sync.Once
	mu        sync.Mutex
	cancelled bool
}

func (s *fakeSub) Snapshots() <-chan domain.Snapshot { return s.ch }

func (s *fakeSub) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
		s.feed.record("cancel " + s.room)
		if !s.keepOpen {
			close(s.ch)
		}
	})
}

func (s *fakeSub) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *fakeSub) push(snap domain.Snapshot) {
	s.ch <- snap
}

type fakeFeed struct {
	mu       sync.Mutex
	subs     []*fakeSub
	log      []string
	err      error
	keepOpen bool
}

func (f *fakeFeed) Subscribe(_ context.Context, roomID string) (domain.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub := &fakeSub{feed: f, room: roomID, ch: make(chan domain.Snapshot, 8), keepOpen: f.keepOpen}
	f.record("subscribe " + roomID)
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeFeed) record(entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, entry)
}

func (f *fakeFeed) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.log))
	copy(out, f.log)
	return out
}

func (f *fakeFeed) last() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakeFeed) active() int {
	f.mu.Lock()
	subs := append([]*fakeSub(nil), f.subs...)
	f.mu.Unlock()
	n := 0
	for _, s := range subs {
		if !s.isCancelled() {
			n++
		}
	}
	return n
}

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	reply   string
	err     error
	release chan struct{}
}

func (f *fakeSummarizer) Summarize(_ context.Context, msgs []domain.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingBus captures published session events.
type recordingBus struct {
	mu     sync.Mutex
	events []Event
}

var _ pubsub.Publisher = (*recordingBus)(nil)

func (b *recordingBus) Publish(_ context.Context, msg pubsub.Message) error {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Close() error { return nil }

// errorBanners counts distinct error banners seen in notification events.
func (b *recordingBus) errorBanners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := map[string]bool{}
	for _, ev := range b.events {
		n := ev.Session.Notification
		if ev.Type == EventNotification && n != nil && n.Level == domain.LevelError {
			seen[n.ID] = true
		}
	}
	return len(seen)
}

type harness struct {
	ctrl       *Controller
	profiles   *fakeProfiles
	messages   *fakeMessages
	feed       *fakeFeed
	summarizer *fakeSummarizer
	bus        *recordingBus
}

func newHarness() *harness {
	h := &harness{
		profiles:   newFakeProfiles(),
		messages:   &fakeMessages{},
		feed:       &fakeFeed{},
		summarizer: &fakeSummarizer{reply: "summary"},
		bus:        &recordingBus{},
	}
	h.ctrl = NewController("sid-1", identity.NewProvider(fakeAccounts{}, "master"), Deps{
		Profiles:        h.profiles,
		Messages:        h.messages,
		Feed:            h.feed,
		Gate:            NewGate(testRooms),
		Summarizer:      h.summarizer,
		Bus:             h.bus,
		NotificationTTL: time.Minute,
	})
	return h
}

func (h *harness) signIn() {
	if err := h.ctrl.SignIn(context.Background(), "ada@example.com", "pw"); err != nil {
		panic(err)
	}
}

func (h *harness) join(room string) {
	var passcode string
	for _, r := range testRooms {
		if r.ID == room {
			passcode = r.Passcode
		}
	}
	if err := h.ctrl.JoinRoom(context.Background(), room, passcode); err != nil {
		panic(err)
	}
}

var errBoom = errors.New("boom")
