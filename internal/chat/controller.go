// Package chat holds the per-session controller: sign-in state, room
// membership, the live message list, the composer and summaries.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/internal/pubsub"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrSummaryInProgress is returned while a summary request is outstanding.
	ErrSummaryInProgress = errors.New("summary already in progress")

	// ErrClosed is returned by transitions on a closed controller.
	ErrClosed = errors.New("session closed")
)

// AuthProvider is the per-session identity provider.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	Register(ctx context.Context, email, password, secretKey string) (*domain.Identity, error)
	SignOut(ctx context.Context)
	Restore(ctx context.Context, userID string) (*domain.Identity, error)
	OnAuthStateChanged(fn func(ctx context.Context, id *domain.Identity)) (unsubscribe func())
}

// Summarizer produces a prose summary of a message list.
type Summarizer interface {
	Summarize(ctx context.Context, messages []domain.Message) (string, error)
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Profiles   domain.ProfileRepository
	Messages   domain.MessageRepository
	Feed       domain.MessageFeed
	Gate       *Gate
	Summarizer Summarizer
	// Bus receives session events. Nil disables publishing.
	Bus pubsub.Publisher
	// NotificationTTL is the banner lifetime; zero means DefaultNotificationTTL.
	NotificationTTL time.Duration
}

// Controller owns one Session and performs its transitions. Transitions
// that touch the room subscription are serialized by opMu; mu guards the
// session fields and is never held across calls to the stores or the
// summarizer.
type Controller struct {
	deps     Deps
	auth     AuthProvider
	notifier *Notifier
	logger   *slog.Logger

	opMu sync.Mutex

	mu          sync.Mutex
	s           Session
	sub         domain.Subscription
	roomGen     uint64
	seq         uint64
	closed      bool
	unsubscribe func()
}

// NewController creates the controller for session sessionID and registers
// it with auth for sign-in state changes.
func NewController(sessionID string, auth AuthProvider, deps Deps) *Controller {
	c := &Controller{
		deps:   deps,
		auth:   auth,
		logger: slog.With("session_id", sessionID),
		s: Session{
			ID:             sessionID,
			PasscodeInputs: make(map[string]string),
		},
	}
	c.notifier = NewNotifier(deps.NotificationTTL, func(domain.Notification) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.publishLocked(context.Background(), EventNotification)
	})
	c.unsubscribe = auth.OnAuthStateChanged(c.onAuthStateChanged)
	return c
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.s.ID
}

// State returns a copy of the current session.
func (c *Controller) State() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Current returns the current session as an event carrying the sequence
// number of the last published event. Push consumers start from it.
func (c *Controller) Current() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Event{Type: EventState, Seq: c.seq, Session: c.snapshotLocked()}
}

// SignIn signs the session in. Failures are shown as a banner and returned.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	id, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		c.fail(ctx, err)
		return err
	}
	c.notify(ctx, domain.LevelSuccess, "Signed in as "+id.Email+".")
	return nil
}

// Register creates an account, signs it in and stores its profile.
// An empty nickname falls back to the local part of the email.
func (c *Controller) Register(ctx context.Context, email, password, nickname, secretKey string) error {
	const op = "chat.Register"

	c.opMu.Lock()
	defer c.opMu.Unlock()

	id, err := c.auth.Register(ctx, email, password, secretKey)
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = domain.NicknameFromEmail(id.Email)
	}
	if err := c.deps.Profiles.Put(ctx, domain.Profile{UserID: id.ID, Nickname: nickname}); err != nil {
		c.logger.ErrorContext(ctx, "Failed to write profile", "event", "profile_write_failed", "user_id", id.ID, "error", err)
		werr := domain.E(domain.KindTransient, op, err, "Account created, but your nickname could not be saved.")
		c.fail(ctx, werr)
		return werr
	}

	c.mu.Lock()
	if c.s.User != nil && c.s.User.ID == id.ID {
		c.s.User.Nickname = nickname
	}
	c.publishLocked(ctx, EventState)
	c.mu.Unlock()

	c.notify(ctx, domain.LevelSuccess, "Welcome, "+nickname+"!")
	return nil
}

// Restore re-establishes the signed-in user after a process restart.
func (c *Controller) Restore(ctx context.Context, userID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	_, err := c.auth.Restore(ctx, userID)
	return err
}

// SignOut signs the session out. The room, messages and summary are cleared
// through the auth state callback.
func (c *Controller) SignOut(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.auth.SignOut(ctx)
	c.notify(ctx, domain.LevelInfo, "Signed out.")
}

func (c *Controller) onAuthStateChanged(ctx context.Context, id *domain.Identity) {
	if id == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.releaseLocked()
		c.s.User = nil
		c.s.clearRoom()
		c.s.Draft = ""
		c.s.PasscodeInputs = make(map[string]string)
		c.publishLocked(ctx, EventState)
		return
	}

	nickname := domain.NicknameFromEmail(id.Email)
	profile, err := c.deps.Profiles.Get(ctx, id.ID)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "Failed to load profile, using email nickname", "event", "profile_load_failed", "user_id", id.ID, "error", err)
	case profile != nil && strings.TrimSpace(profile.Nickname) != "":
		nickname = strings.TrimSpace(profile.Nickname)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.User == nil || c.s.User.ID != id.ID {
		c.releaseLocked()
		c.s.clearRoom()
		c.s.Draft = ""
	}
	c.s.User = &domain.User{ID: id.ID, Email: id.Email, Nickname: nickname}
	c.publishLocked(ctx, EventState)
}

// JoinRoom enters roomID if passcode matches, releasing any previous room
// subscription before the new one is attached. A wrong passcode leaves the
// current room unchanged.
func (c *Controller) JoinRoom(ctx context.Context, roomID, passcode string) error {
	const op = "chat.JoinRoom"

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.s.User == nil {
		c.mu.Unlock()
		err := domain.E(domain.KindAuthentication, op, nil, "Sign in to join a room.")
		c.fail(ctx, err)
		return err
	}

	room, err := c.deps.Gate.Join(roomID, passcode)
	if err != nil {
		if _, known := c.deps.Gate.Lookup(roomID); known {
			c.s.PasscodeInputs[roomID] = passcode
		}
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "Room join rejected", "event", "room_join_rejected", "room", roomID)
		c.fail(ctx, err)
		return err
	}

	c.releaseLocked()
	c.s.clearRoom()
	delete(c.s.PasscodeInputs, roomID)
	gen := c.roomGen
	c.mu.Unlock()

	sub, err := c.deps.Feed.Subscribe(ctx, room.ID)

	c.mu.Lock()
	if err != nil {
		c.mu.Unlock()
		c.logger.ErrorContext(ctx, "Failed to subscribe to room", "event", "room_subscribe_failed", "room", room.ID, "error", err)
		werr := domain.E(domain.KindTransient, op, err, "Could not open "+room.Name+". Please try again.")
		c.fail(ctx, werr)
		return werr
	}
	if c.closed || gen != c.roomGen {
		c.mu.Unlock()
		sub.Cancel()
		return ErrClosed
	}

	c.s.Room = &room
	c.sub = sub
	c.publishLocked(ctx, EventState)
	c.mu.Unlock()

	go c.pump(sub)

	c.logger.InfoContext(ctx, "Joined room", "event", "room_joined", "room", room.ID)
	c.notify(ctx, domain.LevelSuccess, "Joined "+room.Name+".")
	return nil
}

// LeaveRoom releases the room subscription and clears the room, its
// messages and any summary.
func (c *Controller) LeaveRoom(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Room == nil {
		return
	}
	roomID := c.s.Room.ID
	c.releaseLocked()
	c.s.clearRoom()
	c.publishLocked(ctx, EventState)
	c.logger.InfoContext(ctx, "Left room", "event", "room_left", "room", roomID)
}

// Send appends text to the active room as the signed-in user. Blank text,
// no user or no room make it a no-op. The draft is cleared only after the
// store acknowledged the write and kept on failure.
func (c *Controller) Send(ctx context.Context, text string) error {
	const op = "chat.Send"

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if strings.TrimSpace(text) == "" || c.s.User == nil || c.s.Room == nil {
		c.mu.Unlock()
		return nil
	}
	c.s.Draft = text
	msg := domain.NewMessage{
		RoomID:         c.s.Room.ID,
		Text:           norm.NFC.String(strings.TrimSpace(text)),
		AuthorID:       c.s.User.ID,
		AuthorEmail:    c.s.User.Email,
		AuthorNickname: c.s.User.Nickname,
	}
	c.mu.Unlock()

	_, err := c.deps.Messages.Append(ctx, msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to send message", "event", "message_send_failed", "room", msg.RoomID, "error", err)
		werr := domain.E(domain.KindTransient, op, err, "Your message could not be sent. It is still in the composer.")
		c.fail(ctx, werr)
		return werr
	}

	c.mu.Lock()
	c.s.Draft = ""
	c.publishLocked(ctx, EventState)
	c.mu.Unlock()
	return nil
}

// RejectDraft keeps text in the composer and shows msg as an error banner.
// It is for composer input refused before it reaches Send.
func (c *Controller) RejectDraft(ctx context.Context, text, msg string) {
	c.mu.Lock()
	c.s.Draft = text
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "Message rejected", "event", "message_rejected", "length", utf8.RuneCountInString(text))
	c.notify(ctx, domain.LevelError, msg)
}

// Summarize summarizes the current message list and stores the result.
// It is not re-entrant: a second call while one is outstanding returns
// ErrSummaryInProgress. A result arriving after the room changed is dropped.
func (c *Controller) Summarize(ctx context.Context) error {
	msgs, gen, err := c.beginSummary(ctx)
	if err != nil {
		return err
	}
	return c.finishSummary(ctx, msgs, gen)
}

// StartSummary marks a summary as in flight and completes it in the
// background. Errors are only those of Summarize's precondition.
func (c *Controller) StartSummary(ctx context.Context) error {
	msgs, gen, err := c.beginSummary(ctx)
	if err != nil {
		return err
	}
	go func() {
		_ = c.finishSummary(context.WithoutCancel(ctx), msgs, gen)
	}()
	return nil
}

// DismissSummary hides the summary overlay.
func (c *Controller) DismissSummary(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Summary == "" {
		return
	}
	c.s.Summary = ""
	c.publishLocked(ctx, EventSummary)
}

// DismissNotification hides the banner with the given id if it is still shown.
func (c *Controller) DismissNotification(ctx context.Context, id string) {
	if !c.notifier.Dismiss(id) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked(ctx, EventNotification)
}

func (c *Controller) beginSummary(ctx context.Context) ([]domain.Message, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, 0, ErrClosed
	}
	if c.s.Summarizing {
		return nil, 0, ErrSummaryInProgress
	}
	c.s.Summarizing = true
	msgs := make([]domain.Message, len(c.s.Messages))
	copy(msgs, c.s.Messages)
	c.publishLocked(ctx, EventSummary)
	return msgs, c.roomGen, nil
}

func (c *Controller) finishSummary(ctx context.Context, msgs []domain.Message, gen uint64) error {
	text, err := c.deps.Summarizer.Summarize(ctx, msgs)

	c.mu.Lock()
	c.s.Summarizing = false
	if gen != c.roomGen {
		c.publishLocked(ctx, EventSummary)
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "Discarding summary for a room that is no longer active", "event", "summary_discarded")
		return nil
	}
	if err == nil {
		c.s.Summary = text
	}
	c.publishLocked(ctx, EventSummary)
	c.mu.Unlock()

	if err != nil {
		c.fail(ctx, err)
		return err
	}
	return nil
}

// pump applies snapshots from sub until it is cancelled.
func (c *Controller) pump(sub domain.Subscription) {
	for snap := range sub.Snapshots() {
		c.applySnapshot(sub, snap)
	}
}

func (c *Controller) applySnapshot(sub domain.Subscription, snap domain.Snapshot) {
	ctx := context.Background()

	c.mu.Lock()
	if c.sub != sub {
		c.mu.Unlock()
		return
	}
	if snap.Err != nil {
		c.mu.Unlock()
		c.logger.Warn("Room feed delivery failed", "event", "room_feed_error", "error", snap.Err)
		c.notify(ctx, domain.LevelError, "Live updates for this room failed. Showing the last received messages.")
		return
	}
	c.s.Messages = snap.Messages
	c.publishLocked(ctx, EventMessages)
	c.mu.Unlock()
}

// releaseLocked cancels the active room subscription, if any, and starts a
// new room generation so in-flight results for the old room are dropped.
func (c *Controller) releaseLocked() {
	c.roomGen++
	if c.sub == nil {
		return
	}
	c.sub.Cancel()
	c.sub = nil
}

// Close releases the subscription, the auth listener and the banner timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.releaseLocked()
	c.unsubscribe()
	c.notifier.Stop()
}

// fail shows the user-facing message of err as an error banner.
func (c *Controller) fail(ctx context.Context, err error) {
	c.notify(ctx, domain.LevelError, domain.UserMessage(err))
}

func (c *Controller) notify(ctx context.Context, level domain.Level, text string) {
	c.notifier.Show(level, text)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked(ctx, EventNotification)
}

func (c *Controller) snapshotLocked() Session {
	s := c.s.clone()
	s.Notification = c.notifier.Current()
	return s
}

func (c *Controller) publishLocked(ctx context.Context, typ EventType) {
	if c.deps.Bus == nil || c.closed {
		return
	}
	c.seq++
	ev := Event{Type: typ, Seq: c.seq, Session: c.snapshotLocked()}
	userID := ""
	if c.s.User != nil {
		userID = c.s.User.ID
	}
	if err := SessionEvents.Publish(ctx, c.deps.Bus, c.s.ID, userID, ev); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish session event", "event", "session_publish_failed", "type", typ, "error", err)
	}
}
