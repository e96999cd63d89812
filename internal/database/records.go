package database

import (
	"fmt"

	"github.com/nfrund/roomchat/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const (
	userTable    = "user"
	profileTable = "profile"
	messageTable = "message"
)

type identityRecord struct {
	ID    *surrealmodels.RecordID `json:"id,omitempty"`
	Email string                  `json:"email"`
}

func (r *identityRecord) toDomain() *domain.Identity {
	return &domain.Identity{ID: recordIDString(r.ID), Email: r.Email}
}

type profileRecord struct {
	ID       *surrealmodels.RecordID `json:"id,omitempty"`
	UserID   string                  `json:"user"`
	Nickname string                  `json:"nickname"`
}

type messageRecord struct {
	ID             *surrealmodels.RecordID       `json:"id,omitempty"`
	Room           string                        `json:"room"`
	Text           string                        `json:"text"`
	AuthorID       string                        `json:"authorId"`
	AuthorEmail    string                        `json:"authorEmail"`
	AuthorNickname string                        `json:"authorNickname"`
	CreatedAt      *surrealmodels.CustomDateTime `json:"createdAt,omitempty"`
}

func (r *messageRecord) toDomain() domain.Message {
	m := domain.Message{
		ID:             recordIDString(r.ID),
		RoomID:         r.Room,
		Text:           r.Text,
		AuthorID:       r.AuthorID,
		AuthorEmail:    r.AuthorEmail,
		AuthorNickname: r.AuthorNickname,
	}
	if r.CreatedAt != nil {
		m.CreatedAt = r.CreatedAt.Time
	}
	return domain.NormalizeMessage(m)
}

func recordIDString(id *surrealmodels.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%s:%v", id.Table, id.ID)
}
