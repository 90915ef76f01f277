package store

import (
	"time"

	"github.com/noah-isme/persona-chat-api/internal/models"
)

// InitialVersion is stamped on a freshly created document.
const InitialVersion = "1.0.0"

// Document is the whole persisted tree.
type Document struct {
	Users                   []models.User                   `json:"users"`
	RefreshTokens           []models.RefreshToken           `json:"refreshTokens"`
	PasswordResetTokens     []models.PasswordResetToken     `json:"passwordResetTokens"`
	EmailVerificationTokens []models.EmailVerificationToken `json:"emailVerificationTokens"`
	Characters              []models.Character              `json:"characters"`
	Conversations           []models.Conversation           `json:"conversations"`
	Messages                []models.Message                `json:"messages"`
	Metadata                Metadata                        `json:"metadata"`
}

// Metadata records the schema version of the document.
type Metadata struct {
	Version       string    `json:"version"`
	LastMigration time.Time `json:"lastMigration"`
}

// NewDocument returns an empty document at the initial version.
func NewDocument(now time.Time) *Document {
	doc := &Document{Metadata: Metadata{Version: InitialVersion, LastMigration: now.UTC()}}
	doc.normalize()
	return doc
}

// clone copies the collections so a failed update can be rolled back.
// Records are values; pointer fields are only ever replaced, never written through.
func (d *Document) clone() *Document {
	cp := &Document{Metadata: d.Metadata}
	cp.Users = append(make([]models.User, 0, len(d.Users)), d.Users...)
	cp.RefreshTokens = append(make([]models.RefreshToken, 0, len(d.RefreshTokens)), d.RefreshTokens...)
	cp.PasswordResetTokens = append(make([]models.PasswordResetToken, 0, len(d.PasswordResetTokens)), d.PasswordResetTokens...)
	cp.EmailVerificationTokens = append(make([]models.EmailVerificationToken, 0, len(d.EmailVerificationTokens)), d.EmailVerificationTokens...)
	cp.Characters = append(make([]models.Character, 0, len(d.Characters)), d.Characters...)
	cp.Conversations = append(make([]models.Conversation, 0, len(d.Conversations)), d.Conversations...)
	cp.Messages = append(make([]models.Message, 0, len(d.Messages)), d.Messages...)
	return cp
}

// normalize replaces nil collections so the file always carries arrays.
func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = []models.User{}
	}
	if d.RefreshTokens == nil {
		d.RefreshTokens = []models.RefreshToken{}
	}
	if d.PasswordResetTokens == nil {
		d.PasswordResetTokens = []models.PasswordResetToken{}
	}
	if d.EmailVerificationTokens == nil {
		d.EmailVerificationTokens = []models.EmailVerificationToken{}
	}
	if d.Characters == nil {
		d.Characters = []models.Character{}
	}
	if d.Conversations == nil {
		d.Conversations = []models.Conversation{}
	}
	if d.Messages == nil {
		d.Messages = []models.Message{}
	}
	if d.Metadata.Version == "" {
		d.Metadata.Version = InitialVersion
	}
}

// UserIndex returns the position of the user with id, or -1.
func (d *Document) UserIndex(id string) int {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return i
		}
	}
	return -1
}

// ActiveUserIndexByEmail returns the position of the active user with the
// normalized email, or -1.
func (d *Document) ActiveUserIndexByEmail(email string) int {
	key := models.NormalizeEmail(email)
	for i := range d.Users {
		if d.Users[i].IsActive && models.NormalizeEmail(d.Users[i].Email) == key {
			return i
		}
	}
	return -1
}

// CharacterIndex returns the position of the character with id, or -1.
func (d *Document) CharacterIndex(id string) int {
	for i := range d.Characters {
		if d.Characters[i].ID == id {
			return i
		}
	}
	return -1
}

// ConversationIndex returns the position of the conversation with id owned by
// userID, or -1.
func (d *Document) ConversationIndex(id, userID string) int {
	for i := range d.Conversations {
		if d.Conversations[i].ID == id && d.Conversations[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Stats summarises the document.
type Stats struct {
	Users                   int       `json:"users"`
	ActiveUsers             int       `json:"activeUsers"`
	VerifiedUsers           int       `json:"verifiedUsers"`
	LockedUsers             int       `json:"lockedUsers"`
	RefreshTokens           int       `json:"refreshTokens"`
	ActiveRefreshTokens     int       `json:"activeRefreshTokens"`
	PasswordResetTokens     int       `json:"passwordResetTokens"`
	EmailVerificationTokens int       `json:"emailVerificationTokens"`
	Characters              int       `json:"characters"`
	CustomCharacters        int       `json:"customCharacters"`
	Conversations           int       `json:"conversations"`
	Messages                int       `json:"messages"`
	Version                 string    `json:"version"`
	LastMigration           time.Time `json:"lastMigration"`
}

// Stats counts records as of now.
func (d *Document) Stats(now time.Time) Stats {
	st := Stats{
		Users:                   len(d.Users),
		RefreshTokens:           len(d.RefreshTokens),
		PasswordResetTokens:     len(d.PasswordResetTokens),
		EmailVerificationTokens: len(d.EmailVerificationTokens),
		Characters:              len(d.Characters),
		Conversations:           len(d.Conversations),
		Messages:                len(d.Messages),
		Version:                 d.Metadata.Version,
		LastMigration:           d.Metadata.LastMigration,
	}
	for _, u := range d.Users {
		if !u.IsActive {
			continue
		}
		st.ActiveUsers++
		if u.EmailVerified {
			st.VerifiedUsers++
		}
		if u.Security.Locked(now) {
			st.LockedUsers++
		}
	}
	for _, c := range d.Characters {
		if !c.IsDefault {
			st.CustomCharacters++
		}
	}
	for _, t := range d.RefreshTokens {
		if !t.IsRevoked && !t.Expired(now) {
			st.ActiveRefreshTokens++
		}
	}
	return st
}
