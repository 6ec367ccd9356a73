package model

import "time"

// Profile is the account entity that owns a friend list.
//
// A profile can be anchored two ways, and both fields are optional:
//
//   - UserID — the web login that owns it (empty for "shadow" profiles that
//     were created from chat interaction before the person ever registered)
//   - ChatID — the Telegram account attached to it (zero when no chat has
//     been linked yet)
//
// WHY OPTIONAL FIELDS INSTEAD OF TWO TYPES?
// A "web profile" and a "bot profile" are the same entity at different
// completion stages. Modelling them as one struct with two independent
// optional anchors means linking is just filling in the missing field — no
// type conversion, no data copying between "kinds" of profile. The one rule
// is that a profile is never created with BOTH anchors absent.
//
// LinkCode is the short one-time token a web user hands to the bot to claim
// their chat identity. It is unique store-wide and regenerable. ChatID is
// also unique store-wide — at most one profile holds a given chat account
// at any time. Both constraints live in the database as unique indexes, not
// in application code, so concurrent creations can't race past them.
type Profile struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"` // empty → shadow profile
	ChatID    int64     `json:"chatId"    db:"chat_id"` // zero → no chat attached
	LinkCode  string    `json:"linkCode"  db:"link_code"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsShadow reports whether the profile has no web login behind it.
func (p *Profile) IsShadow() bool {
	return p.UserID == ""
}

// HasChat reports whether a chat identity is currently attached.
func (p *Profile) HasChat() bool {
	return p.ChatID != 0
}
