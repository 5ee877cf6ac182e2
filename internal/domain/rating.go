package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	RatingTextMaxLength = 300
	MinNote             = 1
	MaxNote             = 10
)

// Rating is a user's tasting notes for one beer, optionally scoped to a room.
// Within a room there is at most one rating per (author, beer).
type Rating struct {
	ID          uint      `gorm:"primaryKey"`
	AddedByID   *uint     `gorm:"uniqueIndex:idx_rating_scope"`
	AddedBy     *User     `gorm:"constraint:OnDelete:SET NULL"`
	BeerID      uint      `gorm:"uniqueIndex:idx_rating_scope;not null"`
	Beer        *Beer     `gorm:"constraint:OnDelete:CASCADE"`
	RoomID      *uint     `gorm:"uniqueIndex:idx_rating_scope"`
	Room        *Room     `gorm:"constraint:OnDelete:SET NULL"`
	PurchaseID  *uint     `gorm:"index"`
	Color       *string   `gorm:"type:varchar(300)"`
	Foam        *string   `gorm:"type:varchar(300)"`
	Smell       *string   `gorm:"type:varchar(300)"`
	Taste       *string   `gorm:"type:varchar(300)"`
	Opinion     *string   `gorm:"type:varchar(300)"`
	Note        *int      `gorm:"check:note IS NULL OR (note >= 1 AND note <= 10)"`
	IsPublished bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// RatingKey identifies the single room-scoped rating of a user for a beer.
type RatingKey struct {
	UserID uint
	BeerID uint
	RoomID uint
}

// IsAuthor reports whether userID wrote the rating.
func (r *Rating) IsAuthor(userID uint) bool {
	return r.AddedByID != nil && *r.AddedByID == userID
}

// RatingView is the wire form of a rating. Text notes are never null.
type RatingView struct {
	ID          uint      `json:"id"`
	Beer        uint      `json:"beer"`
	Room        *uint     `json:"room"`
	AddedBy     *uint     `json:"added_by"`
	Purchase    *uint     `json:"purchased_beer"`
	Color       string    `json:"color"`
	Foam        string    `json:"foam"`
	Smell       string    `json:"smell"`
	Taste       string    `json:"taste"`
	Opinion     string    `json:"opinion"`
	Note        *int      `json:"note"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Rating) View() RatingView {
	return RatingView{
		ID:          r.ID,
		Beer:        r.BeerID,
		Room:        r.RoomID,
		AddedBy:     r.AddedByID,
		Purchase:    r.PurchaseID,
		Color:       blank(r.Color),
		Foam:        blank(r.Foam),
		Smell:       blank(r.Smell),
		Taste:       blank(r.Taste),
		Opinion:     blank(r.Opinion),
		Note:        r.Note,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func blank(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RatingPatch is a partial update. A nil text pointer leaves the field as is.
type RatingPatch struct {
	Color       *string
	Foam        *string
	Smell       *string
	Taste       *string
	Opinion     *string
	NoteSet     bool
	Note        *int
	IsPublished *bool

	// NoteInvalid is set when "note" was present but could not be read as 1..10.
	// Note is nil in that case.
	NoteInvalid bool
}

// ParseRatingPatch reads a form payload. Unknown keys such as "beer_id" are
// ignored. Text notes are truncated to RatingTextMaxLength runes; a JSON null
// clears them.
func ParseRatingPatch(raw json.RawMessage) (RatingPatch, error) {
	var p RatingPatch
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p, fmt.Errorf("rating form must be an object: %w", err)
	}

	texts := map[string]**string{
		"color":   &p.Color,
		"foam":    &p.Foam,
		"smell":   &p.Smell,
		"taste":   &p.Taste,
		"opinion": &p.Opinion,
	}
	for key, dst := range texts {
		v, ok := fields[key]
		if !ok {
			continue
		}
		s := textValue(v)
		*dst = &s
	}

	if v, ok := fields["note"]; ok {
		p.NoteSet = true
		p.Note, p.NoteInvalid = CoerceNote(v)
	}
	if v, ok := fields["is_published"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			p.IsPublished = &b
		}
	}
	return p, nil
}

func textValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		// numbers and other scalars are kept in their literal form
		if string(v) == "null" {
			return ""
		}
		s = string(v)
	}
	return truncateRunes(s, RatingTextMaxLength)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// CoerceNote reads a note sent as a number or a numeric string. Empty and null
// values clear the note. Anything else, or a value outside 1..10, yields nil
// with invalid set.
func CoerceNote(v json.RawMessage) (note *int, invalid bool) {
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return nil, true
	}
	var n int
	switch t := x.(type) {
	case nil:
		return nil, false
	case float64:
		if t != math.Trunc(t) {
			return nil, true
		}
		n = int(t)
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, false
		}
		parsed, err := strconv.Atoi(t)
		if err != nil {
			return nil, true
		}
		n = parsed
	default:
		return nil, true
	}
	if n < MinNote || n > MaxNote {
		return nil, true
	}
	return &n, false
}

// Apply writes the patch onto r. Empty text is stored as NULL.
func (p RatingPatch) Apply(r *Rating) {
	set := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			*dst = nil
			return
		}
		s := *v
		*dst = &s
	}
	set(&r.Color, p.Color)
	set(&r.Foam, p.Foam)
	set(&r.Smell, p.Smell)
	set(&r.Taste, p.Taste)
	set(&r.Opinion, p.Opinion)
	if p.NoteSet {
		r.Note = p.Note
	}
	if p.IsPublished != nil {
		r.IsPublished = *p.IsPublished
	}
}
