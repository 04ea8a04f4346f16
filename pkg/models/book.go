package models

import (
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID             int               `bun:",pk,nullzero" json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	GID            string            `bun:"g_id,nullzero" json:"g_id,omitempty"`
	GTag           string            `bun:"g_tag,nullzero" json:"g_tag,omitempty"`
	Title          string            `bun:",nullzero" json:"title"`
	ISBN           string            `bun:"isbn,nullzero" json:"isbn,omitempty"`
	ISBN10         string            `bun:"isbn10,nullzero" json:"isbn10,omitempty"`
	ISBN13         string            `bun:"isbn13,nullzero" json:"isbn13,omitempty"`
	AmazonLink     string            `bun:",nullzero" json:"amazon_link,omitempty"`
	Description    string            `bun:",nullzero" json:"description,omitempty"`
	Active         bool              `json:"active"`
	Views          int               `json:"views"`
	Likes          []int             `json:"likes"`
	CreatedByID    *int              `json:"created_by_id,omitempty"`
	Authors        []*BookAuthor     `bun:"rel:has-many,join:id=book_id" json:"authors"`
	Topics         []*BookTopic      `bun:"rel:has-many,join:id=book_id" json:"topics"`
	Pictures       []*Picture        `bun:"rel:has-many,join:id=book_id" json:"pictures"`
	ThirdPartyData []*ThirdPartyData `bun:"rel:has-many,join:id=book_id" json:"third_party_data"`
}

// ToggleLike adds the user to the likes, or removes them if they already
// liked the book. It reports whether the user likes the book afterwards.
func (b *Book) ToggleLike(userID int) bool {
	var liked bool
	b.Likes, liked = toggle(b.Likes, userID)
	return liked
}

type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	ID        int     `bun:",pk,nullzero" json:"-"`
	BookID    int     `bun:",nullzero" json:"book_id"`
	AuthorID  int     `bun:",nullzero" json:"author_id"`
	Author    *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	SortOrder int     `json:"sort_order"`
}

// BookTopic ties a shared topic to a book together with the set of users who
// agreed the topic applies.
type BookTopic struct {
	bun.BaseModel `bun:"table:book_topics,alias:bt"`

	ID        int    `bun:",pk,nullzero" json:"id"`
	BookID    int    `bun:",nullzero" json:"book_id"`
	TopicID   int    `bun:",nullzero" json:"topic_id"`
	Topic     *Topic `bun:"rel:belongs-to,join:topic_id=id" json:"topic,omitempty"`
	Agreed    []int  `json:"agreed"`
	SortOrder int    `json:"sort_order"`
}

func (bt *BookTopic) HasAgreed(userID int) bool {
	for _, id := range bt.Agreed {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleAgreement adds the user to the agreement set, or removes them if they
// were already in it. It reports whether the user is in the set afterwards.
func (bt *BookTopic) ToggleAgreement(userID int) bool {
	var agreed bool
	bt.Agreed, agreed = toggle(bt.Agreed, userID)
	return agreed
}

func toggle(set []int, id int) ([]int, bool) {
	out := make([]int, 0, len(set)+1)
	found := false
	for _, v := range set {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out, !found
}

type Picture struct {
	bun.BaseModel `bun:"table:book_pictures,alias:bp"`

	ID        int    `bun:",pk,nullzero" json:"-"`
	BookID    int    `bun:",nullzero" json:"-"`
	Link      string `bun:",nullzero" json:"link"`
	PublicID  string `bun:",nullzero" json:"public_id,omitempty"`
	IsDefault bool   `json:"default"`
	SortOrder int    `json:"-"`
}

// ThirdPartyData is a provider payload captured when the book was created. It
// is never updated afterwards.
type ThirdPartyData struct {
	bun.BaseModel `bun:"table:book_third_party_data,alias:tpd"`

	ID        int             `bun:",pk,nullzero" json:"-"`
	BookID    int             `bun:",nullzero" json:"-"`
	Provider  string          `bun:",nullzero" json:"provider"`
	Payload   json.RawMessage `bun:"type:text" json:"payload"`
	SortOrder int             `json:"-"`
}
