package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Topic struct {
	bun.BaseModel `bun:"table:topics,alias:t"`

	ID          int             `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Name        string          `bun:",nullzero" json:"name"`
	Description string          `bun:",nullzero" json:"description,omitempty"`
	Active      bool            `json:"active"`
	Similar     []*TopicSimilar `bun:"rel:has-many,join:id=topic_id" json:"similar,omitempty"`
}

type TopicSimilar struct {
	bun.BaseModel `bun:"table:topic_similar,alias:ts"`

	ID        int    `bun:",pk,nullzero" json:"-"`
	TopicID   int    `bun:",nullzero" json:"-"`
	SimilarID int    `bun:",nullzero" json:"similar_id"`
	Similar   *Topic `bun:"rel:belongs-to,join:similar_id=id" json:"topic,omitempty"`
}
