package topics

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers topic routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, lexicon Lexicon) {
	topicService := NewService(db)

	h := &handler{
		topicService: topicService,
		creator:      NewCreator(topicService, lexicon),
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
}
