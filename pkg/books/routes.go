package books

import (
	"github.com/keenpages/catalog/pkg/auth"
	"github.com/keenpages/catalog/pkg/topics"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// Ingestion routes live with the pipeline and share the same group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		bookService:  NewService(db),
		topicService: topics.NewService(db),
	}

	g.GET("/:id", h.retrieve)
	g.POST("/:id/topics", h.addTopics, authMiddleware.Authenticate)
	g.POST("/:id/topics/:topicId/agree", h.toggleAgreement, authMiddleware.Authenticate)
	g.POST("/:id/like", h.toggleLike, authMiddleware.Authenticate)
}
