package books

import (
	"net/http"
	"strconv"

	"github.com/keenpages/catalog/pkg/auth"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/keenpages/catalog/pkg/topics"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	bookService  *Service
	topicService *topics.Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID:       &id,
		Populate: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.IncrementViews(ctx, book.ID); err != nil {
		logger.FromContext(ctx).Err(err).Warn("could not count view", logger.Data{"book_id": book.ID})
	} else {
		book.Views++
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) addTopics(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthenticated()
	}

	params := AddTopicsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	drafts := make([]*models.Topic, 0, len(params.Topics))
	for _, t := range params.Topics {
		drafts = append(drafts, &models.Topic{Name: t.Name, Description: t.Description})
	}
	resolved, err := h.topicService.EnsureTopics(ctx, drafts)
	if err != nil {
		return errcodes.Persistence("Server error saving topics for this book.", err, nil)
	}

	added, err := h.bookService.AddTopics(ctx, book.ID, resolved, user.ID)
	if err != nil {
		return errcodes.Persistence("Server error saving topics for this book.", err, nil)
	}

	populated, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID, Populate: true})
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("could not populate book", logger.Data{"book_id": book.ID})
		return errors.WithStack(c.JSON(http.StatusOK, book))
	}
	logger.FromContext(ctx).Info("topics added to book", logger.Data{"book_id": book.ID, "added": added})

	return errors.WithStack(c.JSON(http.StatusOK, populated))
}

func (h *handler) toggleAgreement(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}
	topicID, err := strconv.Atoi(c.Param("topicId"))
	if err != nil {
		return errcodes.NotFound("Topic")
	}
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthenticated()
	}

	if _, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id}); err != nil {
		return errors.WithStack(err)
	}

	bt, err := h.bookService.ToggleAgreement(ctx, id, topicID, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, bt))
}

func (h *handler) toggleLike(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthenticated()
	}

	book, err := h.bookService.ToggleLike(ctx, id, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}
