package topics

import (
	"net/http"
	"strconv"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	topicService *Service
	creator      *Creator
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateTopicPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	topic, err := h.creator.Create(ctx, params.Name, params.Description)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, topic))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Topic")
	}

	topic, err := h.topicService.RetrieveTopic(ctx, RetrieveTopicOptions{
		ID:          &id,
		WithSimilar: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, topic))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListTopicsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	topics, total, err := h.topicService.ListTopicsWithTotal(ctx, ListTopicsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"topics": topics,
		"total":  total,
	}))
}
