package rest

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/feed"
	"github.com/sentrycore/site/internal/present/rest/middleware"
	"github.com/sentrycore/site/internal/present/rest/presenter"
	"github.com/sentrycore/site/internal/usecase"
)

type Handler struct {
	config     domain.Config
	record     *usecase.RecordUsecase
	contact    *usecase.ContactUsecase
	subscriber *feed.Subscriber
	auth       *middleware.AuthMiddleware
	limiter    echo.MiddlewareFunc
}

// NewHandler wires the HTTP surface. subscriber may be nil when no change
// feed is configured; realtime sessions then stay on their first snapshot.
func NewHandler(
	config domain.Config,
	record *usecase.RecordUsecase,
	contact *usecase.ContactUsecase,
	subscriber *feed.Subscriber,
	auth *middleware.AuthMiddleware,
	limiter echo.MiddlewareFunc,
) *Handler {
	return &Handler{
		config:     config,
		record:     record,
		contact:    contact,
		subscriber: subscriber,
		auth:       auth,
		limiter:    limiter,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/blogs", h.handleList(domain.KindPost))
	e.GET("/api/v1/blogs/:id", h.handleGet(domain.KindPost, "Blog not found"))
	e.GET("/api/v1/publications", h.handleList(domain.KindPublication))
	e.GET("/api/v1/publications/:id", h.handleGet(domain.KindPublication, "Publication not found"))
	e.GET("/api/v1/solutions", h.handleSolutions)

	contactMiddleware := []echo.MiddlewareFunc{}
	if h.limiter != nil {
		contactMiddleware = append(contactMiddleware, h.limiter)
	}
	e.POST("/api/v1/contact", h.handleContact, contactMiddleware...)

	e.GET("/realtime/:table", h.handleRealtimeList)
	e.GET("/realtime/blogs/:id", h.handleRealtimeBlog)

	admin := e.Group("/api/v1/admin", h.auth.IdentifyEditor, h.auth.RequireEditor)
	admin.POST("/:table", h.handleAdminCreate)
	admin.PUT("/:table/:id", h.handleAdminUpdate)
	admin.DELETE("/:table/:id", h.handleAdminDelete)
}

func (h *Handler) handleList(kind domain.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		page := 1
		pageStr := c.QueryParam("page")
		if pageStr != "" {
			parsed, err := strconv.Atoi(pageStr)
			if err != nil || parsed < 1 {
				return presenter.BadRequestMessage(c, "invalid page parameter")
			}
			page = parsed
		}

		result, err := h.record.Browse(ctx, kind, c.QueryParam("q"), c.QueryParam("category"), page)
		if err != nil {
			return presenter.InternalError(c, err)
		}
		return presenter.OK(c, result)
	}
}

func (h *Handler) handleGet(kind domain.Kind, notFound string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		rec, err := h.record.Get(ctx, kind, c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return presenter.NotFound(c, notFound)
			}
			return presenter.InternalError(c, err)
		}
		return presenter.OK(c, rec)
	}
}

func (h *Handler) handleSolutions(c echo.Context) error {
	ctx := c.Request().Context()

	options, err := h.contact.ServiceOptions(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"options": options})
}

func (h *Handler) handleContact(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.ContactInput
	err := c.Bind(&input)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	err = h.contact.Submit(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		var submitErr *usecase.SubmitError
		if errors.As(err, &submitErr) {
			return presenter.InternalErrorMessage(c, submitErr.Unwrap(), usecase.MessageSubmitFailed)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok", "message": usecase.MessageSubmitSucceeded})
}

func (h *Handler) adminKind(c echo.Context) (domain.Kind, bool) {
	return domain.KindOfTable(c.Param("table"))
}

func (h *Handler) handleAdminCreate(c echo.Context) error {
	ctx := c.Request().Context()

	kind, ok := h.adminKind(c)
	if !ok {
		return presenter.NotFound(c, "unknown table")
	}

	var input usecase.RecordInput
	err := c.Bind(&input)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	rec, err := h.record.Create(ctx, kind, input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Created(c, rec)
}

func (h *Handler) handleAdminUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	kind, ok := h.adminKind(c)
	if !ok {
		return presenter.NotFound(c, "unknown table")
	}

	var input usecase.RecordInput
	err := c.Bind(&input)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	rec, err := h.record.Update(ctx, kind, c.Param("id"), input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "record not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, rec)
}

func (h *Handler) handleAdminDelete(c echo.Context) error {
	ctx := c.Request().Context()

	kind, ok := h.adminKind(c)
	if !ok {
		return presenter.NotFound(c, "unknown table")
	}

	err := h.record.Delete(ctx, kind, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "record not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}
