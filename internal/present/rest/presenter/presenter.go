package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.Info("Bad request", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.Info("Bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	slog.Info("Unauthorized", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	slog.Info("Not found", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func logInternal(c echo.Context, err error) {
	ctx := c.Request().Context()
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("path", c.Path()),
		slog.String("module", "rest"),
	}
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.HasTraceID() {
		attrs = append(attrs, slog.String("traceID", spanCtx.TraceID().String()))
	}
	slog.ErrorContext(ctx, "Internal error", attrs...)
}

func InternalError(c echo.Context, err error) error {
	logInternal(c, err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// InternalErrorMessage logs err but only shows msg to the client.
func InternalErrorMessage(c echo.Context, err error, msg string) error {
	logInternal(c, err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
}
