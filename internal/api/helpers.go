package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/cubetile/internal/target"
	"github.com/samcharles93/cubetile/internal/tiling"
)

func writeBadRequest(c *echo.Context, param, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writePlanError maps planner and registry errors onto HTTP statuses.
func writePlanError(c *echo.Context, err error) error {
	var (
		invalid invalidRequestError
		terr    *tiling.Error
	)
	switch {
	case errors.As(err, &invalid):
		return writeBadRequest(c, invalid.param, invalid.msg)
	case errors.Is(err, target.ErrUnknownTarget):
		return writeBadRequest(c, "target", err.Error())
	case errors.Is(err, tiling.ErrInvalidInput):
		return writeBadRequest(c, "problem", err.Error())
	case errors.Is(err, tiling.ErrUnreachable):
		code := ""
		if errors.As(err, &terr) {
			code = terr.Stage
		}
		return writeError(c, http.StatusUnprocessableEntity, "unreachable_tiling_error", err.Error(), "", code)
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode request: %w", err)
	}
	return out, nil
}

func newTilingID() string {
	return "tiling_" + uuid.NewString()
}
