package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/san-kum/hertz/internal/session"
)

type errorBody struct {
	Error string `json:"error"`
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, errorBody{Error: msg})
}

// handleError renders errors that escape a handler (routing, body limit,
// panics) in the same {error} shape the handlers use.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = fail(c, code, msg)
	}
	if err != nil {
		s.logger.Sugar().Warnw("write error response", "error", err)
	}
}

var errBadBody = errors.New("invalid request body")

// decode reads a single JSON value into v; anything after it but
// whitespace is rejected. Oversized bodies keep their 413.
func decode(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(v); err != nil {
		return bodyError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data after JSON value")
		}
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return fmt.Errorf("%w: %v", errBadBody, err)
}

// badBody answers a decode failure.
func badBody(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return fail(c, http.StatusBadRequest, errBadBody.Error())
}

// resolveSession builds the caller's session context from the body id,
// falling back to the header.
func resolveSession(c echo.Context, id, lang string) (session.Context, error) {
	if id == "" {
		id = c.Request().Header.Get(session.Header)
	}
	return session.New(id, lang)
}

// sessionFailure answers a resolveSession error: bad ids are 401, bad
// languages 400.
func sessionFailure(c echo.Context, err error) error {
	if errors.Is(err, session.ErrInvalidLanguage) {
		return fail(c, http.StatusBadRequest, "unsupported language")
	}
	return fail(c, http.StatusUnauthorized, "invalid session")
}
