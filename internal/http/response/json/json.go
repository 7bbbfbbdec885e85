// Package json provides JSON response helpers for the REST API.
package json // import "jobwatch.app/internal/http/response/json"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"jobwatch.app/internal/http/request"
	"jobwatch.app/internal/http/response"
	"jobwatch.app/internal/logging"
)

const contentTypeHeader = `application/json`

// OK creates a new JSON response with a 200 status code.
func OK(w http.ResponseWriter, r *http.Request, body any) {
	withBody(w, r, http.StatusOK, body)
}

// Created sends a created response to the client.
func Created(w http.ResponseWriter, r *http.Request, body any) {
	withBody(w, r, http.StatusCreated, body)
}

func withBody(w http.ResponseWriter, r *http.Request, statusCode int,
	body any,
) {
	responseBody, err := json.Marshal(body)
	if err != nil {
		ServerError(w, r, err)
		return
	}

	response.New(w, r).
		WithStatus(statusCode).
		WithHeader("Content-Type", contentTypeHeader).
		WithBody(responseBody).
		Write()
}

// NoContent sends a no content response to the client.
func NoContent(w http.ResponseWriter, r *http.Request) {
	response.New(w, r).
		WithStatus(http.StatusNoContent).
		WithHeader("Content-Type", contentTypeHeader).
		Write()
}

// Accepted sends an accepted response to the client.
func Accepted(w http.ResponseWriter, r *http.Request) {
	response.New(w, r).
		WithStatus(http.StatusAccepted).
		WithHeader("Content-Type", contentTypeHeader).
		Write()
}

// ServerError sends an internal error to the client.
func ServerError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context()).With(
		slog.Any("error", err),
		slog.String("client_ip", request.ClientIP(r)),
		slog.Group("request",
			slog.String("method", r.Method),
			slog.String("uri", r.RequestURI),
			slog.String("user_agent", r.UserAgent())))

	clientClosed := errors.Is(err, context.Canceled) &&
		errors.Is(r.Context().Err(), context.Canceled)
	if clientClosed {
		statusCode := 499
		log.Debug("client closed request",
			slog.Group("response", slog.Int("status_code", statusCode)))
		http.Error(w, err.Error(), statusCode)
		return
	}

	statusCode := http.StatusInternalServerError
	log.Error(http.StatusText(statusCode),
		slog.Group("response", slog.Int("status_code", statusCode)))
	writeError(w, r, statusCode, err)
}

// BadRequest sends a bad request error to the client.
func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	warn(r, http.StatusBadRequest, err)
	writeError(w, r, http.StatusBadRequest, err)
}

// Unauthorized sends a not authorized error to the client.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	warn(r, http.StatusUnauthorized, nil)
	writeError(w, r, http.StatusUnauthorized,
		errors.New("access unauthorized"))
}

// Forbidden sends a forbidden error to the client.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	warn(r, http.StatusForbidden, nil)
	writeError(w, r, http.StatusForbidden, errors.New("access forbidden"))
}

// NotFound sends a resource not found error to the client.
func NotFound(w http.ResponseWriter, r *http.Request) {
	warn(r, http.StatusNotFound, nil)
	writeError(w, r, http.StatusNotFound, errors.New("resource not found"))
}

// Conflict sends a conflict error to the client.
func Conflict(w http.ResponseWriter, r *http.Request, err error) {
	warn(r, http.StatusConflict, err)
	writeError(w, r, http.StatusConflict, err)
}

func warn(r *http.Request, statusCode int, err error) {
	attrs := []any{
		slog.String("client_ip", request.ClientIP(r)),
		slog.Group("request",
			slog.String("method", r.Method),
			slog.String("uri", r.RequestURI),
			slog.String("user_agent", r.UserAgent())),
		slog.Group("response", slog.Int("status_code", statusCode)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	logging.FromContext(r.Context()).Warn(http.StatusText(statusCode),
		attrs...)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int,
	err error,
) {
	body, jsonErr := generateJSONError(err)
	if jsonErr != nil {
		logging.FromContext(r.Context()).Error("Unable to generate JSON error",
			slog.Any("error", jsonErr))
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}

	response.New(w, r).
		WithStatus(statusCode).
		WithHeader("Content-Type", contentTypeHeader).
		WithBody(body).
		Write()
}

func generateJSONError(err error) ([]byte, error) {
	type errorMsg struct {
		ErrorMessage string `json:"error_message"`
	}
	encodedBody, err := json.Marshal(errorMsg{ErrorMessage: err.Error()})
	if err != nil {
		return nil, fmt.Errorf(
			"http/response/json: failed marshal error message: %w", err)
	}
	return encodedBody, nil
}
