// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by all endpoints. Handlers
// never write error bodies themselves: fail() records the error on the Gin
// context and aborts, and the error stages registered on the router produce
// the envelope and the log line. That keeps one error policy for handlers,
// router fallbacks and recovered panics alike.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// fail records err for the error stages and stops the handler chain. Errors
// without their own stack get one captured here, so the fallback trace points
// at the failing handler.
func fail(c *gin.Context, err error) {
	if _, ok := err.(stackTracer); !ok && err != nil {
		err = pkgerrors.WithStack(err)
	}
	_ = c.Error(err)
	c.Abort()
}

// Fail is the exported variant of fail(), used by router-level fallbacks.
func Fail(c *gin.Context, err error) { fail(c, err) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
