// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the error-stage chain. Gin has no notion of error
// handlers, so error stages are registered explicitly:
//
//	r.Use(middleware.ErrorHandlers(
//	    handlers.ClassifiedErrorHandler(lg),
//	    handlers.FallbackErrorHandler(lg, handlers.FallbackOptions{}),
//	))
//
// Handlers report failures with c.Error(err) + c.Abort() and never write an
// error body themselves. After the downstream chain returns, the last recorded
// error enters stage 0. A stage either writes a response (terminating the
// chain) or calls next(err) to forward to the following stage. If every stage
// forwards, a bare 500 is written so no request ends without an answer.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorStage handles an error recorded during a request. Calling next passes
// the (possibly replaced) error to the next registered stage.
type ErrorStage func(err error, c *gin.Context, next func(error))

// ErrorHandlers returns a middleware that runs stages, in registration order,
// on the last error recorded in c.Errors. Requests that already wrote a
// response are left alone.
func ErrorHandlers(stages ...ErrorStage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		runStage(stages, 0, last.Err, c)

		if !c.Writer.Written() {
			c.AbortWithStatus(http.StatusInternalServerError)
		}
	}
}

func runStage(stages []ErrorStage, i int, err error, c *gin.Context) {
	if i >= len(stages) || c.Writer.Written() {
		return
	}
	stages[i](err, c, func(next error) {
		runStage(stages, i+1, next, c)
	})
}
