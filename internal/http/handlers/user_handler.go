// User HTTP handlers.
//
// This file exposes REST endpoints for the users registry:
//   - POST   /users        (create)
//   - GET    /users        (list, paginated, ETag support)
//   - GET    /users/{id}   (fetch)
//   - DELETE /users/{id}   (delete; X-User-ID must be an admin or the user)
//
// Handlers are transport-thin: they bind input, call the service and write
// success responses. Every failure goes through fail(), so the response
// envelope and the log line come from the error stages.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/tbourn/go-rest-errors/internal/apierr"
	"github.com/tbourn/go-rest-errors/internal/domain"
	"github.com/tbourn/go-rest-errors/internal/repo"
	"github.com/tbourn/go-rest-errors/internal/services"
	"github.com/tbourn/go-rest-errors/internal/utils"
)

// HeaderUserID carries the acting user's ID.
const HeaderUserID = "X-User-ID"

// UserService defines the registry operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must return apierr
// values for every expected failure.
type UserService interface {
	Create(ctx context.Context, in services.CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	Delete(ctx context.Context, actorID, id string) error
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	userSvc UserService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(userSvc UserService) *Handlers {
	return &Handlers{userSvc: userSvc}
}

// UseJSONFieldNames makes gin's validator report fields by their json names,
// so error_details paths match the request body.
func UseJSONFieldNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(apierr.JSONTagName)
	}
}

// actorID returns the acting user from the context (set by upstream auth) or
// the X-User-ID header. Empty when neither is present.
func actorID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		return strings.TrimSpace(c.GetHeader(HeaderUserID))
	}
	return ""
}

//
// DTOs
//

// CreateUserRequest is the JSON payload for creating a user.
type CreateUserRequest struct {
	Email string `json:"email" binding:"required,email"                example:"ada@example.com"`
	Name  string `json:"name"  binding:"required,max=100"              example:"Ada Lovelace"`
	Role  string `json:"role"  binding:"omitempty,oneof=member admin" example:"member"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListUsersResponse wraps a page of users and pagination information.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

//
// Handlers
//

// CreateUser godoc
// @ID          createUser
// @Summary     Register a user
// @Description Creates a user. Field problems are reported in error_details.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateUserRequest  true  "Create user payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  apierr.Body  "Validation failed or email_taken"
// @Failure     500  {object}  apierr.Body  "Internal error"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.FromBindingError(err))
		return
	}

	u, err := h.userSvc.Create(c.Request.Context(), services.CreateUserInput{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+u.ID)
	ok(c, http.StatusCreated, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Description Returns a page of users. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Users
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListUsersResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} apierr.Body "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.userSvc.(*services.UserService); ok {
		db = svc.DB
	}
	if db != nil {
		if snap, err := repo.UsersStats(ctx, db); err == nil {
			etag := fmt.Sprintf(`W/"users:%d:%d:%d:%d"`, snap.Count, snap.Version(), page, pageSize)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.userSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListUsersResponse{
		Users: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetUser godoc
// @ID          getUser
// @Summary     Fetch a user
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.User
// @Failure     400  {object} apierr.Body "id is not a UUID"
// @Failure     404  {object} apierr.Body "User not found"
// @Failure     500  {object} apierr.Body "Internal error"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user
// @Description Admins may delete anyone; members only themselves.
// @Tags        Users
//
// @Param       X-User-ID  header  string  true  "Acting user ID"
// @Param       id         path    string  true  "User ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} apierr.Body "id is not a UUID"
// @Failure     401  {object} apierr.Body "Missing or unknown X-User-ID"
// @Failure     403  {object} apierr.Body "Not allowed to delete this user"
// @Failure     404  {object} apierr.Body "User not found"
// @Failure     500  {object} apierr.Body "Internal error"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.userSvc.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
