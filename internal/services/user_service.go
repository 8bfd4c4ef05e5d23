// Package services – UserService
//
// This file implements UserService, which owns the lifecycle of registry
// users. It normalizes and validates input, enforces the unique-email and
// delete-authorization rules, and coordinates repository calls.
//
// Every failure is returned as an apierr value so the HTTP error stages can
// answer it without a per-handler mapping table:
//
//	field problems       -> apierr.NewValidationErrors (400, error_details)
//	email already in use -> apierr.NewBadRequestError, code "email_taken"
//	unknown user         -> apierr.NewNotFoundError
//	missing actor        -> apierr.NewUnauthorizedError
//	actor lacks rights   -> apierr.NewForbiddenError
//	storage failure      -> apierr.NewServerError with the cause attached
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-rest-errors/internal/apierr"
	"github.com/tbourn/go-rest-errors/internal/domain"
	"github.com/tbourn/go-rest-errors/internal/observability"
	"github.com/tbourn/go-rest-errors/internal/repo"
)

// Error codes produced by UserService beyond the taxonomy defaults.
const (
	CodeEmailTaken    = "email_taken"
	CodeInvalidFormat = "invalid_format"
)

// UserRepo defines the repository contract required by UserService.
// Implementations report missing rows as repo.ErrNotFound and unique
// violations as repo.ErrDuplicate.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, email, name, role string) (*domain.User, error)
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)
	ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error)
	DeleteUser(ctx context.Context, db *gorm.DB, id string) error
}

// CreateUserInput is the service-level payload for Create.
type CreateUserInput struct {
	Email string
	Name  string
	Role  string
}

// UserService provides user registry operations.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// NameMaxLen caps display names by rune length.
	NameMaxLen int
	// NameLocale drives display-name casing.
	NameLocale language.Tag
}

// NewUserService constructs a UserService with default name rules.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{
		DB:         db,
		Repo:       r,
		NameMaxLen: 100,
		NameLocale: language.English,
	}
}

func (s *UserService) tracer() trace.Tracer { return observability.Tracer("services/UserService") }

// Create registers a new user. Email is case-folded, the name is trimmed,
// whitespace-collapsed and title-cased, and an empty role defaults to member.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	ctx, span := s.tracer().Start(ctx, "Create")
	defer span.End()

	email := normalizeEmail(in.Email)
	name := s.normalizeName(in.Name)
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = domain.RoleMember
	}

	var fields []apierr.FieldError
	switch {
	case email == "":
		fields = append(fields, apierr.FieldError{Code: "required", Path: "email", Message: "email is required"})
	case validate.Var(email, "email") != nil:
		fields = append(fields, apierr.FieldError{Code: "email", Path: "email", Message: "email must be a valid email address"})
	}
	switch {
	case name == "":
		fields = append(fields, apierr.FieldError{Code: "required", Path: "name", Message: "name is required"})
	case s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen:
		fields = append(fields, apierr.FieldError{Code: "max", Path: "name", Message: fmt.Sprintf("name must be at most %d characters", s.NameMaxLen)})
	}
	if role != domain.RoleMember && role != domain.RoleAdmin {
		fields = append(fields, apierr.FieldError{Code: "oneof", Path: "role", Message: "role must be one of: member, admin"})
	}
	if len(fields) > 0 {
		return nil, apierr.NewValidationErrors(fields)
	}

	if _, err := s.Repo.GetUserByEmail(ctx, s.DB, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, storageFailure(span, err)
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, email, name, role)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, storageFailure(span, err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := s.tracer().Start(ctx, "Get", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	if err := validateID(id); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, storageFailure(span, err)
	}
	return u, nil
}

// ListPage returns a page of users and the total count. Invalid page and
// pageSize values fall back to 1 and 20.
func (s *UserService) ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, storageFailure(span, err)
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}

	items, err := s.Repo.ListUsersPage(ctx, s.DB, offset, pageSize)
	if err != nil {
		return nil, 0, storageFailure(span, err)
	}
	return items, total, nil
}

// Delete removes user id on behalf of actorID. The actor must exist and be
// either an admin or the user being deleted.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	ctx, span := s.tracer().Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("actor.id", actorID),
			attribute.String("user.id", id),
		),
	)
	defer span.End()

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return apierr.NewUnauthorizedError()
	}
	actor, err := s.Repo.GetUser(ctx, s.DB, actorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apierr.NewUnauthorizedError(apierr.WithMessage("Unknown user in X-User-ID"))
		}
		return storageFailure(span, err)
	}

	if err := validateID(id); err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.ID != id {
		return apierr.NewForbiddenError(apierr.WithMessage("Only admins may delete other users"))
	}

	if err := s.Repo.DeleteUser(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return userNotFound()
		}
		return storageFailure(span, err)
	}
	return nil
}

// normalizeName trims, collapses whitespace and title-cases a display name.
func (s *UserService) normalizeName(name string) string {
	name = whitespaceRE.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" {
		return ""
	}
	return cases.Title(s.nameLocaleOrDefault(), cases.NoLower).String(name)
}

func (s *UserService) nameLocaleOrDefault() language.Tag {
	if s.NameLocale == language.Und {
		return language.English
	}
	return s.NameLocale
}

// normalizeEmail trims and case-folds an email address.
func normalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apierr.NewValidationError("id", CodeInvalidFormat, "id must be a valid UUID")
	}
	return nil
}

func emailTaken() error {
	return apierr.NewBadRequestError(
		apierr.WithCode(CodeEmailTaken),
		apierr.WithMessage("Email is already registered"),
	)
}

func userNotFound() error {
	return apierr.NewNotFoundError(apierr.WithMessage("User not found"))
}

// storageFailure wraps a repository error as a ServerError and records it on
// the span.
func storageFailure(span trace.Span, err error) error {
	observability.RecordError(span, err, false, observability.AttrErrorSource.String("storage"))
	return apierr.NewServerError(apierr.WithCause(err))
}

var (
	// whitespaceRE collapses consecutive whitespace to a single space.
	whitespaceRE = regexp.MustCompile(`\s+`)
	// validate applies the same email rule as the HTTP binding tags.
	validate = validator.New()
)
