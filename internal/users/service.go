package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/db/models"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/security"
)

const minPasswordLength = 10

// CreateInput is the payload to register a back-office user.
type CreateInput struct {
	Email      string  `json:"email" validate:"required,email"`
	Name       string  `json:"name" validate:"required"`
	Password   string  `json:"password" validate:"required"`
	Role       string  `json:"role"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
}

// UpdateInput mutates profile and access fields. Nil pointers leave the
// field unchanged.
type UpdateInput struct {
	Name       *string `json:"name"`
	Role       *string `json:"role"`
	Authorized *bool   `json:"authorized"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
}

type auditor interface {
	Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any)
}

// Service manages back-office user accounts.
type Service interface {
	Create(ctx context.Context, actor string, input CreateInput) (*models.User, error)
	Update(ctx context.Context, actor string, id uuid.UUID, input UpdateInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, actor string, id uuid.UUID) error
	ChangePassword(ctx context.Context, actor string, id uuid.UUID, current, next string) error
}

type service struct {
	repo     *Repository
	password config.PasswordConfig
	audit    auditor
	logg     *logger.Logger
}

// NewService constructs the users service.
func NewService(repo *Repository, password config.PasswordConfig, audit auditor, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if audit == nil {
		return nil, fmt.Errorf("auditor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, password: password, audit: audit, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, actor string, input CreateInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	role := enums.MemberRoleStaff
	if input.Role != "" {
		parsed, err := enums.ParseMemberRole(input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		role = parsed
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         input.Name,
		PasswordHash: hash,
		Role:         role,
		Phone:        input.Phone,
		Department:   input.Department,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, actor, "user.created", "user", created.ID.String(), map[string]any{
		"email": created.Email,
		"role":  created.Role.String(),
	})
	return created, nil
}

func (s *service) Update(ctx context.Context, actor string, id uuid.UUID, input UpdateInput) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		user.Name = *input.Name
	}
	if input.Role != nil {
		role, err := enums.ParseMemberRole(*input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		user.Role = role
	}
	if input.Authorized != nil {
		user.Authorized = *input.Authorized
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.Department != nil {
		user.Department = input.Department
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, actor, "user.updated", "user", id.String(), map[string]any{
		"role":       updated.Role.String(),
		"authorized": updated.Authorized,
	})
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Append(ctx, actor, "user.deleted", "user", id.String(), nil)
	return nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *service) ChangePassword(ctx context.Context, actor string, id uuid.UUID, current, next string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(next, s.password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash

	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Append(ctx, actor, "user.password_changed", "user", id.String(), nil)
	return nil
}
