// Package bootstrap seeds the records a fresh catalog needs before it can
// publish anything: an administrator and an active collection.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-api/internal/config"
	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminRole is the role allowed to manage collections
const AdminRole = "admin"

const tokenTTL = 24 * time.Hour

// Result describes what a seed run ended up with
type Result struct {
	AdminID      uuid.UUID
	CollectionID uuid.UUID
	// Token is a bearer token for the admin, empty when no JWT secret is configured
	Token string
}

// Seeder creates the admin account and the default collection if they are missing
type Seeder struct {
	users       repository.UserRepository
	collections service.CollectionService
	logger      *zap.Logger
	now         func() time.Time
}

// NewSeeder creates a new Seeder
func NewSeeder(users repository.UserRepository, collections service.CollectionService, logger *zap.Logger) *Seeder {
	return &Seeder{
		users:       users,
		collections: collections,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run is idempotent; existing records are reused, never overwritten
func (s *Seeder) Run(ctx context.Context, cfg config.SeedConfig, jwtSecret string) (*Result, error) {
	admin, err := s.ensureAdmin(ctx, cfg)
	if err != nil {
		return nil, err
	}

	collection, err := s.ensureCollection(ctx, cfg.CollectionName, admin.ID)
	if err != nil {
		return nil, err
	}

	result := &Result{AdminID: admin.ID, CollectionID: collection.ID}
	if jwtSecret != "" {
		if result.Token, err = middleware.IssueToken(jwtSecret, admin.ID, AdminRole, tokenTTL); err != nil {
			return nil, fmt.Errorf("failed to issue admin token: %w", err)
		}
	}

	return result, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, cfg config.SeedConfig) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		s.logger.Info("Admin user already exists", zap.String("email", email))
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if cfg.AdminPassword == "" {
		return nil, errors.New("SEED_ADMIN_PASSWORD is required to create the admin user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := s.now()
	admin := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         AdminRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin user created", zap.String("user_id", admin.ID.String()), zap.String("email", email))
	return admin, nil
}

func (s *Seeder) ensureCollection(ctx context.Context, name string, ownerID uuid.UUID) (*domain.Collection, error) {
	slug := service.Slugify(name)

	collections, err := s.collections.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range collections {
		if c.Slug == slug {
			if !c.IsActive {
				s.logger.Warn("Seed collection exists but is inactive", zap.String("slug", slug))
			}
			return c, nil
		}
	}

	return s.collections.Create(ctx, service.CreateCollectionInput{
		Name:   name,
		Slug:   slug,
		Active: true,
	}, ownerID)
}
