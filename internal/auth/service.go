package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

type CredentialStore interface {
	Create(ctx context.Context, c domain.Credential) error
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

type ServiceConfig struct {
	BcryptCost             int
	PasswordMinEntropyBits float64
}

// Service checks email/password credentials against a CredentialStore.
// It is stateless; Provider adds the remembered session on top.
type Service struct {
	creds    CredentialStore
	cfg      ServiceConfig
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

func NewService(creds CredentialStore, cfg ServiceConfig, log *zap.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{creds: creds, cfg: cfg, validate: validator.New(), log: log, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignUp(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", errs.NewAuthError(errs.AuthInvalidEmail, nil)
	}
	if len(password) < MinPasswordLength {
		return "", errs.NewAuthError(errs.AuthWeakPassword, nil)
	}
	if s.cfg.PasswordMinEntropyBits > 0 {
		if err := passwordvalidator.Validate(password, s.cfg.PasswordMinEntropyBits); err != nil {
			return "", errs.NewAuthError(errs.AuthWeakPassword, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", errs.NewAuthError(errs.AuthFailed, err)
	}
	cred := domain.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", errs.NewAuthError(errs.AuthEmailInUse, nil)
		}
		s.log.Error("credential create failed", zap.String("email", email), zap.Error(err))
		return "", err
	}
	s.log.Info("account created", zap.String("user_id", cred.UserID))
	return cred.UserID, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	cred, err := s.creds.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", errs.NewAuthError(errs.AuthInvalidCredentials, nil)
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", errs.NewAuthError(errs.AuthInvalidCredentials, nil)
	}
	return cred.UserID, nil
}
