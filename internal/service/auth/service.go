package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/token"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Sentinel errors the handlers translate into HTTP statuses.
var (
	ErrInvalidCredentials = errors.New("e-mail ou senha inválidos")
	ErrAccountDisabled    = errors.New("conta desativada")
)

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// LoginResult carries the issued token plus the account it belongs to.
type LoginResult struct {
	AccessToken string           `json:"accessToken"`
	ExpiresAt   time.Time        `json:"expiraEm"`
	User        userdomain.Brief `json:"usuario"`
}

// Service handles credential login and token issue for local deployments.
type Service struct {
	users  *repository.UserRepository
	tokens *token.JWTManager
	logger *zap.SugaredLogger
}

// NewService creates an auth Service.
func NewService(users *repository.UserRepository, tokens *token.JWTManager, logger *zap.SugaredLogger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.With("component", "auth_service"),
	}
}

// Login checks the credentials and issues an access token. A wrong email and
// a wrong password return the same error so login probes learn nothing.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	log := s.logger.With("op", "login", "email", email)

	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.Errorw("load account failed", "error", err)
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.Active {
		return nil, ErrAccountDisabled
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(account)
	if err != nil {
		log.Errorw("token issue failed", "error", err)
		return nil, err
	}

	if err := s.users.UpdateLastSeen(ctx, account.ID, time.Now()); err != nil {
		// Best-effort stamp; a failed write must not block login.
		log.Warnw("last seen stamp failed", "error", err)
	}

	log.Infow("login ok", "userID", account.ID)
	return &LoginResult{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        userdomain.BriefOf(account),
	}, nil
}
