package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/auth"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

const (
	MsgInvalidEmail       = "E-mail deve ter um formato válido"
	MsgShortPassword      = "Senha deve ter pelo menos 6 caracteres"
	MsgPasswordRequired   = "Senha é obrigatória"
	MsgUserExists         = "Usuário já existe"
	MsgInvalidCredentials = "Credenciais inválidas"
	MsgUserNotFound       = "Usuário não encontrado"
	minPasswordLength     = 6
)

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService registers users and issues tokens
type AuthService struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	logger *logger.Logger
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenManager, log *logger.Logger) *AuthService {
	return &AuthService{db: db, tokens: tokens, logger: log}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.InvalidArgument(MsgInvalidEmail)
	}
	return email, nil
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperr.InvalidArgument(MsgShortPassword)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgUserNotFound)
	}
	if existing > 0 {
		return nil, apperr.Conflict(MsgUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Erro ao criar usuário", err)
	}
	user := models.User{Email: email, PasswordHash: string(hash), Role: models.RoleUser}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(MsgUserExists)
		}
		return nil, apperr.FromGorm(err, MsgUserNotFound)
	}

	s.logger.Info("✅ User registered", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

// Login checks credentials. Unknown email and wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperr.InvalidArgument(MsgPasswordRequired)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, apperr.FromGorm(err, MsgUserNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("⚠️ Failed login", "email", email)
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Erro ao gerar token", err)
	}
	s.logger.Info("🔑 User logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: &user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgUserNotFound)
	}
	return &user, nil
}

// RoleOf satisfies middleware.RoleLookup
func (s *AuthService) RoleOf(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}
