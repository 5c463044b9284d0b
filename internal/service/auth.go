package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/session"
	"github.com/xby-111/bill/internal/util"

	"gorm.io/gorm"
)

// 账号字段约束
const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt 只使用前 72 字节
)

// AuthOptions carries the token and password settings of AuthService.
type AuthOptions struct {
	Secret           string
	Issuer           string
	TokenTTL         time.Duration
	BcryptCost       int
	MaxLoginAttempts int           // 0 关闭锁定
	LockDuration     time.Duration
}

// AuthService registers users, issues bearer tokens and resolves them back to
// users.
type AuthService struct {
	db      *gorm.DB
	opts    AuthOptions
	revoker session.Revoker
	now     func() time.Time
}

func NewAuthService(db *gorm.DB, opts AuthOptions, revoker session.Revoker) *AuthService {
	return &AuthService{
		db:      db,
		opts:    opts,
		revoker: revoker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func checkUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return invalidf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return invalidf("username must not contain spaces")
	}
	return nil
}

func checkEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalidf("Invalid email address")
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return invalidf("password must be %d-%d bytes", minPasswordLen, maxPasswordLen)
	}
	return nil
}

// Register creates a user. Username and email must both be unused (exact,
// case-sensitive comparison).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if err := checkUsername(username); err != nil {
		return nil, err
	}
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.checkTaken(db, username, email); err != nil {
		return nil, err
	}

	hash, err := util.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Username: username, Email: email, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.conflictOf(db, username, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// checkTaken reports ErrUsernameTaken or ErrEmailTaken when either value is
// already registered.
func (s *AuthService) checkTaken(db *gorm.DB, username, email string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

// conflictOf 唯一索引冲突后重新查一次，确定是哪个字段撞了
func (s *AuthService) conflictOf(db *gorm.DB, username, email string) error {
	if err := s.checkTaken(db, username, email); err != nil {
		return err
	}
	return ErrAccountExists
}

// Login verifies the credentials and issues a bearer token. Repeated failures
// lock the account for LockDuration.
func (s *AuthService) Login(ctx context.Context, username, password, clientIP string) (*Token, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if !util.CheckPassword(password, user.PasswordHash) {
		// 连续失败达到上限则锁定，计数清零
		user.FailedLoginAttempts++
		if s.opts.MaxLoginAttempts > 0 && user.FailedLoginAttempts >= s.opts.MaxLoginAttempts {
			lockUntil := now.Add(s.opts.LockDuration)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
		}
		if err := db.Model(&user).Select("failed_login_attempts", "locked_until").Updates(&user).Error; err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		return nil, ErrBadCredentials
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = clientIP
	if err := db.Model(&user).
		Select("failed_login_attempts", "locked_until", "last_login_at", "last_login_ip").
		Updates(&user).Error; err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	signed, _, err := util.GenerateToken(s.opts.Secret, s.opts.Issuer, user.Username, s.opts.TokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to its user. Invalid, expired, revoked
// tokens and tokens of deleted users all fail with ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *util.Claims, error) {
	claims, err := util.ParseToken(s.opts.Secret, s.opts.Issuer, token)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if claims.ID != "" && s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrInvalidCredentials
		}
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("username = ?", claims.Username()).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	return &user, claims, nil
}

// Logout revokes the token described by claims until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidCredentials
	}
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.Username(), claims.ExpiresAt.Time)
}

// ChangePassword replaces the password of user after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	if !util.CheckPassword(oldPassword, user.PasswordHash) {
		return ErrWrongPassword
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	hash, err := util.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}
