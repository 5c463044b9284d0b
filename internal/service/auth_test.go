package service

import (
	"testing"
	"time"

	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/session"
	"github.com/xby-111/bill/internal/util"

	"github.com/stretchr/testify/suite"
)

const testSecret = "test-secret"

type AuthSuite struct {
	ledgerSuite
	auth *AuthService
	now  time.Time
}

func TestAuth(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.ledgerSuite.SetupTest()
	s.auth = NewAuthService(s.db, AuthOptions{
		Secret:           testSecret,
		Issuer:           "family-ledger",
		TokenTTL:         30 * time.Minute,
		BcryptCost:       4,
		MaxLoginAttempts: 3,
		LockDuration:     10 * time.Minute,
	}, session.NewDBRevoker(s.db))
	s.now = time.Now().UTC()
	s.auth.now = func() time.Time { return s.now }
}

func (s *AuthSuite) register(username, email string) *models.User {
	u, err := s.auth.Register(s.ctx, RegisterInput{Username: username, Email: email, Password: "secret123"})
	s.Require().NoError(err)
	return u
}

func (s *AuthSuite) userCount() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.User{}).Count(&n).Error)
	return n
}

func (s *AuthSuite) TestRegister() {
	u := s.register("alice", "alice@example.com")
	s.NotZero(u.ID)
	s.NotEqual("secret123", u.PasswordHash)
	s.True(util.CheckPassword("secret123", u.PasswordHash))
}

func (s *AuthSuite) TestRegisterDuplicateUsername() {
	s.register("alice", "alice@example.com")

	_, err := s.auth.Register(s.ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret123"})
	s.ErrorIs(err, ErrUsernameTaken)
	s.Equal(int64(1), s.userCount(), "no second row")

	// 用户名区分大小写
	s.register("Alice", "alice2@example.com")
	s.Equal(int64(2), s.userCount())
}

func (s *AuthSuite) TestRegisterDuplicateEmail() {
	s.register("alice", "alice@example.com")
	_, err := s.auth.Register(s.ctx, RegisterInput{Username: "bob", Email: "alice@example.com", Password: "secret123"})
	s.ErrorIs(err, ErrEmailTaken)
}

func (s *AuthSuite) TestConflictOfNamesTheCollidingField() {
	s.register("alice", "alice@example.com")
	db := s.db.WithContext(s.ctx)

	s.ErrorIs(s.auth.conflictOf(db, "alice", "new@example.com"), ErrUsernameTaken)
	s.ErrorIs(s.auth.conflictOf(db, "bob", "alice@example.com"), ErrEmailTaken)
	// 冲突行已被删除时给出中性提示
	err := s.auth.conflictOf(db, "bob", "bob@example.com")
	s.ErrorIs(err, ErrAccountExists)
	s.Equal(KindConflict, KindOf(err))
}

func (s *AuthSuite) TestRegisterValidation() {
	for name, in := range map[string]RegisterInput{
		"short username": {Username: "ab", Email: "a@example.com", Password: "secret123"},
		"space username": {Username: "a b c", Email: "a@example.com", Password: "secret123"},
		"bad email":      {Username: "alice", Email: "not-an-email", Password: "secret123"},
		"named email":    {Username: "alice", Email: "Alice <a@example.com>", Password: "secret123"},
		"short password": {Username: "alice", Email: "a@example.com", Password: "12345"},
	} {
		s.Run(name, func() {
			_, err := s.auth.Register(s.ctx, in)
			requireKind(s.T(), KindInvalid, err)
		})
	}
	s.Zero(s.userCount())
}

func (s *AuthSuite) TestLoginAndAuthenticate() {
	s.register("alice", "alice@example.com")

	tok, err := s.auth.Login(s.ctx, "alice", "secret123", "10.0.0.1")
	s.Require().NoError(err)
	s.Equal("bearer", tok.TokenType)

	user, claims, err := s.auth.Authenticate(s.ctx, tok.AccessToken)
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
	s.Equal("alice", claims.Username())
	s.WithinDuration(s.now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
	s.Equal("10.0.0.1", user.LastLoginIP)
	s.NotNil(user.LastLoginAt)
}

func (s *AuthSuite) TestLoginFailures() {
	s.register("alice", "alice@example.com")

	_, err := s.auth.Login(s.ctx, "nobody", "secret123", "")
	s.ErrorIs(err, ErrBadCredentials)
	_, err = s.auth.Login(s.ctx, "alice", "wrong", "")
	s.ErrorIs(err, ErrBadCredentials)
	_, err = s.auth.Login(s.ctx, "ALICE", "secret123", "")
	s.ErrorIs(err, ErrBadCredentials)
}

func (s *AuthSuite) TestLockoutAfterRepeatedFailures() {
	s.register("alice", "alice@example.com")

	for i := 0; i < 3; i++ {
		_, err := s.auth.Login(s.ctx, "alice", "wrong", "")
		s.ErrorIs(err, ErrBadCredentials)
	}
	_, err := s.auth.Login(s.ctx, "alice", "secret123", "")
	s.ErrorIs(err, ErrAccountLocked)
	s.Equal(KindUnauthorized, KindOf(err))

	s.now = s.now.Add(11 * time.Minute)
	_, err = s.auth.Login(s.ctx, "alice", "secret123", "")
	s.Require().NoError(err)

	var u models.User
	s.Require().NoError(s.db.Where("username = ?", "alice").First(&u).Error)
	s.Zero(u.FailedLoginAttempts)
	s.Nil(u.LockedUntil)
}

func (s *AuthSuite) TestAuthenticateRejectsBadTokens() {
	s.register("alice", "alice@example.com")

	forged, _, err := util.GenerateToken("other-secret", "family-ledger", "alice", time.Minute, time.Now())
	s.Require().NoError(err)
	expired, _, err := util.GenerateToken(testSecret, "family-ledger", "alice", time.Minute, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	ghost, _, err := util.GenerateToken(testSecret, "family-ledger", "ghost", time.Minute, time.Now())
	s.Require().NoError(err)

	for name, tok := range map[string]string{
		"garbage":      "not.a.token",
		"empty":        "",
		"wrong secret": forged,
		"expired":      expired,
		"unknown user": ghost,
	} {
		s.Run(name, func() {
			_, _, err := s.auth.Authenticate(s.ctx, tok)
			s.ErrorIs(err, ErrInvalidCredentials)
		})
	}
}

func (s *AuthSuite) TestLogoutRevokesToken() {
	s.register("alice", "alice@example.com")
	tok, err := s.auth.Login(s.ctx, "alice", "secret123", "")
	s.Require().NoError(err)

	_, claims, err := s.auth.Authenticate(s.ctx, tok.AccessToken)
	s.Require().NoError(err)
	s.Require().NoError(s.auth.Logout(s.ctx, claims))

	_, _, err = s.auth.Authenticate(s.ctx, tok.AccessToken)
	s.ErrorIs(err, ErrInvalidCredentials)

	// 新登录的 token 不受影响
	s.now = s.now.Add(time.Second)
	tok2, err := s.auth.Login(s.ctx, "alice", "secret123", "")
	s.Require().NoError(err)
	_, _, err = s.auth.Authenticate(s.ctx, tok2.AccessToken)
	s.NoError(err)
}

func (s *AuthSuite) TestChangePassword() {
	u := s.register("alice", "alice@example.com")

	s.ErrorIs(s.auth.ChangePassword(s.ctx, u, "wrong", "newsecret"), ErrWrongPassword)
	requireKind(s.T(), KindInvalid, s.auth.ChangePassword(s.ctx, u, "secret123", "123"))

	s.Require().NoError(s.auth.ChangePassword(s.ctx, u, "secret123", "newsecret"))
	_, err := s.auth.Login(s.ctx, "alice", "secret123", "")
	s.ErrorIs(err, ErrBadCredentials)
	_, err = s.auth.Login(s.ctx, "alice", "newsecret", "")
	s.NoError(err)
}
