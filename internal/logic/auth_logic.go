package logic

import (
	"errors"
	"strings"

	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/crypto"
	"github.com/pqlammy/Gennerweb-sub000/internal/lockout"
	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"github.com/pqlammy/Gennerweb-sub000/internal/security"
	"gorm.io/gorm"
)

// AuthLogic 登录业务逻辑 screens login attempts through the throttle guard,
// compares credentials and appends the audit log.
type AuthLogic struct {
	db    *gorm.DB
	key   []byte
	guard *lockout.Store
	auth  config.AuthConfig
}

// NewAuthLogic creates the login business logic.
func NewAuthLogic(db *gorm.DB, key []byte, guard *lockout.Store, auth config.AuthConfig) *AuthLogic {
	return &AuthLogic{db: db, key: key, guard: guard, auth: auth}
}

// Login authenticates a member. The throttle guard runs before any credential
// comparison; a locked pair is rejected with a retry-after duration and never
// reaches bcrypt. Every attempt, success or failure, lands in login_logs with
// the origin address encrypted.
func (a *AuthLogic) Login(username, password, origin string) (*model.User, string, error) {
	username = strings.TrimSpace(username)

	if retryAfter, locked := a.guard.Check(username, origin); locked {
		return nil, "", &LockoutError{RetryAfter: retryAfter}
	}

	var user model.User
	err := a.db.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			a.recordAttempt(nil, origin, false)
			a.guard.RegisterFailure(username, origin)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !security.CheckPassword(user.Password, password) {
		a.recordAttempt(&user.ID, origin, false)
		a.guard.RegisterFailure(username, origin)
		return nil, "", ErrInvalidCredentials
	}

	a.guard.Clear(username, origin)
	a.recordAttempt(&user.ID, origin, true)

	token, err := security.GenerateToken(a.auth.JWTSecret, &user, a.auth.TokenExpiry())
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Register creates a member account. Used by the admin user-management screen.
func (a *AuthLogic) Register(username, email, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Message: "username is required"}
	}
	if len(password) < 8 {
		return nil, &ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	if role == "" {
		role = model.RoleMember
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: hash,
		Role:     role,
	}
	if err := a.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidationError{Field: "username", Message: "username already exists"}
		}
		return nil, err
	}
	return user, nil
}

// recordAttempt appends one audit row. Audit failures are logged but never
// block the login path.
func (a *AuthLogic) recordAttempt(userID *uint, origin string, success bool) {
	encrypted, err := crypto.Encrypt(origin, a.key)
	if err != nil {
		logger.Error("encrypt login origin: %v", err)
		encrypted = ""
	}
	entry := &model.LoginLog{
		UserID:    userID,
		IPAddress: encrypted,
		Success:   success,
	}
	if err := a.db.Create(entry).Error; err != nil {
		logger.Error("write login log: %v", err)
	}
}
