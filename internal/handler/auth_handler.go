package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/lockout"
	"github.com/pqlammy/Gennerweb-sub000/internal/logic"
	"gorm.io/gorm"
)

// AuthHandler 登录处理器
type AuthHandler struct {
	authLogic *logic.AuthLogic
}

// NewAuthHandler creates the login handler.
func NewAuthHandler(db *gorm.DB, key []byte, guard *lockout.Store, auth config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		authLogic: logic.NewAuthLogic(db, key, guard, auth),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a member and issues a session token. The throttle guard
// runs inside the logic layer before any credential comparison.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Username == "" || body.Password == "" {
		ErrorResponse(c, http.StatusBadRequest, "missing username or password")
		return
	}

	user, token, err := h.authLogic.Login(body.Username, body.Password, c.ClientIP())
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "login successful", LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
}
