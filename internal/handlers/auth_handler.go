package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/services"
)

type AuthHandler struct {
	users  services.UserService
	resets services.PasswordResetService
	oauth  services.OAuthService
}

func NewAuthHandler(users services.UserService, resets services.PasswordResetService, oauth services.OAuthService) *AuthHandler {
	return &AuthHandler{users: users, resets: resets, oauth: oauth}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

// @Summary      Register
// @Description  Creates a regular account and sends a welcome email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "New account"
// @Success      201   {object}  Response
// @Failure      400   {object}  Response
// @Failure      409   {object}  Response
// @Router       /users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][register] bind json failed: %v", err)
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, "auth:register", err)
		return
	}
	log.Printf("[auth][register][ok] user=%d", user.ID)
	respond(c, http.StatusCreated, "User created successfully", userResponse{User: user})
}

// @Summary      Log in
// @Description  Exchanges email and password for a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  Response
// @Failure      400    {object}  Response
// @Failure      401    {object}  Response
// @Router       /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, token, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, "auth:login", err)
		return
	}
	respond(c, http.StatusOK, "Login successful", loginResponse{Token: token, User: user})
}

// @Summary      Request a password reset
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ForgotPasswordRequest  true  "Account email"
// @Success      200   {object}  Response
// @Router       /users/forgot_password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.resets.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, "auth:forgot", err)
		return
	}
	respond(c, http.StatusOK, "If the account exists, a password reset link has been sent", nil)
}

// @Summary      Reset a password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  Response
// @Failure      400   {object}  Response
// @Failure      401   {object}  Response
// @Router       /users/reset_password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.resets.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, "auth:reset", err)
		return
	}
	respond(c, http.StatusOK, "Password reset successfully", nil)
}

// GitHubLogin redirects the browser to GitHub.
func (h *AuthHandler) GitHubLogin(c *gin.Context) {
	target, err := h.oauth.Begin()
	if err != nil {
		respondError(c, "auth:github", err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// @Summary      GitHub OAuth callback
// @Tags         Auth
// @Produce      json
// @Param        code   query     string  true  "Authorization code"
// @Param        state  query     string  true  "Signed state"
// @Success      200    {object}  Response
// @Failure      401    {object}  Response
// @Router       /users/github/callback [get]
func (h *AuthHandler) GitHubCallback(c *gin.Context) {
	user, token, err := h.oauth.Complete(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		respondError(c, "auth:github", err)
		return
	}
	respond(c, http.StatusOK, "GitHub login successful", loginResponse{Token: token, User: user})
}
