package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/pkg/metrics"
	"github.com/oksasatya/parkingtime-identity/pkg/response"
)

// AuthHandler serves the public credential endpoints.
type AuthHandler struct {
	Auth   *application.AuthService
	Reset  *application.PasswordResetService
	Verify *application.EmailVerificationService
	Logger *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, reset *application.PasswordResetService, verify *application.EmailVerificationService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Reset: reset, Verify: verify, Logger: logger}
}

type registerRequest struct {
	FirstName string   `json:"firstname" binding:"required,name"`
	LastName  string   `json:"lastname" binding:"required,name"`
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
}

type authenticateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Token                string `json:"token" binding:"required"`
	NewPassword          string `json:"new_password"`
	ConfirmationPassword string `json:"confirmation_password"`
}

type verifyEmailQuery struct {
	Email string `form:"email" binding:"required"`
	Code  *int   `form:"code" binding:"required"`
}

type sessionResponse struct {
	Token           string   `json:"token"`
	TokenType       string   `json:"token_type"`
	Email           string   `json:"email"`
	TokenExpiration string   `json:"token_expiration"`
	Roles           []string `json:"roles"`
}

// Register POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	msg, err := h.Auth.Register(c.Request.Context(), application.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Roles:     req.Roles,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusCreated, nil, msg, nil)
}

// Authenticate POST /api/v1/auth/authenticate
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	sess, err := h.Auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusAccepted, sessionResponse{
		Token:           sess.Token,
		TokenType:       sess.TokenType,
		Email:           sess.Email,
		TokenExpiration: sess.Expiration,
		Roles:           sess.Roles,
	}, "authenticated", nil)
}

// ForgetPassword POST /api/v1/auth/forget-password?email=
// The answer is the same whether or not a token was issued.
func (h *AuthHandler) ForgetPassword(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if _, err := h.Reset.ForgetPassword(c.Request.Context(), email); err != nil && !apperror.IsCoverUp(err) {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, nil, application.MsgCheckInbox, nil)
}

// ResetPassword POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	msg, err := h.Reset.ResetPassword(c.Request.Context(), application.ResetPasswordInput{
		Token:           req.Token,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmationPassword,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, nil, msg, nil)
}

// SendVerificationEmail POST /api/v1/auth/email-verification?email=
// Only a blank email is reported; unknown and already verified addresses get
// the usual acknowledgement.
func (h *AuthHandler) SendVerificationEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		writeError(c, h.Logger, apperror.InvalidArgument(application.MsgEmailInvalid))
		return
	}
	_, err := h.Verify.SendVerificationEmail(c.Request.Context(), email)
	if err != nil && apperror.KindOf(err) == apperror.KindInternal {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, nil, application.MsgVerificationSent, nil)
}

// VerifyEmail POST /api/v1/auth/verify-email?email=&code=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var q verifyEmailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		// a malformed code answers like a wrong one
		metrics.Observe(metrics.VerificationsTotal, metrics.OutcomeCoverUp)
		h.Logger.WithError(err).WithField("flow", "email_verification").Warn("malformed verification query")
		response.Success[any](c, http.StatusAccepted, nil, application.MsgEmailVerified, nil)
		return
	}
	msg, err := h.Verify.VerifyEmail(c.Request.Context(), strings.TrimSpace(q.Email), *q.Code)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, nil, msg, nil)
}
