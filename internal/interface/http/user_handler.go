package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/interface/middleware"
	"github.com/oksasatya/parkingtime-identity/pkg/response"
)

type UserHandler struct {
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(users *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Logger: logger}
}

type changePasswordRequest struct {
	OldPassword          string `json:"old_password" binding:"required"`
	NewPassword          string `json:"new_password" binding:"required"`
	ConfirmationPassword string `json:"confirmation_password" binding:"required"`
}

type userResponse struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"firstname"`
	LastName   string     `json:"lastname"`
	Email      string     `json:"email"`
	Roles      []string   `json:"roles"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// GetUser GET /api/v1/user/:email
func (h *UserHandler) GetUser(c *gin.Context) {
	p, err := h.Users.GetUser(c.Request.Context(), middleware.CallerFrom(c), c.Param("email"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userResponse{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.Email,
		Roles:      p.Roles,
		Verified:   p.Verified,
		VerifiedAt: p.VerifiedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}, "user", nil)
}

// ChangePassword PATCH /api/v1/user/:email/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	msg, err := h.Users.ChangePassword(c.Request.Context(), middleware.CallerFrom(c), c.Param("email"), application.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmationPassword,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msg, nil)
}

// Search GET /api/v1/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Users.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "users", map[string]any{"count": len(hits)})
}
