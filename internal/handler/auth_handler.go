package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dassyor/internal/model"
	"dassyor/internal/service/auth"
	"dassyor/internal/util"
)

type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	u, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			c.JSON(http.StatusConflict, model.Failure("email already registered"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Failure("registration failed"))
		return
	}

	c.JSON(http.StatusCreated, model.Success("registered, confirmation email sent", u))
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	if err := h.auth.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, model.Failure("token not found or expired"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Failure("confirmation failed"))
		return
	}

	c.JSON(http.StatusOK, model.Success("email confirmed", nil))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	pair, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailNotConfirmed) {
			c.JSON(http.StatusForbidden, model.Failure("email not confirmed"))
			return
		}
		c.JSON(http.StatusUnauthorized, model.Failure("invalid email or password"))
		return
	}

	c.JSON(http.StatusOK, model.Success("logged in", gin.H{"tokens": pair, "user": u}))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, util.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, model.Failure("invalid token"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Failure("refresh failed"))
		return
	}

	c.JSON(http.StatusOK, model.Success("token refreshed", pair))
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	pair, u, err := h.auth.GoogleLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrGoogleTokenInvalid) {
			c.JSON(http.StatusUnauthorized, model.Failure("google token rejected"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Failure("google login failed"))
		return
	}

	c.JSON(http.StatusOK, model.Success("logged in", gin.H{"tokens": pair, "user": u}))
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	u, err := h.auth.GetProfile(c.Request.Context(), callerID(c))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, model.Failure("user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Failure("could not load profile"))
		return
	}
	c.JSON(http.StatusOK, model.Success("profile", u))
}

type updateProfileRequest struct {
	FirstName     *string `json:"firstName" binding:"omitempty,max=100"`
	LastName      *string `json:"lastName" binding:"omitempty,max=100"`
	PreferredName *string `json:"preferredName" binding:"omitempty,max=100"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	u, err := h.auth.UpdateProfile(c.Request.Context(), callerID(c), req.FirstName, req.LastName, req.PreferredName)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, model.Failure("user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Failure("could not update profile"))
		return
	}
	c.JSON(http.StatusOK, model.Success("profile updated", u))
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, model.Failure("could not send reset email"))
		return
	}

	// Same answer whether or not the account exists.
	c.JSON(http.StatusOK, model.Success("if the account exists, a reset email was sent", nil))
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, model.Failure("token not found or expired"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Failure("password reset failed"))
		return
	}

	c.JSON(http.StatusOK, model.Success("password updated", nil))
}
