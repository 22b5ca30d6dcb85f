package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/funapp/internal/domain/user"
	"github.com/geocoder89/funapp/internal/service"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	AddNewUser(ctx context.Context, in user.SignupInput) (string, error)
	GetUserProfile(ctx context.Context, id int64) (user.UserProfile, error)
}

type UsersHandler struct {
	svc UserService
	log *slog.Logger
}

func NewUsersHandler(svc UserService, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{svc: svc, log: log}
}

type SignupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Signup handles POST /user/signup.
func (h *UsersHandler) Signup(ctx *gin.Context) {
	var req user.SignupRequest

	if !BindJSON(ctx, &req) {
		return
	}

	token, err := h.svc.AddNewUser(ctx.Request.Context(), req.Input())

	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			RespondConflict(ctx, "email_taken", "User already exists")
		case errors.Is(err, service.ErrGeocoding):
			RespondInvalidLocation(ctx, "Failed to determine city from coordinates")
		case errors.Is(err, service.ErrInvalidLocation):
			RespondInvalidLocation(ctx, "You must be located in Egypt to sign up")
		default:
			h.log.ErrorContext(ctx.Request.Context(), "signup failed", "err", err)
			RespondInternal(ctx, "Could not register user")
		}
		return
	}

	ctx.JSON(http.StatusCreated, SignupResponse{
		Success: true,
		Message: "User registered successfully",
		Token:   token,
	})
}

// GetProfile handles GET /user/:user_id. Ids that cannot exist answer 404.
func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)

	if err != nil || id <= 0 {
		RespondNotFound(ctx, "User doesn't exist")
		return
	}

	profile, err := h.svc.GetUserProfile(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			RespondNotFound(ctx, "User doesn't exist")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "profile lookup failed", "err", err, "user_id", id)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, profile)
}
