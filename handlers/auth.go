package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/logger"
	"github.com/krushee/krushee-backend-go/middleware"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/store"
	"github.com/krushee/krushee-backend-go/utils"
)

// SignUpRequest represents the expected request body for signup
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,numeric,min=10,max=13"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Register handles user registration
func (h *Handler) Register(c echo.Context) error {
	var req SignUpRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := h.ctx(c)
	defer cancel()

	existing, err := store.QueryAs[models.User](ctx, h.store, store.CollectionUsers, store.Filter{"email": req.Email})
	if err != nil {
		return h.fail(c, apperror.Persistence("failed to look up user", err))
	}
	if len(existing) > 0 {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Email already registered", "code": "EMAIL_TAKEN"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.fail(c, apperror.Wrap(apperror.KindPersistence, "Failed to process password", err))
	}

	now := time.Now().UTC()
	user := models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Password:  string(hashedPassword),
		Phone:     req.Phone,
		Addresses: []models.Address{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.ID, err = h.store.Create(ctx, store.CollectionUsers, user)
	if err != nil {
		return h.fail(c, apperror.Persistence("Failed to create user", err))
	}

	token, err := utils.GenerateJWT(user.ID, h.opts.JWTSecret, h.opts.JWTTTL)
	if err != nil {
		return h.fail(c, apperror.Wrap(apperror.KindPersistence, "Failed to generate token", err))
	}
	logger.FromEcho(c).Info("user registered", zap.String("user_id", user.ID))
	return c.JSON(http.StatusCreated, authResponse{User: user, Token: token})
}

// Login checks the credentials and issues a bearer token.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	users, err := store.QueryAs[models.User](ctx, h.store, store.CollectionUsers,
		store.Filter{"email": strings.ToLower(strings.TrimSpace(req.Email))})
	if err != nil {
		return h.fail(c, apperror.Persistence("failed to look up user", err))
	}
	if len(users) == 0 {
		return invalidCredentials(c)
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return invalidCredentials(c)
	}

	token, err := utils.GenerateJWT(user.ID, h.opts.JWTSecret, h.opts.JWTTTL)
	if err != nil {
		return h.fail(c, apperror.Wrap(apperror.KindPersistence, "Failed to generate token", err))
	}
	return c.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

// Logout wipes the shopper's session state (cart, addresses, wishlist, coupons, cards)
// and notifies every open view. Tokens are stateless and simply dropped by the client.
func (h *Handler) Logout(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := localstore.Clear(ctx, h.local(c)); err != nil {
		return h.fail(c, apperror.Persistence("failed to clear session", err))
	}
	logger.FromEcho(c).Info("session cleared on logout", zap.String("user_id", middleware.UserID(c)))
	return c.NoContent(http.StatusNoContent)
}

func invalidCredentials(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password", "code": string(apperror.KindAuthRequired)})
}
