// Package handlers exposes the storefront components over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/address"
	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/cart"
	"github.com/krushee/krushee-backend-go/catalog"
	"github.com/krushee/krushee-backend-go/checkout"
	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/logger"
	"github.com/krushee/krushee-backend-go/metrics"
	"github.com/krushee/krushee-backend-go/middleware"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/purchase"
	"github.com/krushee/krushee-backend-go/session"
	"github.com/krushee/krushee-backend-go/store"
	"github.com/krushee/krushee-backend-go/utils"
)

// Options configures a Handler.
type Options struct {
	JWTSecret      string
	JWTTTL         time.Duration
	RequestTimeout time.Duration
}

type Handler struct {
	store    store.Store
	sessions localstore.Opener
	catalog  *catalog.Service
	flow     *purchase.Flow
	checkout *checkout.Service
	metrics  *metrics.Metrics
	opts     Options
	log      *zap.Logger
}

func New(s store.Store, sessions localstore.Opener, cache *catalog.Cache, m *metrics.Metrics, opts Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.JWTTTL <= 0 {
		opts.JWTTTL = 72 * time.Hour
	}
	flow := purchase.NewFlow(s, m, log)
	return &Handler{
		store:    s,
		sessions: sessions,
		catalog:  catalog.NewService(s, cache, log),
		flow:     flow,
		checkout: checkout.NewService(flow, m, log),
		metrics:  m,
		opts:     opts,
		log:      log.Named("http"),
	}
}

func (h *Handler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.opts.RequestTimeout)
}

// local is the shopper's local store for this request.
func (h *Handler) local(c echo.Context) localstore.Store {
	return h.sessions.For(middleware.GetSessionID(c))
}

func (h *Handler) carts(c echo.Context) *cart.Service {
	return cart.NewService(h.local(c), logger.FromEcho(c))
}

func (h *Handler) addresses(c echo.Context) *address.Service {
	return address.NewService(h.local(c), address.NewProfileRemote(h.store), h.metrics, logger.FromEcho(c))
}

// session assembles the shopper session: the signed-in user, when the token names one
// that still exists, and the current catalog snapshot. A catalog failure leaves the
// snapshot empty so the purchase flow can retry it.
func (h *Handler) session(ctx context.Context, c echo.Context) (*session.Session, error) {
	var user *models.User
	if id := middleware.UserID(c); id != "" {
		u, err := store.GetAs[models.User](ctx, h.store, store.CollectionUsers, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return nil, apperror.Persistence("failed to load user", err)
		default:
			user = u
		}
	}

	products, err := h.catalog.Products(ctx)
	if err != nil {
		logger.FromEcho(c).Warn("catalog snapshot unavailable", zap.Error(err))
		products = nil
	}
	return session.New(middleware.GetSessionID(c), user, products), nil
}

// bind decodes and validates the request body.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperror.Validation("Invalid request format")
	}
	if err := c.Validate(v); err != nil {
		return apperror.Validation(utils.ValidationMessage(err))
	}
	return nil
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindAuthRequired:
		return http.StatusUnauthorized
	case apperror.KindProductNotFound:
		return http.StatusNotFound
	case apperror.KindInsufficientStock:
		return http.StatusConflict
	case apperror.KindProductsUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c echo.Context, err error) error {
	kind := apperror.KindOf(err)
	status := StatusOf(kind)
	msg := apperror.MessageOf(err)
	if status == http.StatusInternalServerError {
		logger.FromEcho(c).Error("request failed", zap.Error(err))
		msg = "Something went wrong. Please try again."
	}
	body := map[string]string{"error": msg, "code": string(kind)}
	if kind == apperror.KindAuthRequired {
		body["redirectTo"] = "/login"
	}
	return c.JSON(status, body)
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
