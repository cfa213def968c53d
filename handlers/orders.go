package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/checkout"
	"github.com/krushee/krushee-backend-go/middleware"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/purchase"
	"github.com/krushee/krushee-backend-go/store"
)

// PurchaseRequest buys a single product outside the cart. The optional fields
// override what the order would otherwise take from the profile.
type PurchaseRequest struct {
	Qty             int    `json:"qty" validate:"required,gt=0"`
	PaymentMethod   string `json:"paymentMethod" validate:"max=40"`
	PaymentStatus   string `json:"paymentStatus" validate:"max=20"`
	ProductType     string `json:"productType" validate:"max=40"`
	CustomerName    string `json:"customerName" validate:"max=80"`
	CustomerEmail   string `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone   string `json:"customerPhone" validate:"max=15"`
	CustomerAddress string `json:"customerAddress" validate:"max=300"`
	Notes           string `json:"notes" validate:"max=500"`
}

// Checkout pays for the cart, or for the buy-now item when the request names one.
// A failure part-way returns the error together with the lines already bought.
func (h *Handler) Checkout(c echo.Context) error {
	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		return h.fail(c, apperror.Validation("Invalid request format"))
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	sess, err := h.session(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.checkout.Checkout(ctx, sess, h.local(c), req)
	if err != nil {
		if result != nil && len(result.Receipts) > 0 {
			kind := apperror.KindOf(err)
			return c.JSON(StatusOf(kind), map[string]any{
				"error":  apperror.MessageOf(err),
				"code":   string(kind),
				"result": result,
			})
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// PurchaseProduct records one purchase of the product in the path.
func (h *Handler) PurchaseProduct(c echo.Context) error {
	var req PurchaseRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	sess, err := h.session(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	receipt, err := h.flow.Purchase(ctx, sess, c.Param("id"), req.Qty, purchase.PaymentMetadata{
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   req.PaymentStatus,
		ProductType:     req.ProductType,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) GetOrders(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	orders, err := h.flow.OrdersByUser(ctx, middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetPurchases(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	purchases, err := h.flow.PurchasesByUser(ctx, middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, purchases)
}

// GetOrderStatus is polled by the order tracking page.
func (h *Handler) GetOrderStatus(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := store.GetAs[models.Order](ctx, h.store, store.CollectionOrders, c.Param("orderId"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && order.UserID != middleware.UserID(c)) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}
	if err != nil {
		return h.fail(c, apperror.Persistence("failed to fetch order", err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":               order.Status,
		"paymentStatus":        order.PaymentStatus,
		"expectedDeliveryDate": order.ExpectedDeliveryDate,
		"trackingNumber":       order.TrackingNumber,
	})
}
