package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/krushee/krushee-backend-go/models"
)

type AddToCartRequest struct {
	ProductID models.ProductID `json:"productId" validate:"required"`
	Qty       *int             `json:"qty" validate:"omitempty,gte=0,max=999"`
}

type UpdateQuantityRequest struct {
	Delta int `json:"delta" validate:"required,min=-999,max=999"`
}

// GrantCouponRequest adds a flat-discount coupon to the session. Coupons only change
// the displayed totals; checkout charges price x qty.
type GrantCouponRequest struct {
	Code  string  `json:"code" validate:"required,max=30"`
	Desc  string  `json:"desc" validate:"max=120"`
	Value float64 `json:"value" validate:"gte=0,max=1000"`
}

// GetCart returns the session cart with its totals.
func (h *Handler) GetCart(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	carts := h.carts(c)
	lines, err := carts.Lines(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	totals, err := carts.Totals(ctx, c.QueryParam("coupon"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": lines, "totals": totals})
}

// AddToCart adds a product, one unit when qty is omitted.
func (h *Handler) AddToCart(c echo.Context) error {
	var req AddToCartRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, string(req.ProductID))
	if err != nil {
		return h.fail(c, err)
	}
	lines, err := h.carts(c).AddOrIncrement(ctx, *product, qty)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}

// UpdateCartItemQuantity applies a +/- delta; lines that reach zero are dropped.
func (h *Handler) UpdateCartItemQuantity(c echo.Context) error {
	var req UpdateQuantityRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	lines, err := h.carts(c).ChangeQuantity(ctx, c.Param("productId"), req.Delta)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *Handler) RemoveFromCart(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	lines, err := h.carts(c).RemoveItem(ctx, c.Param("productId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *Handler) ClearCart(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.carts(c).Clear(ctx); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetCartTotals prices the cart with the coupon named by ?coupon=.
func (h *Handler) GetCartTotals(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	totals, err := h.carts(c).Totals(ctx, c.QueryParam("coupon"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, totals)
}

func (h *Handler) GetCoupons(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	coupons, err := h.carts(c).Coupons(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, coupons)
}

func (h *Handler) GrantCoupon(c echo.Context) error {
	var req GrantCouponRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	coupons, err := h.carts(c).GrantCoupon(ctx, models.Coupon{Code: req.Code, Desc: req.Desc, Value: req.Value})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, coupons)
}

// UseCoupon marks a coupon as used once the shopper has applied it.
func (h *Handler) UseCoupon(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	coupons, err := h.carts(c).MarkCouponUsed(ctx, c.Param("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, coupons)
}

func (h *Handler) GetWishlist(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	items, err := h.carts(c).Wishlist(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// SaveForLater moves a cart line to the wishlist and returns the remaining cart.
func (h *Handler) SaveForLater(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	lines, err := h.carts(c).SaveForLater(ctx, c.Param("productId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *Handler) RemoveWishlistItem(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	items, err := h.carts(c).RemoveWishlistItem(ctx, c.Param("productId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
