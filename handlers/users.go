package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/krushee/krushee-backend-go/address"
	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/checkout"
	"github.com/krushee/krushee-backend-go/middleware"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/store"
)

type saveAddressResponse struct {
	Address models.Address  `json:"address"`
	Outcome address.Outcome `json:"outcome"`
}

// GetUserProfile retrieves the user's profile
func (h *Handler) GetUserProfile(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := store.GetAs[models.User](ctx, h.store, store.CollectionUsers, middleware.UserID(c))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	if err != nil {
		return h.fail(c, apperror.Persistence("failed to load user", err))
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) GetAddresses(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	addresses, err := h.addresses(c).List(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, addresses)
}

// SaveAddress creates an address, or replaces the one with the same id. Signed-in
// shoppers also get it on their profile; the outcome says whether that worked.
func (h *Handler) SaveAddress(c echo.Context) error {
	var a models.Address
	if err := c.Bind(&a); err != nil {
		return h.fail(c, apperror.Validation("Invalid address data"))
	}
	if id := c.Param("id"); id != "" {
		a.ID = id
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	saved, outcome, err := h.addresses(c).Save(ctx, middleware.UserID(c), a)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, saveAddressResponse{Address: saved, Outcome: outcome})
}

func (h *Handler) DeleteAddress(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	addresses, err := h.addresses(c).Delete(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, addresses)
}

func (h *Handler) GetCards(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	cards, err := checkout.NewCards(h.local(c)).List(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, cards)
}

// AddCard stores a masked card. Only the last four digits are accepted.
func (h *Handler) AddCard(c echo.Context) error {
	var card models.SavedCard
	if err := c.Bind(&card); err != nil {
		return h.fail(c, apperror.Validation("Invalid card data"))
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	saved, err := checkout.NewCards(h.local(c)).Add(ctx, card)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, saved)
}

func (h *Handler) RemoveCard(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	cards, err := checkout.NewCards(h.local(c)).Remove(ctx, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, cards)
}
