package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetProducts lists the catalog, optionally narrowed by ?category= and ?type=.
func (h *Handler) GetProducts(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx, c.QueryParam("category"), c.QueryParam("type"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *Handler) SearchProducts(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	products, err := h.catalog.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) GetCategories(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *Handler) GetBrands(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	brands, err := h.catalog.Brands(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, brands)
}

func (h *Handler) GetBanners(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	banners, err := h.catalog.Banners(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, banners)
}

func (h *Handler) GetTestimonials(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	testimonials, err := h.catalog.Testimonials(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, testimonials)
}
