package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type ProductHandler struct {
	Catalog *service.CatalogService
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var prod models.Product
	if err := c.Bind(&prod); err != nil {
		return badBody(l, "product_create_failed", err)
	}

	created, err := h.Catalog.CreateProduct(ctx, prod)
	if err != nil {
		return failure(l, "product_create_failed", err)
	}
	l.Info("product_created", "product_id", created.ID)
	return c.JSON(http.StatusCreated, transport.CreateProductResponse{Message: "Product created", ProductID: created.ID})
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	products, err := h.Catalog.ListProducts(ctx, c.QueryParam("search"))
	if err != nil {
		return failure(l, "product_list_failed", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	prod, err := h.Catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return failure(l, "product_get_failed", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	var patch transport.ProductPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(l, "product_update_failed", err)
	}

	if _, err := h.Catalog.UpdateProduct(ctx, c.Param("id"), patch); err != nil {
		return failure(l, "product_update_failed", err)
	}
	l.Info("product_updated", "product_id", c.Param("id"))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product updated"})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	if err := h.Catalog.DeleteProduct(ctx, c.Param("id")); err != nil {
		return failure(l, "product_delete_failed", err)
	}
	l.Info("product_deleted", "product_id", c.Param("id"))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted"})
}
