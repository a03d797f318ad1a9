package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartHandler struct {
	Cart *service.CartService
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "cart_add_failed", err)
	}

	item, err := h.Cart.AddToCart(ctx, c.Param("productId"), req.Email, req.QuantityText())
	if err != nil {
		return failure(l, "cart_add_failed", err)
	}
	l.Info("cart_item_added", "item_id", item.ID, "product_id", item.ProductID)
	return c.JSON(http.StatusOK, transport.AddToCartResponse{Message: "Item added to cart", ItemID: item.ID})
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	items, err := h.Cart.GetCart(ctx, c.Param("email"))
	if err != nil {
		return failure(l, "cart_get_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHandler) RemoveCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	if err := h.Cart.RemoveCartItem(ctx, c.Param("itemId")); err != nil {
		return failure(l, "cart_remove_failed", err)
	}
	l.Info("cart_item_removed", "item_id", c.Param("itemId"))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Item removed from cart"})
}
