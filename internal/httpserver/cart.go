package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spicegarden-storefront/internal/cart"
	"spicegarden-storefront/internal/domain"
	"spicegarden-storefront/internal/session"
)

type addItemRequest struct {
	ID int64 `json:"id" binding:"required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) writeCart(c *gin.Context, s *session.Session, notice *domain.Notice) {
	c.JSON(http.StatusOK, cartResponse{
		Cart:   toCartView(s.Cart().Sorted(c.Query("sort"))),
		Notice: notice,
	})
}

// loadCart is the menu page load; restore=1 reads back the saved snapshot.
func (h *handlers) loadCart(c *gin.Context) {
	s := sessionFrom(c)
	restore := c.Query("restore") == "1" || c.Query("restore") == "true"
	if err := s.OpenMenu(c.Request.Context(), restore); err != nil {
		h.writeFailure(c, err)
		return
	}
	h.writeCart(c, s, nil)
}

func (h *handlers) getCart(c *gin.Context) {
	h.writeCart(c, sessionFrom(c), nil)
}

func (h *handlers) clearCart(c *gin.Context) {
	s := sessionFrom(c)
	h.writeCart(c, s, s.ClearCart())
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	item, err := h.catalog.Item(req.ID)
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	s := sessionFrom(c)
	h.writeCart(c, s, s.AddItem(item))
}

func (h *handlers) updateCartItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if *req.Quantity > cart.MaxQuantity {
		writeError(c, http.StatusBadRequest, "quantity too large")
		return
	}
	s := sessionFrom(c)
	s.Cart().UpdateQuantity(id, *req.Quantity)
	h.writeCart(c, s, nil)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s := sessionFrom(c)
	s.Cart().Remove(id)
	h.writeCart(c, s, nil)
}

// checkout is "proceed to order". The browser follows redirect when set.
func (h *handlers) checkout(c *gin.Context) {
	s := sessionFrom(c)
	redirect, notice, err := s.ProceedToOrder(c.Request.Context())
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{
		Cart:     toCartView(s.Cart().Lines()),
		Notice:   notice,
		Redirect: redirect,
	})
}
