package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spicegarden-storefront/internal/cart"
	"spicegarden-storefront/internal/catalog"
	"spicegarden-storefront/internal/domain"
	"spicegarden-storefront/internal/form"
)

type handlers struct {
	logger  *log.Logger
	catalog *catalog.Catalog
}

type menuItemView struct {
	domain.MenuItem
	QuickOrderURL string `json:"quickOrderUrl"`
	Favorite      bool   `json:"favorite,omitempty"`
}

type menuResponse struct {
	Restaurant catalog.Restaurant `json:"restaurant"`
	Categories []string           `json:"categories"`
	Items      []menuItemView     `json:"items"`
}

type cartLineView struct {
	cart.Line
	LineTotalCents int64 `json:"lineTotalCents"`
}

type cartView struct {
	Items      []cartLineView `json:"items"`
	TotalCents int64          `json:"totalCents"`
	ItemCount  int            `json:"itemCount"`
}

type cartResponse struct {
	Cart     cartView       `json:"cart"`
	Notice   *domain.Notice `json:"notice,omitempty"`
	Redirect string         `json:"redirect,omitempty"`
}

type formResponse struct {
	form.Outcome
	Cart *cartView `json:"cart,omitempty"`
}

func toCartView(lines []cart.Line) cartView {
	v := cartView{Items: make([]cartLineView, 0, len(lines))}
	for _, l := range lines {
		v.Items = append(v.Items, cartLineView{Line: l, LineTotalCents: l.TotalCents()})
		v.TotalCents += l.TotalCents()
		v.ItemCount += l.Quantity
	}
	return v
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// writeFailure maps not-found errors to 404 and logs everything else as 500.
func (h *handlers) writeFailure(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, form.ErrUnknownField) {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	writeError(c, http.StatusInternalServerError, "internal error")
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}
