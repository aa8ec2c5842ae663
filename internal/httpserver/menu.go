package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spicegarden-storefront/internal/catalog"
)

// menu lists the available items, flagging the visitor's favourites.
func (h *handlers) menu(c *gin.Context) {
	favs, err := sessionFrom(c).Favorites().IDs(c.Request.Context())
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	favorite := make(map[int64]bool, len(favs))
	for _, id := range favs {
		favorite[id] = true
	}

	items := h.catalog.View(catalog.Query{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	})
	resp := menuResponse{
		Restaurant: h.catalog.Restaurant(),
		Categories: h.catalog.Categories(),
		Items:      make([]menuItemView, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, menuItemView{
			MenuItem:      it,
			QuickOrderURL: h.catalog.QuickOrderURL(it),
			Favorite:      favorite[it.ID],
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) quickOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	item, err := h.catalog.Item(id)
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.catalog.QuickOrderURL(item)})
}

func (h *handlers) faqSections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sections": h.catalog.FAQSections()})
}

func (h *handlers) faq(c *gin.Context) {
	s, err := h.catalog.FAQ(c.Param("section"))
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) favorites(c *gin.Context) {
	ids, err := sessionFrom(c).Favorites().IDs(c.Request.Context())
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

func (h *handlers) toggleFavorite(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if _, err := h.catalog.Item(id); err != nil {
		h.writeFailure(c, err)
		return
	}
	on, err := sessionFrom(c).Favorites().Toggle(c.Request.Context(), id)
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "favorite": on})
}
