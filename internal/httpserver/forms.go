package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"spicegarden-storefront/internal/form"
)

type fieldChangeRequest struct {
	Value string `json:"value"`
}

func (h *handlers) writeOutcome(c *gin.Context, ctl *form.Controller, out form.Outcome) {
	resp := formResponse{Outcome: out}
	if lines, _ := ctl.Cart(); len(lines) > 0 {
		v := toCartView(lines)
		resp.Cart = &v
	}
	c.JSON(http.StatusOK, resp)
}

// openForm is the form page load. from=menu hands the menu cart over to forms
// that accept it.
func (h *handlers) openForm(c *gin.Context) {
	opts := []form.Option{form.WithExtra("user_agent", c.Request.UserAgent())}
	if c.Query("from") == "menu" {
		opts = append(opts, form.WithCartHandoff())
	}
	ctl, out, err := sessionFrom(c).OpenForm(c.Request.Context(), c.Param("form"), opts...)
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	h.writeOutcome(c, ctl, out)
}

func (h *handlers) controller(c *gin.Context) (*form.Controller, bool) {
	ctl, err := sessionFrom(c).Form(c.Request.Context(), c.Param("form"))
	if err != nil {
		h.writeFailure(c, err)
		return nil, false
	}
	return ctl, true
}

func (h *handlers) formSnapshot(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	h.writeOutcome(c, ctl, ctl.Snapshot())
}

func (h *handlers) changeField(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	var req fieldChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := ctl.HandleFieldChange(c.Param("field"), req.Value)
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	h.writeOutcome(c, ctl, out)
}

func (h *handlers) blurField(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	out, err := ctl.HandleBlur(c.Param("field"))
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	h.writeOutcome(c, ctl, out)
}

// submitForm waits for the backend. A visitor disconnecting does not cancel
// a submission already handed to the transport.
func (h *handlers) submitForm(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	out := ctl.HandleSubmit(context.WithoutCancel(c.Request.Context()))
	if out.Ignored {
		c.JSON(http.StatusConflict, formResponse{Outcome: out})
		return
	}
	h.writeOutcome(c, ctl, out)
}
