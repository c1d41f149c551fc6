package server

import (
	"net/http"

	"github.com/halcyon-ai/relaygw/internal/httputil"
)

func (h *handlers) listModels(w http.ResponseWriter, r *http.Request) {
	httputil.OkJSON(w, h.ctx.Catalog.List())
}
