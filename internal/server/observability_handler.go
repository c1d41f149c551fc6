package server

import (
	"net/http"

	"github.com/google/uuid"
)

func (h *handlers) observabilityStream(w http.ResponseWriter, r *http.Request) {
	h.ctx.Hub.ServeWS(w, r, uuid.NewString())
}
