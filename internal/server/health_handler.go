package server

import (
	"net/http"

	"github.com/halcyon-ai/relaygw/internal/svc"
)

type handlers struct {
	ctx *svc.Context
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
