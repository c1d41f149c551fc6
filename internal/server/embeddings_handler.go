package server

import (
	"hash/fnv"
	"math/rand"
	"net/http"

	"github.com/halcyon-ai/relaygw/internal/apierr"
	"github.com/halcyon-ai/relaygw/internal/httputil"
)

const defaultEmbeddingDimensions = 1536

type embeddingsRequest struct {
	Model      string `json:"model"`
	Input      any    `json:"input"`
	Dimensions int    `json:"dimensions"`
}

type embeddingObject struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingsResponse struct {
	Object string            `json:"object"`
	Data   []embeddingObject `json:"data"`
	Model  string            `json:"model"`
}

// embeddings is deliberately thin: no real embedding backend exists, so each
// input string seeds a deterministic pseudo-random vector via FNV-1a. This
// is NOT a semantic embedding and must never be treated as one.
func (h *handlers) embeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if err := httputil.Parse(r, &req); err != nil {
		httputil.ErrorWithCode(w, apierr.HTTPStatus(apierr.CallerError), "invalid request body")
		return
	}

	inputs := inputStrings(req.Input)
	if len(inputs) == 0 {
		httputil.ErrorWithCode(w, apierr.HTTPStatus(apierr.CallerError), "input must be a non-empty string or array of strings")
		return
	}

	dims := req.Dimensions
	if dims <= 0 {
		dims = defaultEmbeddingDimensions
	}

	data := make([]embeddingObject, len(inputs))
	for i, s := range inputs {
		data[i] = embeddingObject{Object: "embedding", Index: i, Embedding: deterministicVector(s, dims)}
	}

	httputil.OkJSON(w, embeddingsResponse{Object: "list", Data: data, Model: req.Model})
}

func inputStrings(input any) []string {
	switch v := input.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func deterministicVector(text string, dims int) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	src := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float64, dims)
	for i := range vec {
		vec[i] = src.Float64()*2 - 1
	}
	return vec
}
