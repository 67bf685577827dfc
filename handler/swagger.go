package handler

import (
	_ "embed"
	"net/http"

	"github.com/swaggo/swag"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

// swaggerDoc serves the embedded document to http-swagger's doc.json route.
type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string {
	return string(swaggerJSON)
}

func init() {
	swag.Register(swag.Name, swaggerDoc{})
}

func (h *Handler) handleSwaggerFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(swaggerJSON)
	}
}
