package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
)

//go:embed openapi.yaml
var openapiDocument []byte

var loadOpenAPI = sync.OnceValues(func() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(openapiDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
})

// OpenAPI returns the parsed and validated document describing the /api/v1 routes.
func OpenAPI() (*openapi3.T, error) {
	return loadOpenAPI()
}

// OpenAPIDocument handles GET /api/v1/openapi.json.
func (s *Server) OpenAPIDocument(ctx echo.Context) error {
	doc, err := OpenAPI()
	if err != nil {
		return s.failure(ctx, err, "Failed to load API document")
	}
	return ctx.JSON(http.StatusOK, doc)
}
