package http

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Medifly API - Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>html{box-sizing:border-box}*,*::before,*::after{box-sizing:inherit}body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.json',
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
    });
  </script>
</body>
</html>`

// DefaultSpecPath is where the OpenAPI document lives relative to the working directory.
const DefaultSpecPath = "api/openapi.yaml"

// SetupDocs registers Swagger UI at /docs and the OpenAPI document at
// /docs/openapi.yaml and /docs/openapi.json. The document is validated once
// at startup; an invalid or missing file disables the raw endpoints.
func SetupDocs(app *fiber.App, specPath string) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.SendString(swaggerUIHTML)
	})

	raw, asJSON, err := loadSpec(specPath)
	if err != nil {
		slog.Warn("api docs unavailable", "path", specPath, "error", err)
	}

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if raw == nil {
			return errNotFound(c, "openapi.yaml not found")
		}
		c.Set("Content-Type", "application/yaml")
		return c.Send(raw)
	})

	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		if asJSON == nil {
			return errNotFound(c, "openapi.json not found")
		}
		c.Set("Content-Type", fiber.MIMEApplicationJSON)
		return c.Send(asJSON)
	})
}

func loadSpec(path string) (raw, asJSON []byte, err error) {
	raw, err = os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("validate: %w", err)
	}
	asJSON, err = spec.MarshalJSON()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal: %w", err)
	}
	return raw, asJSON, nil
}
