package usecases

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/samirrijal/medifly/internal/core/usecases")
