package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/engage-forms/internal/http/v1/actions"
	"github.com/janisto/engage-forms/internal/service/dispatch"
)

// Register wires all v1 HTTP routes into the provided API router.
func Register(api huma.API, d *dispatch.Dispatcher) {
	actions.Register(api, d)
}
