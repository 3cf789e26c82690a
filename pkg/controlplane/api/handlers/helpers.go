package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/dittodrive/pkg/controlplane/api/middleware"
	"github.com/marmos91/dittodrive/pkg/drive/access"
)

// maxJSONBody caps request bodies decoded as JSON.
const maxJSONBody = 1 << 20

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// requireActor returns the authenticated caller, writing 401 when there is
// none.
func requireActor(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		Unauthorized(w, "Authentication required")
	}
	return actor, ok
}
