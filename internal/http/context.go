package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

const actorHeader = "X-Actor"

// routeID returns the {id} path variable captured by the router.
func routeID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	return id, id != ""
}

// routeTemplate reports the matched route pattern, or "unmatched" when the
// request did not hit a registered route.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tpl
}
