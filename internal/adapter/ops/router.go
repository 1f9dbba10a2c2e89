package ops

import "net/http"

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler)
}

func NewRouter(ledger RouteRegistrar, authMiddleware func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	if ledger != nil {
		ledger.RegisterRoutes(mux, authMiddleware)
	}
	return mux
}
