package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.api.HealthHandler)
	mux.HandleFunc("/version", s.api.VersionHandler)

	mux.HandleFunc("/recommendations", s.recommendations.RecommendationsHandler)
	mux.HandleFunc("/top-companies", s.recommendations.TopCompaniesHandler)
	mux.HandleFunc("/top-brokers", s.recommendations.TopBrokersHandler)
	mux.HandleFunc("/stats", s.recommendations.StatsHandler)
	mux.HandleFunc("/cleanup", s.recommendations.CleanupHandler)

	mux.HandleFunc("/", s.rootHandler)

	return mux
}

// rootHandler 404s anything that is not a registered route.
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	s.api.NotFoundHandler(w, r)
}
