package app

import (
	"net/http"

	"vimeet/pkg/config"
	"vimeet/pkg/handlers"
	"vimeet/pkg/logging"
	"vimeet/pkg/room"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the application server
type Server struct {
	router      *mux.Router
	coordinator *room.Coordinator
	handlers    *handlers.Handlers
	config      *config.Config
}

// NewServer creates a new server instance
func NewServer() *Server {
	cfg := config.Load()

	coordinator := room.NewCoordinator()
	go coordinator.Run()

	h := handlers.NewHandlers(coordinator)

	r := mux.NewRouter()

	// Redirect the root to the bundled client
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/static/websocket.html", http.StatusFound)
	}).Methods("GET")

	// WebSocket endpoint; room and name come from the path
	r.HandleFunc("/ws/{room}/{name}/", h.HandleWebSocket)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Static resources
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	return &Server{
		router:      r,
		coordinator: coordinator,
		handlers:    h,
		config:      cfg,
	}
}

// Start starts the server
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = s.config.GetServerAddr()
	}
	logging.S().Infof("Binding server to %s", addr)
	return http.ListenAndServe(addr, s.router)
}
