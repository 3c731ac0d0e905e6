package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/algomentor/dsa-tutor/backend/internal/config"
	"github.com/algomentor/dsa-tutor/backend/internal/handler/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/handler/persona"
	"github.com/algomentor/dsa-tutor/backend/internal/handler/stream"
	"github.com/algomentor/dsa-tutor/backend/internal/handler/ws"
	middlewarePkg "github.com/algomentor/dsa-tutor/backend/internal/middleware"
	personaModel "github.com/algomentor/dsa-tutor/backend/internal/model/persona"
	aiService "github.com/algomentor/dsa-tutor/backend/internal/service/ai"
	"github.com/algomentor/dsa-tutor/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, aiSvc *aiService.Service, cors config.CORSConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.NewCORS(cors.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"configured": aiSvc.Configured(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(personas).RegisterRoutes(api)
		chat.New(aiSvc).RegisterRoutes(api)
		stream.New(aiSvc).RegisterRoutes(api)
		ws.New(aiSvc, middlewarePkg.AllowsOrigin(cors.AllowedOrigins)).RegisterRoutes(api)
	})

	return r
}
