package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/attendance/internal/web/handlers"
	"github.com/kozaktomas/attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	identitiesHandler := handlers.NewIdentitiesHandler(s.engine, s.detector)
	recognizeHandler := handlers.NewRecognizeHandler(s.engine, s.detector)
	attendanceHandler := handlers.NewAttendanceHandler(s.engine)
	nearestHandler := handlers.NewNearestHandler(s.engine)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Kiosk and dashboard routes
		r.Get("/identities", identitiesHandler.List)
		r.Post("/recognize", recognizeHandler.Recognize)
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/dashboard", attendanceHandler.Dashboard)
		r.Post("/nearest", nearestHandler.Search)

		// Administrative routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(s.config.Admin))

			r.Post("/identities", identitiesHandler.Create)
			r.Delete("/identities/{name}", identitiesHandler.Delete)
			r.Delete("/attendance/{date}", attendanceHandler.DeleteDate)
			r.Delete("/attendance/identity/{name}", attendanceHandler.DeleteIdentity)
		})
	})
}
