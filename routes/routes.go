package routes

import (
	"github.com/Dosada05/bracket-live/handlers"
	"github.com/Dosada05/bracket-live/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	allowedOrigins []string,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/auth/me", authHandler.Me)
		r.Put("/users/avatar", userHandler.UploadAvatar)
		r.Get("/dashboard", tournamentHandler.Dashboard)
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournament)

		// Защищённые маршруты
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", tournamentHandler.Create)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Put("/{tournamentID}/join", tournamentHandler.Join)
			r.Post("/{tournamentID}/bracket", tournamentHandler.GenerateBracket)
			r.Put("/{tournamentID}/matches/{matchID}/winner", matchHandler.RecordWinner)
		})
	})

	router.Get("/ws", webSocketHandler.Serve)
}
