package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/cuesports/tournament-hub/handlers"
	"github.com/cuesports/tournament-hub/middleware"
	"github.com/cuesports/tournament-hub/models"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Match       *handlers.MatchHandler
	WebSocket   *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Post("/auth/register", h.Auth.RegisterHandler)
	router.Post("/auth/login", h.Auth.LoginHandler)

	router.Route("/users", func(r chi.Router) {
		r.Get("/", h.User.ListPlayersHandler)
		r.Get("/{userID}", h.User.GetUserHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", h.User.GetCurrentUserHandler)
			r.Put("/me", h.User.UpdateProfileHandler)
			r.Put("/me/avatar", h.User.UploadAvatarHandler)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListTournamentsHandler)
		r.Get("/{tournamentID}", h.Tournament.GetTournamentHandler)
		r.Get("/{tournamentID}/bracket", h.Tournament.GetBracketHandler)
		r.Get("/{tournamentID}/participants", h.Participant.ListParticipantsHandler)
		r.Get("/{tournamentID}/matches", h.Match.ListTournamentMatchesHandler)
		r.Get("/{tournamentID}/ws", h.WebSocket.SubscribeTournamentHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/join", h.Participant.JoinTournamentHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", h.Tournament.CreateTournamentHandler)
			r.Put("/{tournamentID}", h.Tournament.UpdateTournamentHandler)
			r.Delete("/{tournamentID}", h.Tournament.DeleteTournamentHandler)
			r.Put("/{tournamentID}/logo", h.Tournament.UploadLogoHandler)
			r.Post("/{tournamentID}/bracket", h.Tournament.GenerateBracketHandler)
			r.Post("/{tournamentID}/start", h.Tournament.StartTournamentHandler)
		})
	})

	router.Route("/participants", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Put("/{participantID}/paid", h.Participant.SetPaidHandler)
			r.Post("/{participantID}/check-in", h.Participant.CheckInHandler)
			r.Delete("/{participantID}", h.Participant.RemoveParticipantHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/live", h.Match.ListLiveMatchesHandler)
		r.Get("/{matchID}", h.Match.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/{matchID}/start", h.Match.StartMatchHandler)
			r.Post("/{matchID}/pause", h.Match.PauseMatchHandler)
			r.Post("/{matchID}/resume", h.Match.ResumeMatchHandler)
			r.Post("/{matchID}/finish", h.Match.FinishMatchHandler)
			r.Post("/{matchID}/score", h.Match.IncrementScoreHandler)
			r.Put("/{matchID}/table", h.Match.AssignTableHandler)
		})
	})

	return router
}
