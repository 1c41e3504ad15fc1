package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/usecase"
)

// Server wires the mini-app API and the provider webhook endpoint.
type Server struct {
	orderUC   usecase.OrderUseCase
	webhookUC usecase.WebhookUseCase
	courseUC  usecase.CourseUseCase
	userUC    usecase.UserUseCase

	sessions *SessionManager
	replay   adapter.ReplayGuard
	// verifier is nil when no webhook id is configured; the handler then
	// fails closed in production and logs an insecure passthrough in dev.
	verifier adapter.WebhookVerifier

	botToken    string
	initDataTTL time.Duration
	production  bool
	log         *zerolog.Logger
}

func NewServer(
	orderUC usecase.OrderUseCase,
	webhookUC usecase.WebhookUseCase,
	courseUC usecase.CourseUseCase,
	userUC usecase.UserUseCase,
	sessions *SessionManager,
	replay adapter.ReplayGuard,
	verifier adapter.WebhookVerifier,
	botToken string,
	initDataTTL time.Duration,
	production bool,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		orderUC:     orderUC,
		webhookUC:   webhookUC,
		courseUC:    courseUC,
		userUC:      userUC,
		sessions:    sessions,
		replay:      replay,
		verifier:    verifier,
		botToken:    botToken,
		initDataTTL: initDataTTL,
		production:  production,
		log:         &l,
	}
}

// Routes builds the public router.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/auth/telegram", s.handleAuthTelegram)
	r.Get("/courses", s.handleCatalog)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Post("/purchase/create", s.handleCreatePurchase)
		r.Get("/courses/my", s.handleOwnedCourses)
		r.Post("/courses/{courseID}/favorite", s.handleSetFavorite)
	})

	r.Post("/webhooks/paypal", s.handlePayPalWebhook)
	r.Get("/webhooks/paypal/test", s.handleWebhookTest)

	return r
}

type ctxKey string

const ctxUser ctxKey = "user"

// sessionMiddleware authenticates the bearer session token and loads the
// user into the request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.sessions.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := s.userUC.FindByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, user)))
	})
}

func userFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxUser).(*model.User)
	return u
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
