package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-course-store/internal/domain"
)

type authRequest struct {
	InitData string `json:"initData"`
}

func (s *Server) handleAuthTelegram(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InitData == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, hash, err := VerifyInitData(req.InitData, s.botToken, s.initDataTTL, time.Now())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "init data rejected")
		return
	}

	// Replay window matches the init-data freshness window: a payload is
	// single-use while it would still verify.
	first, err := s.replay.FirstUse(r.Context(), hash, s.initDataTTL)
	if err != nil {
		s.log.Warn().Err(err).Msg("replay guard unavailable, accepting init data unchecked")
	} else if !first {
		writeError(w, http.StatusUnauthorized, "init data already used")
		return
	}

	user, err := s.userUC.EnsureUser(r.Context(), *profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	token, err := s.sessions.Mint(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

type purchaseRequest struct {
	CourseID string `json:"courseId"`
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "courseId is required")
		return
	}

	created, err := s.orderUC.CreateOrder(r.Context(), user, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusNotFound, "course not found")
		case errors.Is(err, domain.ErrAlreadyOwned):
			writeError(w, http.StatusConflict, "course already purchased")
		default:
			s.log.Error().Err(err).Int64("user_id", user.ID).Str("course_id", req.CourseID).Msg("create order failed")
			writeError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orderId":    created.OrderID,
		"approveUrl": created.ApproveURL,
		"price":      created.Price,
		"amount":     created.Amount,
		"currency":   created.Currency,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	courses, err := s.courseUC.Catalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": courses})
}

func (s *Server) handleOwnedCourses(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	owned, err := s.courseUC.Owned(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": owned})
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

func (s *Server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	courseID := chi.URLParam(r, "courseID")

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.courseUC.SetFavorite(r.Context(), user.ID, courseID, req.Favorite); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not owned")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
