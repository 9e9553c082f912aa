package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"cleanplate/internal/app"
	"cleanplate/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	R *app.ReviewService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/restaurants", h.listRestaurants)
	s.mux.Get("/v1/restaurants/{jurisdiction}/{id}", h.getRestaurant)
	s.mux.Get("/v1/restaurants/{jurisdiction}/{id}/reviews", h.listReviews)
	s.mux.Post("/v1/restaurants/{jurisdiction}/{id}/reviews", h.submitReview)
}

func identityParam(r *http.Request) domain.Identity {
	return domain.Identity{
		Jurisdiction: strings.ToLower(chi.URLParam(r, "jurisdiction")),
		ExternalID:   chi.URLParam(r, "id"),
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id := identityParam(r)
	resp, err := h.Q.GetRestaurant(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "restaurant not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeCached(w, r, resp)
}

func (h *Handlers) listRestaurants(w http.ResponseWriter, r *http.Request) {
	q := domain.RestaurantsQuery{}
	qs := r.URL.Query()

	if v := strings.TrimSpace(qs.Get("jurisdiction")); v != "" {
		j := strings.ToLower(v)
		q.Jurisdiction = &j
	}
	if v := strings.TrimSpace(qs.Get("grade")); v != "" {
		g := domain.Grade(strings.ToUpper(v))
		switch g {
		case domain.GradeA, domain.GradeB, domain.GradeC, domain.GradePass, domain.GradeFail, domain.GradeUnknown:
			q.Grade = &g
		default:
			writeProblem(w, http.StatusBadRequest, "Invalid grade", "grade must be one of A, B, C, PASS, FAIL, UNKNOWN")
			return
		}
	}
	if v := strings.TrimSpace(qs.Get("cuisine")); v != "" {
		q.Cuisine = &v
	}
	if v := strings.TrimSpace(qs.Get("q")); v != "" {
		q.Search = &v
	}
	if v := strings.TrimSpace(qs.Get("inspected_after")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid date", "inspected_after must be YYYY-MM-DD")
			return
		}
		q.InspectedAfter = &t
	}
	if ls := qs.Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}

	out, err := h.Q.ListRestaurants(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id := identityParam(r)

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	// Newest first; aligns with the index on (jurisdiction, external_id, created_at)
	out, err := h.Q.ListReviews(r.Context(), id, domain.PageQuery{Limit: limit, Sort: "-created_at"})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	id := identityParam(r)

	var in app.ReviewInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON review")
		return
	}

	rv, err := h.R.Submit(r.Context(), id, in)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeProblem(w, http.StatusBadRequest, "Validation failed", verrs.Error())
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(rv); err != nil {
		log.Error().Err(err).Msg("failed to write submitReview body")
	}
}
