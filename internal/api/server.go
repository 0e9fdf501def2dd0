// Package api exposes the stored articles and journals over a small
// read-only JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Aros2100/neuro-news/internal/store"
)

// maxPageSize caps the articles listing.
const maxPageSize = 200

// NewRouter builds the HTTP routes on top of a store.
func NewRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", handleHealth)
	r.Get("/api/articles", handleListArticles(st))
	r.Get("/api/articles/{pmid}", handleGetArticle(st))
	r.Get("/api/journals", handleListJournals(st))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleListArticles(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.ArticleFilter{
			Subspecialty: q.Get("subspecialty"),
			EnrichedOnly: q.Get("enriched") == "true",
			Limit:        50,
		}
		if v := q.Get("min_news_value"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "min_news_value must be an integer")
				return
			}
			filter.MinNewsValue = n
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			filter.Limit = min(n, maxPageSize)
		}
		if v := q.Get("offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
				return
			}
			filter.Offset = n
		}

		articles, err := st.ListArticles(r.Context(), filter)
		if err != nil {
			zap.L().Error("list articles failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"articles": articles,
			"count":    len(articles),
		})
	}
}

func handleGetArticle(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pmid := chi.URLParam(r, "pmid")

		article, err := st.GetArticleByPMID(r.Context(), pmid)
		if err != nil {
			zap.L().Error("get article failed", zap.String("pmid", pmid), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if article == nil {
			writeError(w, http.StatusNotFound, "article not found")
			return
		}
		writeJSON(w, http.StatusOK, article)
	}
}

func handleListJournals(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		journals, err := st.ListJournals(r.Context())
		if err != nil {
			zap.L().Error("list journals failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"journals": journals,
			"count":    len(journals),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
