package relay

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// TranscriptPath is where the relay serves caption documents.
const TranscriptPath = "/api/transcript"

// NewRouter wires the relay endpoints.
func NewRouter(fetcher CaptionFetcher, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(cors.Handler(CORSOptions(allowedOrigins)))

	h := NewHandler(fetcher)
	r.Get(TranscriptPath, h.Get)
	r.Post(TranscriptPath, h.Post)
	r.Options(TranscriptPath, h.Options)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}
