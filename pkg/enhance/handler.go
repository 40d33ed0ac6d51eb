package enhance

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slizzai/slizzai/pkg/errors"
)

// MaxUploadBytes caps the accepted raw tile size.
const MaxUploadBytes = 32 << 20

// NewHandler serves the super-sampling protocol on top of an Enhancer:
//
//	POST /supersample  multipart field "image" -> enhanced PNG
//	GET  /healthz      -> 200 "ok"
func NewHandler(e Enhancer, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &server{enhancer: e, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "ok")
	})
	r.Post(Path, s.supersample)
	return r
}

type server struct {
	enhancer Enhancer
	logger   *log.Logger
}

func (s *server) supersample(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		http.Error(w, "expected multipart form with field "+FormField, http.StatusBadRequest)
		return
	}
	f, _, err := r.FormFile(FormField)
	if err != nil {
		http.Error(w, "missing form field "+FormField, http.StatusBadRequest)
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, "read upload", http.StatusBadRequest)
		return
	}

	out, err := s.enhancer.Enhance(r.Context(), raw)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrCodeInvalidInput) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Warn("enhance failed", "err", err, "status", status)
		http.Error(w, errors.UserMessage(err), status)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
