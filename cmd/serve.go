package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/fetcher"
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/resolver"
	"github.com/sells-group/estimate-cli/internal/store"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the estimate HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cat, err := loadCatalog(ctx, st)
		if err != nil {
			return err
		}

		api := &apiServer{store: st, resolver: newResolver(cat)}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownServer(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownServer drains in-flight requests on its own clock; the signal
// context that triggered it is already canceled.
func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

type apiServer struct {
	store    store.Store
	resolver *resolver.Resolver
}

func (a *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/estimates", func(r chi.Router) {
		r.Get("/", a.listEstimates)
		r.Post("/", a.createEstimate)
		r.Get("/{id}", a.getEstimate)
		r.Delete("/{id}", a.deleteEstimate)
	})
	r.Post("/import", a.importWorkbook)
	return r
}

func (a *apiServer) listEstimates(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.store.ListEstimates(r.Context(), store.ListFilter{
		Name: r.URL.Query().Get("name"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.EstimateSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (a *apiServer) createEstimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	tree := model.NewEstimateTree(req.Name, cfg.SurchargeList())
	id, err := a.store.SaveEstimate(r.Context(), tree)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "name": tree.Name})
}

func (a *apiServer) getEstimate(w http.ResponseWriter, r *http.Request) {
	tree, err := a.store.GetEstimate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (a *apiServer) deleteEstimate(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteEstimate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importWorkbook accepts a multipart upload ("workbook" field), resolves it,
// and stores the resulting estimate.
func (a *apiServer) importWorkbook(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("workbook")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workbook file is required"})
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "upload-*.xlsx")
	if err != nil {
		writeError(w, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, err)
		return
	}
	tmp.Close()

	sheets, err := fetcher.ReadWorkbook(tmp.Name())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	name := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	tree, report, err := a.resolver.Resolve(name, sheets)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id, err := a.store.SaveEstimate(r.Context(), tree)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          id,
		"name":        tree.Name,
		"parts":       len(tree.Parts),
		"grand_total": tree.General.GrandTotal,
		"report":      report,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrDuplicateName):
		status = http.StatusBadRequest
	}
	zap.L().Warn("request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
