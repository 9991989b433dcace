package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/pkg/types"
)

type Server struct {
	addr   string
	log    *logrus.Logger
	router *mux.Router
}

func New(addr string, log *logrus.Logger, pool *pgxpool.Pool, controllers ...types.Controller) *Server {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))
	router.Use(poolMiddleware(pool))
	router.Use(tenantMiddleware())

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	for _, c := range controllers {
		c.Register(router)
		log.WithField("controller", c.Key()).Info("registered controller")
	}

	return &Server{addr: addr, log: log, router: router}
}

// Start serves until ctx is cancelled, then drains in-flight requests for up
// to 10 seconds.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("address", s.addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
