package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentry_frames_sent_total",
		Help: "Frames entregados al transporte por canal",
	}, []string{"channel"})
	FramesDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentry_frames_degraded_total",
		Help: "Frames enviados por encima del presupuesto seguro del MTU",
	}, []string{"channel"})
	FramesRefused = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentry_frames_refused_total",
		Help: "Frames descartados (tope duro o estrategia estricta)",
	}, []string{"channel"})
	FrameBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentry_frame_bytes",
		Help:    "Tamaño de cada frame entregado",
		Buckets: []float64{20, 64, 128, 182, 256, 384, 509, 512},
	})
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentry_commands_total",
		Help: "Comandos procesados por tipo y resultado",
	}, []string{"command", "outcome"})
	LinkConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentry_link_connections_total",
		Help: "Conexiones de cliente aceptadas",
	})
	LinkDisconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentry_link_disconnects_total",
		Help: "Desconexiones de cliente",
	})
	Readvertise = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentry_readvertise_total",
		Help: "Reanuncios exitosos tras una desconexión",
	})
	ConfigStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentry_config_store_errors_total",
		Help: "Errores al guardar configuración recibida por comando",
	})
	NotifyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentry_notify_errors_total",
		Help: "Errores devueltos por el transporte al notificar",
	}, []string{"channel"})
)

// MetricsHandler expone /metrics y /healthz.
func MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// StartMetricsServer sirve métricas hasta que ctx se cancela.
func StartMetricsServer(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
