package internal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/bkovacev/runsight/internal/activities"
	"github.com/bkovacev/runsight/internal/auth"
	"github.com/bkovacev/runsight/internal/coach"
	"github.com/bkovacev/runsight/internal/config"
	"github.com/bkovacev/runsight/internal/middleware"
	"github.com/bkovacev/runsight/internal/mirror"
	"github.com/bkovacev/runsight/internal/misc"
	"github.com/bkovacev/runsight/internal/plan"
	"github.com/bkovacev/runsight/internal/strava"
	"github.com/bkovacev/runsight/internal/telemetry/metrics"
	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config         *config.Config
	refreshService *activities.RefreshService
	planLoader     *plan.Loader
	coachAdvisor   *coach.Advisor
	quotesManager  *misc.QuotesManager

	authService *auth.Service
	admin       *auth.Admin

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	StravaClientID          string
	StravaClientSecret      string
	StravaRefreshToken      string
	OpenAIApiKey            string
	GitHubToken             string
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	HoneycombTracingEnabled bool
}

func NewServer(
	_ context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // will be set to 1 when all is set and ran

	authService := auth.NewService(auth.DefaultTTL)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean()
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "runsight-backend")
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	tokenProvider := strava.NewTokenProvider(
		params.Config.StravaTokenURL,
		params.StravaClientID,
		params.StravaClientSecret,
		params.StravaRefreshToken,
		tracedHttpClient,
	)
	stravaApi := strava.NewApi(params.Config.StravaBaseURL, tracedHttpClient)

	var cacheMirror *mirror.GitHubMirror
	if params.GitHubToken != "" {
		cacheMirror = mirror.NewGitHubMirror(
			tracedHttpClient,
			params.GitHubToken,
			params.Config.GitHubOwner,
			params.Config.GitHubRepo,
			params.Config.GitHubBranch,
			params.Config.GitHubFilePath,
		)
	} else {
		log.Warnln("github token not set, remote cache mirror disabled")
	}

	refreshService := newRefreshService(
		tokenProvider, stravaApi,
		activities.NewStore(params.Config.CacheFilePath),
		cacheMirror,
		metricsManager,
		params.Config,
	)

	planLoader := plan.NewLoader(params.Config.PlanFilePath)

	coachAdvisor := coach.NewAdvisor(
		openai.NewClient(params.OpenAIApiKey),
		refreshService,
		planLoader,
		params.Config.OpenAIModel,
		params.Config.CoachRecentCount,
		params.Config.CoachUpcomingCount,
	)

	s := &Server{
		config:         params.Config,
		versionInfo:    params.VersionInfo,
		refreshService: refreshService,
		planLoader:     planLoader,
		coachAdvisor:   coachAdvisor,

		authService: authService,
		admin: &auth.Admin{
			Username:     params.AdminUsername,
			PasswordHash: params.AdminPasswordHash,
		},

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	quotesCsvFile, err := os.Open(params.Config.QuotesCsvPath)
	if err != nil {
		return nil, fmt.Errorf("open quotes file: %w", err)
	}
	defer func() {
		if err := quotesCsvFile.Close(); err != nil {
			log.Warnf("close quotes csv file: %s", err)
		}
	}()

	s.quotesManager, err = misc.NewQuoteManager(csv.NewReader(quotesCsvFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create quote manager: %s", err)
	}

	return s, nil
}

func newRefreshService(
	tokenProvider *strava.TokenProvider,
	stravaApi *strava.Api,
	store *activities.Store,
	cacheMirror *mirror.GitHubMirror,
	metricsManager *metrics.Manager,
	cfg *config.Config,
) *activities.RefreshService {
	// a nil *GitHubMirror in a non-nil interface value would dodge the
	// service's mirror-disabled check
	if cacheMirror == nil {
		return activities.NewRefreshService(
			tokenProvider, stravaApi, store, nil,
			metricsManager,
			time.Duration(cfg.FetchTTLMinutes)*time.Minute,
			cfg.ActivitiesPerPage,
			cfg.MaxDetailedFetches,
		)
	}
	return activities.NewRefreshService(
		tokenProvider, stravaApi, store, cacheMirror,
		metricsManager,
		time.Duration(cfg.FetchTTLMinutes)*time.Minute,
		cfg.ActivitiesPerPage,
		cfg.MaxDetailedFetches,
	)
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	activitiesHandler := activities.NewHandler(s.refreshService)
	r.HandleFunc("/activities", activitiesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-activities")
	r.HandleFunc("/activities/refresh", activitiesHandler.HandleRefresh).Methods("POST", "OPTIONS").Name("refresh-activities")
	r.HandleFunc("/activities/stats", activitiesHandler.HandleStats).Methods("GET", "OPTIONS").Name("activities-stats")

	planHandler := plan.NewHandler(s.planLoader)
	r.HandleFunc("/plan", planHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/plan/edit", planHandler.HandleEdit).Methods("POST", "OPTIONS").Name("edit-plan")

	coachHandler := coach.NewHandler(s.coachAdvisor, s.metricsManager)
	r.HandleFunc("/coach/ask", coachHandler.HandleAsk).Methods("POST", "OPTIONS").Name("ask-coach")

	miscHandler := misc.NewHandler(s.quotesManager, s.versionInfo, s.authService, s.admin)
	miscHandler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
