package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"billed/internal/auth"
	"billed/internal/containers"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/middleware/ratelimit"
	"billed/internal/middleware/security"
	"billed/internal/middleware/trace"
	"billed/internal/routes"
	"billed/internal/store"
	"billed/internal/views"
	appweb "billed/web"
)

const defaultFetchTimeout = 7 * time.Second

// Bills is the bill source the handlers read from and write to.
type Bills interface {
	store.BillLister
	store.BillGetter
	store.BillWriter
}

// Deps are the collaborators of the server. Renderer, Bills, Auth, JWT and
// Nav are required.
type Deps struct {
	Renderer *views.Renderer
	Bills    Bills
	Auth     *auth.PasswordAuthenticator
	JWT      *auth.JWTManager
	Nav      *containers.Navigation
	Metrics  *metrics.Registry
	Limiter  *ratelimit.Limiter
	Logger   *log.Logger

	// ReceiptsDir holds uploaded receipts; a temp dir is used when empty.
	ReceiptsDir string
	// Ready reports whether the bill source is reachable, for /readyz.
	Ready func(ctx context.Context) error
	// FetchTimeout bounds one bills list fetch.
	FetchTimeout time.Duration
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed for the
	// client IP.
	TrustedProxies []string
}

type Server struct {
	http.Server
	deps     Deps
	logger   *log.Logger
	detector *security.Detector
	receipts *receiptStore
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Renderer == nil || deps.Bills == nil || deps.Auth == nil || deps.JWT == nil || deps.Nav == nil {
		return nil, errors.New("http: renderer, bills, auth, jwt and navigation are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig(), deps.Logger, deps.Metrics)
	}
	if deps.FetchTimeout <= 0 {
		deps.FetchTimeout = defaultFetchTimeout
	}
	if deps.ReceiptsDir == "" {
		deps.ReceiptsDir = filepath.Join(os.TempDir(), "billed-receipts")
	}

	receipts, err := newReceiptStore(deps.ReceiptsDir)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		deps:     deps,
		logger:   logger,
		detector: security.NewDetector(deps.Logger, deps.Metrics),
		receipts: receipts,
		started:  time.Now(),
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	tracer := trace.NewMiddleware(deps.Logger, deps.Metrics, s.detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := deps.Limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)

	var handler http.Handler = trace.RecordRoute(mux)
	handler = limit(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.GetRequestID)(handler)
	handler = log.Middleware(deps.Logger)(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	mux.Handle("GET "+ReceiptsPrefix, s.receipts.Handler())

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())

	mux.HandleFunc("GET /{$}", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	employee := s.deps.JWT.Middleware(core.Employee)
	admin := s.deps.JWT.Middleware(core.Admin)

	mux.Handle("GET "+routes.Bills, employee(security.NoStore(http.HandlerFunc(s.handleBills))))
	mux.Handle("GET /ui/bills", employee(security.NoStore(http.HandlerFunc(s.handleBillsContent))))
	mux.Handle("GET /ui/receipt", employee(security.NoStore(http.HandlerFunc(s.handleReceipt))))
	mux.Handle("GET /ui/new-bill", employee(http.HandlerFunc(s.handleClickNewBill)))
	mux.Handle("GET "+routes.NewBill, employee(http.HandlerFunc(s.handleNewBillPage)))
	mux.Handle("POST "+routes.NewBill, employee(http.HandlerFunc(s.handleCreateBill)))
	mux.Handle("GET "+routes.Dashboard, admin(security.NoStore(http.HandlerFunc(s.handleDashboard))))

	mux.HandleFunc("/", s.handleNotFound)
	return nil
}

// Shutdown gracefully stops the server. Later calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Trop de requêtes, réessayez dans une minute").
		TriggerErrorNotification("Trop de requêtes").
		Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := s.deps.Renderer.NotFound(w); err != nil {
		s.logger.ErrorContext(r.Context(), "Not found page rendering failed", log.FieldError, err)
	}
}

// render writes a view with status. The view is buffered so a failed
// template still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError("Erreur d'affichage").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
