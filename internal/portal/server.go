package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/credstore"
	"github.com/muurk/wifiprov/internal/logging"
)

const (
	// DefaultAddr is the portal listen address
	DefaultAddr = ":80"

	// DefaultBodyLimit is the largest accepted POST /connect body in bytes
	DefaultBodyLimit = 100
)

// Config holds the portal configuration
type Config struct {
	Addr      string
	BodyLimit int
}

// CredentialSaver durably writes a credential pair
type CredentialSaver interface {
	Save(credstore.Pair) error
}

// Submitter receives credentials once they have been saved
type Submitter interface {
	Submit(ctx context.Context, pair credstore.Pair) error
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, pair credstore.Pair) error

// Submit implements Submitter
func (f SubmitterFunc) Submit(ctx context.Context, pair credstore.Pair) error {
	return f(ctx, pair)
}

// Submission results reported to a Recorder
const (
	ResultAccepted    = "accepted"
	ResultRejected    = "rejected"
	ResultStoreFailed = "store_failed"
	ResultNotApplied  = "not_applied"
)

// Recorder counts submission outcomes
type Recorder interface {
	IncSubmission(result string)
}

type nopRecorder struct{}

func (nopRecorder) IncSubmission(string) {}

// Server is the provisioning HTTP endpoint
type Server struct {
	config    *Config
	store     CredentialSaver
	submitter Submitter
	recorder  Recorder

	// submissions are handled one at a time
	submitMu sync.Mutex

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	started    []func(addr string)
}

// New creates a portal server
func New(config *Config, store CredentialSaver, submitter Submitter) *Server {
	if config == nil {
		config = &Config{}
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.BodyLimit <= 0 {
		config.BodyLimit = DefaultBodyLimit
	}
	return &Server{
		config:    config,
		store:     store,
		submitter: submitter,
		recorder:  nopRecorder{},
	}
}

// SetRecorder installs a submission outcome recorder
func (s *Server) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.recorder = r
}

// OnStart registers a callback invoked with the bound address once the
// portal is listening.
func (s *Server) OnStart(fn func(addr string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, fn)
}

// Handler returns the portal's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /connect", s.handleConnect)
	return withRequestLogging(mux)
}

// Start begins listening and serving in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("portal already started")
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Provisioning portal listening", zap.String("addr", listener.Addr().String()))

	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Provisioning portal stopped", zap.Error(err))
		}
	}(s.httpServer)

	for _, fn := range s.started {
		fn(listener.Addr().String())
	}
	return nil
}

// Addr returns the bound address, or "" before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the portal if it was started
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	logging.Info("Shutting down provisioning portal")
	return srv.Shutdown(ctx)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	writePage(w, http.StatusOK, formPage)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, s.config.BodyLimit)
	if err != nil {
		logging.Warn("Rejected provisioning request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		s.recorder.IncSubmission(ResultRejected)
		if errors.Is(err, errBodyTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	logging.LogRawBytes("Provisioning form body", redactBody(body))

	pair := ParseSubmission(body)
	if !pair.Present() {
		logging.Warn("Submitted network name is empty", zap.String("remote_addr", r.RemoteAddr))
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if err := s.store.Save(pair); err != nil {
		logging.Error("Failed to save submitted credentials", zap.Error(err))
		s.recorder.IncSubmission(ResultStoreFailed)
		writePage(w, http.StatusInternalServerError, failurePage)
		return
	}

	if err := s.submitter.Submit(r.Context(), pair); err != nil {
		logging.Warn("State machine did not apply submitted credentials", zap.Error(err))
		s.recorder.IncSubmission(ResultNotApplied)
		writePage(w, http.StatusServiceUnavailable, notAppliedPage)
		return
	}

	s.recorder.IncSubmission(ResultAccepted)
	writePage(w, http.StatusOK, ackPage)
}

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("empty request body")
)

// readBody reads one chunk of at most limit bytes
func readBody(r *http.Request, limit int) ([]byte, error) {
	if r.ContentLength > int64(limit) {
		return nil, errBodyTooLarge
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > limit {
		return nil, errBodyTooLarge
	}
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

// redactBody masks the secret for debug logging
func redactBody(body []byte) []byte {
	pair := ParseSubmission(body)
	return []byte(FieldNetworkName + "=" + pair.NetworkName + "&" + FieldSecret + "=***")
}

func writePage(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, page)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		logging.LogHTTPRequest(id, r.RemoteAddr, r.Method, r.URL.Path, r.ContentLength)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.LogHTTPResponse(id, r.RemoteAddr, rec.status)
	})
}
