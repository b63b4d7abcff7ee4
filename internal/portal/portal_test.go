package portal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/wifiprov/internal/credstore"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	pairs []credstore.Pair
	err   error
}

func (r *recordingSubmitter) Submit(_ context.Context, pair credstore.Pair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.pairs = append(r.pairs, pair)
	return nil
}

func (r *recordingSubmitter) submitted() []credstore.Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]credstore.Pair(nil), r.pairs...)
}

type fixture struct {
	backend   *credstore.MemoryBackend
	store     *credstore.Store
	submitter *recordingSubmitter
	server    *Server
}

func newFixture() *fixture {
	backend := credstore.NewMemoryBackend()
	store := credstore.New(backend)
	submitter := &recordingSubmitter{}
	return &fixture{
		backend:   backend,
		store:     store,
		submitter: submitter,
		server:    New(&Config{Addr: "127.0.0.1:0"}, store, submitter),
	}
}

func (f *fixture) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestForm(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "name='ssid'")
	assert.Contains(t, body, "name='password'")
	assert.Contains(t, body, "action='/connect'")
}

func TestUnknownRoutes(t *testing.T) {
	f := newFixture()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/other", http.StatusNotFound},
		{http.MethodGet, "/connect", http.StatusMethodNotAllowed},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestConnect_SavesThenSubmits(t *testing.T) {
	f := newFixture()

	rec := f.post("ssid=HomeNet&password=hunter22")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ackPage, rec.Body.String())

	saved, ok := f.store.Load()
	require.True(t, ok)
	assert.Equal(t, credstore.Pair{NetworkName: "HomeNet", Secret: "hunter22"}, saved)
	assert.Equal(t, []credstore.Pair{saved}, f.submitter.submitted())
}

func TestConnect_TruncatesLongValues(t *testing.T) {
	f := newFixture()
	f.server = New(&Config{BodyLimit: 256}, f.store, f.submitter)

	name := strings.Repeat("n", 40)
	secret := strings.Repeat("s", 70)
	rec := f.post("ssid=" + name + "&password=" + secret)
	require.Equal(t, http.StatusOK, rec.Code)

	saved, ok := f.store.Load()
	require.True(t, ok)
	assert.Equal(t, name[:credstore.MaxNetworkNameLen], saved.NetworkName)
	assert.Equal(t, secret[:credstore.MaxSecretLen], saved.Secret)
}

func TestConnect_EmptyNetworkNameStillSubmitted(t *testing.T) {
	f := newFixture()

	rec := f.post("ssid=&password=x")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []credstore.Pair{{NetworkName: "", Secret: "x"}}, f.submitter.submitted())

	// an empty name reads back as absent
	_, ok := f.store.Load()
	assert.False(t, ok)
}

func TestConnect_EmptyBody(t *testing.T) {
	f := newFixture()

	rec := f.post("")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.submitter.submitted())
}

func TestConnect_OversizedBody(t *testing.T) {
	f := newFixture()

	rec := f.post("ssid=a&password=" + strings.Repeat("x", DefaultBodyLimit))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, f.submitter.submitted())
	_, ok := f.store.Load()
	assert.False(t, ok)
}

func TestConnect_OversizedBodyWithoutLength(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodPost, "/connect",
		io.NopCloser(strings.NewReader(strings.Repeat("x", DefaultBodyLimit+1))))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestConnect_BodyAtLimit(t *testing.T) {
	f := newFixture()

	prefix := "ssid=a&password="
	rec := f.post(prefix + strings.Repeat("x", DefaultBodyLimit-len(prefix)))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConnect_StoreFailure(t *testing.T) {
	f := newFixture()
	f.backend.FailCommits(errors.New("flash write failed"))

	rec := f.post("ssid=HomeNet&password=hunter22")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, failurePage, rec.Body.String())
	assert.Empty(t, f.submitter.submitted())
}

func TestConnect_SubmitterFailure(t *testing.T) {
	f := newFixture()
	f.submitter.err = context.Canceled

	rec := f.post("ssid=HomeNet&password=hunter22")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, notAppliedPage, rec.Body.String())
	// the pair is saved even though the hand-off failed
	saved, ok := f.store.Load()
	require.True(t, ok)
	assert.Equal(t, "HomeNet", saved.NetworkName)
}

func TestConnect_MachineRejectsPair(t *testing.T) {
	f := newFixture()
	counts := &countingRecorder{}
	f.server.SetRecorder(counts)
	f.submitter.err = errors.New("failed to configure client mode: radio busy")

	rec := f.post("ssid=HomeNet&password=hunter22")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Connecting...")
	assert.Equal(t, map[string]int{ResultNotApplied: 1}, counts.counts)
}

func TestConnect_LastSubmissionWins(t *testing.T) {
	f := newFixture()

	require.Equal(t, http.StatusOK, f.post("ssid=First&password=one").Code)
	require.Equal(t, http.StatusOK, f.post("ssid=Second&password=two").Code)

	saved, ok := f.store.Load()
	require.True(t, ok)
	assert.Equal(t, credstore.Pair{NetworkName: "Second", Secret: "two"}, saved)
	assert.Len(t, f.submitter.submitted(), 2)
}

func TestParseSubmission(t *testing.T) {
	tests := []struct {
		name string
		body string
		want credstore.Pair
	}{
		{"both fields", "ssid=HomeNet&password=hunter22", credstore.Pair{NetworkName: "HomeNet", Secret: "hunter22"}},
		{"reversed order", "password=hunter22&ssid=HomeNet", credstore.Pair{NetworkName: "HomeNet", Secret: "hunter22"}},
		{"secret keeps ampersands", "ssid=Net&password=a&b=c", credstore.Pair{NetworkName: "Net", Secret: "a&b=c"}},
		{"trailing newline", "ssid=Net&password=pw\r\n", credstore.Pair{NetworkName: "Net", Secret: "pw"}},
		{"form encoded", "ssid=My+Home%21&password=p%40ss", credstore.Pair{NetworkName: "My Home!", Secret: "p@ss"}},
		{"bad escape kept verbatim", "ssid=100%&password=x", credstore.Pair{NetworkName: "100%", Secret: "x"}},
		{"name only", "ssid=Net", credstore.Pair{NetworkName: "Net"}},
		{"no separator", "garbage", credstore.Pair{}},
		{"unknown keys", "foo=1&bar=2", credstore.Pair{}},
		{"empty values", "ssid=&password=", credstore.Pair{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSubmission([]byte(tt.body)))
		})
	}
}

func TestParseSubmission_Bounds(t *testing.T) {
	body := "ssid=" + strings.Repeat("a", 100) + "&password=" + strings.Repeat("b", 100)

	pair := ParseSubmission([]byte(body))

	assert.Len(t, pair.NetworkName, credstore.MaxNetworkNameLen)
	assert.Len(t, pair.Secret, credstore.MaxSecretLen)
}

func TestRedactBody(t *testing.T) {
	got := string(redactBody([]byte("ssid=Net&password=secret")))
	assert.Equal(t, "ssid=Net&password=***", got)
	assert.NotContains(t, got, "secret")
}

func TestStartShutdown(t *testing.T) {
	f := newFixture()

	var started string
	f.server.OnStart(func(addr string) { started = addr })

	require.NoError(t, f.server.Start())
	addr := f.server.Addr()
	require.NotEmpty(t, addr)
	assert.Equal(t, addr, started)
	assert.Error(t, f.server.Start())

	resp, err := http.Post("http://"+addr+"/connect", "application/x-www-form-urlencoded",
		strings.NewReader("ssid=Live&password=pw"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ackPage, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, f.server.Shutdown(ctx))
}

func TestShutdownBeforeStart(t *testing.T) {
	f := newFixture()
	assert.NoError(t, f.server.Shutdown(context.Background()))
	assert.Empty(t, f.server.Addr())
}

func TestNew_Defaults(t *testing.T) {
	s := New(nil, nil, nil)
	assert.Equal(t, DefaultAddr, s.config.Addr)
	assert.Equal(t, DefaultBodyLimit, s.config.BodyLimit)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingRecorder) IncSubmission(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[result]++
}

func TestRecorder_CountsOutcomes(t *testing.T) {
	f := newFixture()
	rec := &countingRecorder{}
	f.server.SetRecorder(rec)

	f.post("ssid=a&password=b")
	f.post("")
	f.backend.FailCommits(errors.New("flash write failed"))
	f.post("ssid=a&password=b")

	assert.Equal(t, map[string]int{
		ResultAccepted:    1,
		ResultRejected:    1,
		ResultStoreFailed: 1,
	}, rec.counts)
}
