//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-hahn/cog-council-meetings/internal/agenda"
	"github.com/greg-hahn/cog-council-meetings/internal/api/handlers"
	"github.com/greg-hahn/cog-council-meetings/internal/classify"
	"github.com/greg-hahn/cog-council-meetings/internal/domain"
	"github.com/greg-hahn/cog-council-meetings/internal/fetch"
	"github.com/greg-hahn/cog-council-meetings/internal/metrics"
	"github.com/greg-hahn/cog-council-meetings/internal/repository"
	"github.com/greg-hahn/cog-council-meetings/internal/server"
	"github.com/greg-hahn/cog-council-meetings/internal/service"
	"github.com/greg-hahn/cog-council-meetings/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	AgendaServer *httptest.Server
	Municipality *domain.Municipality
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a database container,
// a stub agenda host and a running HTTP server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	// Start PostgreSQL container
	pgC := testutil.NewPostgresContainer(ctx, t)

	// Create connection pool and run migrations
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	// Seed the municipality the API routes are keyed by
	muni := &domain.Municipality{
		Name:          "City of Guelph",
		Slug:          "guelph",
		Timezone:      "America/Toronto",
		WebsiteURL:    "https://guelph.ca",
		AgendaBaseURL: "https://pub-guelph.escribemeetings.com",
	}
	if err := repository.NewMunicipalityRepository(pool).Create(ctx, muni); err != nil {
		t.Fatalf("failed to seed municipality: %v", err)
	}

	// Stub agenda host serving eScribe-shaped HTML
	agendaServer := httptest.NewServer(http.HandlerFunc(serveAgenda))

	// Find free port for server
	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	// Start HTTP server
	serverURL, serverCloser := startServer(t, pool, port)

	env := &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		AgendaServer: agendaServer,
		Municipality: muni,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.AgendaServer != nil {
		e.AgendaServer.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// AgendaURL returns a source agenda URL on the stub host for the given
// external meeting ID
func (e *E2ETestEnv) AgendaURL(externalID string) string {
	return fmt.Sprintf("%s/Meeting.aspx?Id=%s", e.AgendaServer.URL, externalID)
}

// serveAgenda renders the stub agenda page. The meeting start time is pinned
// ten minutes in the past so now/next assertions are deterministic.
func serveAgenda(w http.ResponseWriter, r *http.Request) {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	start := time.Now().In(loc).Add(-10 * time.Minute)

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, agendaPageTemplate, start.Format("2006-01-02 15:04"))
}

const agendaPageTemplate = `
<html>
<body>
	<h1 class="AgendaHeaderTitle">City Council Meeting Agenda</h1>
	<span class="AgendaMeetingTimeStart"><time datetime="%s">Meeting Start</time></span>
	<div class="Location">Council Chambers</div>
	<div class="Address1">1 Carden Street, Guelph</div>

	<div class="AgendaItemContainer">
		<div class="AgendaItemCounter">1.</div>
		<div class="AgendaItemTitle"><a href="#">Call to Order</a></div>
	</div>

	<div class="AgendaItemContainer">
		<div class="AgendaItemCounter">6.1.</div>
		<div class="AgendaItemTitle"><a href="#">Downtown Parking Strategy</a></div>
		<div class="MotionText">That Council approve the transit and parking recommendations in the downtown budget report.</div>
		<div class="AgendaItemDescription">Staff report on parking demand and transit service in the downtown core.</div>
	</div>

	<div class="AgendaItemContainer">
		<div class="AgendaItemCounter">7.1.</div>
		<div class="AgendaItemTitle"><a href="#">2026 Capital Budget Update</a></div>
		<div class="AgendaItemDescription">Quarterly variance report against the approved capital budget.</div>
	</div>
</body>
</html>`

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server with all handlers
func startServer(t *testing.T, pool *pgxpool.Pool, port int) (string, func()) {
	metrics.Init()

	// Initialize repositories
	municipalityRepo := repository.NewMunicipalityRepository(pool)
	meetingRepo := repository.NewMeetingRepository(pool)
	itemRepo := repository.NewAgendaItemRepository(pool)
	tagRepo := repository.NewTagRepository(pool)

	// Initialize services
	classifier := classify.NewKeywordClassifier(classify.DefaultVocabulary())
	ingestSvc := service.NewIngestionService(
		municipalityRepo,
		fetch.New(fetch.Config{Timeout: 10 * time.Second}),
		agenda.NewParser(agenda.DefaultTables(), nil),
		classifier,
		agenda.DefaultTables(),
		repository.NewTxRunner(pool),
		"https://guelph.ca/live",
		nil,
	)
	meetingSvc := service.NewMeetingService(municipalityRepo, meetingRepo, itemRepo, tagRepo)

	// Initialize handlers
	meetingHandler := handlers.NewMeetingHandler(meetingSvc)
	adminHandler := handlers.NewAdminHandler(ingestSvc, agenda.NewEScribeDiscovery("", nil), "guelph")

	cfg := server.RouterConfig{
		MeetingHandler: meetingHandler,
		AdminHandler:   adminHandler,
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to start
	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
