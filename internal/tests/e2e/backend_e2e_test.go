// Package e2e provides end-to-end tests for the pharmacy backend.
// The suite leverages `testcontainers-go` to spin up a real PostgreSQL instance in a Docker container
// and runs the actual application handler in an `httptest.Server`, so the chi route wiring, the
// auth middleware and the JSON envelopes are all exercised exactly as in production. Only the
// payment gateway is faked.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pharmacart/backend/internal/app"
	"github.com/pharmacart/backend/internal/checkout/gateway"
	"github.com/pharmacart/backend/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "PHARMA_SKIP_E2E_TESTS"

// baseURL is the mount point of the medicine API.
const baseURL = "/pharma/medicine"

// fakeGateway stands in for the payment provider. It never talks to the
// network and approves every sale.
type fakeGateway struct{}

func (f *fakeGateway) GenerateClientToken(_ context.Context) (string, error) {
	return "tok_e2e", nil
}

func (f *fakeGateway) SubmitSale(_ context.Context, amount int64, _ string, _ bool) (*gateway.SaleResult, error) {
	return &gateway.SaleResult{
		TransactionID: "txn_e2e",
		Status:        "submitted_for_settlement",
		Amount:        amount,
		Success:       true,
	}, nil
}

// BackendE2ESuite is a test suite for end-to-end tests of the pharmacy backend.
type BackendE2ESuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	server      *httptest.Server
	httpClient  *http.Client
	categoryID  uuid.UUID // seeded category used by the tests
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts PostgreSQL, applies the migrations and boots the
// application handler in an httptest server.
func (s *BackendE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "pharma_db"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")

	for i := range 10 {
		s.logger.Info("Pinging E2E PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../../migrations")
	m, err := migrate.New("file://"+migrationsPath, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for E2E tests")

	err = s.dbPool.QueryRow(s.ctx, "SELECT id FROM categories WHERE slug = 'pain-relief'").Scan(&s.categoryID)
	require.NoError(s.T(), err, "Seeded category should be present")

	deps := app.SetupDependencies(s.dbPool, &fakeGateway{}, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
	s.logger.Info("Initialization complete for BackendE2ESuite", "url", s.server.URL)
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *BackendE2ESuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.server != nil {
		s.server.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest isolates each test by truncating the mutable tables.
func (s *BackendE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE medicines, orders RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

// TestBackendE2E runs the end-to-end suite.
func TestBackendE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(BackendE2ESuite))
}

// envelope mirrors the API response body with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *BackendE2ESuite) doJSON(method, path string, body string, headers map[string]string) (*http.Response, envelope) {
	s.T().Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, reader)
	require.NoError(s.T(), err)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(s.T(), json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

// createMedicine posts a multipart create request and returns the
// created medicine's fields.
func (s *BackendE2ESuite) createMedicine(name string, price int64, photo []byte) map[string]any {
	s.T().Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(s.T(), mw.WriteField("name", name))
	require.NoError(s.T(), mw.WriteField("description", "Description of "+name))
	require.NoError(s.T(), mw.WriteField("price", fmt.Sprintf("%d", price)))
	require.NoError(s.T(), mw.WriteField("category", s.categoryID.String()))
	require.NoError(s.T(), mw.WriteField("quantity", "10"))
	require.NoError(s.T(), mw.WriteField("shipping", "true"))
	if photo != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(header)
		require.NoError(s.T(), err)
		_, err = part.Write(photo)
		require.NoError(s.T(), err)
	}
	require.NoError(s.T(), mw.Close())

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.server.URL+baseURL+"/create-medicine", &buf)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var env envelope
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&env))
	require.True(s.T(), env.Success)
	var medicine map[string]any
	require.NoError(s.T(), json.Unmarshal(env.Data, &medicine))
	return medicine
}

func (s *BackendE2ESuite) TestCreateAndFetch() {
	// given
	created := s.createMedicine("Aspirin 500mg", 499, nil)
	require.Equal(s.T(), "aspirin-500mg", created["slug"], "Slug should be derived from the name")

	// when: fetch by slug
	resp, env := s.doJSON(http.MethodGet, baseURL+"/get-medicine/aspirin-500mg", "", nil)

	// then
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), "Single Medicine Fetched", env.Message)

	// when: landing listing
	resp, env = s.doJSON(http.MethodGet, baseURL+"/get-medicine", "", nil)

	// then
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(s.T(), json.Unmarshal(env.Data, &list))
	assert.Len(s.T(), list, 1)
	assert.NotNil(s.T(), list[0]["category"], "Category should be populated")

	// unknown slug yields 404
	resp, _ = s.doJSON(http.MethodGet, baseURL+"/get-medicine/nope", "", nil)
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func (s *BackendE2ESuite) TestCreate_Validation() {
	// given: form without a name
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(s.T(), mw.WriteField("description", "No name here"))
	require.NoError(s.T(), mw.Close())

	// when
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.server.URL+baseURL+"/create-medicine", &buf)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()

	// then
	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
	var env envelope
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(s.T(), "Name is Required", env.Message)
}

func (s *BackendE2ESuite) TestUpdate_AdminGate() {
	// given
	created := s.createMedicine("Aspirin", 499, nil)
	id := created["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(s.T(), mw.WriteField("name", "Aspirin Forte"))
	require.NoError(s.T(), mw.WriteField("description", "Stronger"))
	require.NoError(s.T(), mw.WriteField("price", "699"))
	require.NoError(s.T(), mw.WriteField("category", s.categoryID.String()))
	require.NoError(s.T(), mw.WriteField("quantity", "5"))
	require.NoError(s.T(), mw.Close())
	formBody := buf.Bytes()

	update := func(headers map[string]string) *http.Response {
		req, err := http.NewRequestWithContext(s.ctx, http.MethodPut, s.server.URL+baseURL+"/update-medicine/"+id, bytes.NewReader(formBody))
		require.NoError(s.T(), err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		resp, err := s.httpClient.Do(req)
		require.NoError(s.T(), err)
		defer func() { _ = resp.Body.Close() }()
		return resp
	}

	// no identity
	resp := update(nil)
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)

	// signed in, not admin
	resp = update(map[string]string{web.XUserId: uuid.NewString()})
	assert.Equal(s.T(), http.StatusForbidden, resp.StatusCode)

	// admin
	resp = update(map[string]string{web.XUserId: uuid.NewString(), web.XUserRole: web.RoleAdmin})
	assert.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	// the update took effect
	getResp, env := s.doJSON(http.MethodGet, baseURL+"/get-medicine/aspirin-forte", "", nil)
	assert.Equal(s.T(), http.StatusOK, getResp.StatusCode)
	assert.True(s.T(), env.Success)
}

func (s *BackendE2ESuite) TestCountAndPagination() {
	// given
	for i := range 4 {
		s.createMedicine(fmt.Sprintf("Medicine %d", i), int64(100+i), nil)
	}

	// count
	resp, env := s.doJSON(http.MethodGet, baseURL+"/medicine-count", "", nil)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var count map[string]int64
	require.NoError(s.T(), json.Unmarshal(env.Data, &count))
	assert.Equal(s.T(), int64(4), count["total"])

	// first page holds 3
	resp, env = s.doJSON(http.MethodGet, baseURL+"/medicine-list", "", nil)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var page []map[string]any
	require.NoError(s.T(), json.Unmarshal(env.Data, &page))
	assert.Len(s.T(), page, 3)

	// second page holds the remainder
	resp, env = s.doJSON(http.MethodGet, baseURL+"/medicine-list/2", "", nil)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.NoError(s.T(), json.Unmarshal(env.Data, &page))
	assert.Len(s.T(), page, 1)
}

func (s *BackendE2ESuite) TestSearchAndFilter() {
	// given
	s.createMedicine("Aspirin 500mg", 499, nil)
	s.createMedicine("Vitamin C", 299, nil)

	// search is case-insensitive
	resp, env := s.doJSON(http.MethodGet, baseURL+"/search/ASPIRIN", "", nil)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(s.T(), json.Unmarshal(env.Data, &list))
	assert.Len(s.T(), list, 1)

	// price filter is inclusive
	body := `{"checked":[],"radio":[299,299]}`
	resp, env = s.doJSON(http.MethodPost, baseURL+"/medicine-filters", body, nil)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.NoError(s.T(), json.Unmarshal(env.Data, &list))
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), "vitamin-c", list[0]["slug"])

	// category listing by slug
	resp, env = s.doJSON(http.MethodGet, baseURL+"/medicine-category/pain-relief", "", nil)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var payload struct {
		Category map[string]any   `json:"category"`
		Medicine []map[string]any `json:"medicine"`
	}
	require.NoError(s.T(), json.Unmarshal(env.Data, &payload))
	assert.Equal(s.T(), "pain-relief", payload.Category["slug"])
	assert.Len(s.T(), payload.Medicine, 2)
}

func (s *BackendE2ESuite) TestPhoto() {
	// given
	photo := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	created := s.createMedicine("Aspirin", 499, photo)
	id := created["id"].(string)

	// when
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.server.URL+baseURL+"/medicine-photo/"+id, nil)
	require.NoError(s.T(), err)
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()

	// then
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), "image/jpeg", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), photo, raw)
}

func (s *BackendE2ESuite) TestCheckoutFlow() {
	// given
	buyer := uuid.NewString()
	medA := s.createMedicine("Aspirin", 10, nil)
	medB := s.createMedicine("Vitamin C", 25, nil)

	// client token is open
	resp, env := s.doJSON(http.MethodGet, baseURL+"/braintree/token", "", nil)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var token map[string]string
	require.NoError(s.T(), json.Unmarshal(env.Data, &token))
	assert.Equal(s.T(), "tok_e2e", token["clientToken"])

	// payment requires a signed-in buyer
	body := fmt.Sprintf(`{"nonce":"nonce_e2e","cart":[
		{"medicine_id":%q,"name":"Aspirin","price":10},
		{"medicine_id":%q,"name":"Vitamin C","price":25}
	]}`, medA["id"], medB["id"])
	resp, _ = s.doJSON(http.MethodPost, baseURL+"/braintree/payment", body, nil)
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)

	// signed-in payment settles and records an order
	resp, env = s.doJSON(http.MethodPost, baseURL+"/braintree/payment", body, map[string]string{web.XUserId: buyer})
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), "Payment Successful", env.Message)
	var receipt map[string]any
	require.NoError(s.T(), json.Unmarshal(env.Data, &receipt))
	assert.Equal(s.T(), float64(35), receipt["amount"], "Amount should be the exact cart total")
	assert.Equal(s.T(), "txn_e2e", receipt["transaction_id"])

	// order history shows the purchase
	resp, env = s.doJSON(http.MethodGet, baseURL+"/orders", "", map[string]string{web.XUserId: buyer})
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var orders []map[string]any
	require.NoError(s.T(), json.Unmarshal(env.Data, &orders))
	require.Len(s.T(), orders, 1)
	assert.Equal(s.T(), buyer, orders[0]["buyer_id"])

	// another buyer sees nothing
	resp, env = s.doJSON(http.MethodGet, baseURL+"/orders", "", map[string]string{web.XUserId: uuid.NewString()})
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.NoError(s.T(), json.Unmarshal(env.Data, &orders))
	assert.Empty(s.T(), orders)
}
