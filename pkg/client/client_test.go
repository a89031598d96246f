package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"catalogue/pkg/cdns"
	"catalogue/pkg/config"
	"catalogue/pkg/datasets"
	"catalogue/pkg/models"
	"catalogue/pkg/server"
	"catalogue/pkg/users"
)

// ClientTestSuite exercises the client against a live catalogue server.
type ClientTestSuite struct {
	suite.Suite
	tempDir   string
	ctx       context.Context
	datasets  *datasets.Catalogue
	cdns      *cdns.Catalogue
	directory *users.Directory
	httpSrv   *httptest.Server
	client    *Client
}

// SetupTest starts a server backed by fresh catalogues
func (s *ClientTestSuite) SetupTest() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "client-test-*")
	s.Require().NoError(err)
	s.ctx = context.Background()

	dbPath := filepath.Join(s.tempDir, "catalogue.db")
	s.datasets, err = datasets.Open(s.ctx, dbPath)
	s.Require().NoError(err)
	s.cdns, err = cdns.Open(s.ctx, dbPath)
	s.Require().NoError(err)
	s.directory, err = users.Open(s.ctx, dbPath)
	s.Require().NoError(err)

	catalogue := server.NewCatalogueServer("test-v1.0.0", s.datasets, s.cdns, s.directory, time.Minute)
	s.httpSrv = httptest.NewServer(catalogue.Handler())
	s.client = New(Options{BaseURL: s.httpSrv.URL, User: "admin", Password: "letmein", Timeout: 5 * time.Second})
}

// TearDownTest stops the server and removes the catalogues
func (s *ClientTestSuite) TearDownTest() {
	s.httpSrv.Close()
	s.datasets.Close()
	s.cdns.Close()
	s.directory.Close()
	os.RemoveAll(s.tempDir)
}

// TestStatus tests the status call
func (s *ClientTestSuite) TestStatus() {
	status, err := s.client.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal("catalogue", status["service"])
	s.Equal("test-v1.0.0", status["version"])
}

// TestDatasetLifecycle tests add, list and remove
func (s *ClientTestSuite) TestDatasetLifecycle() {
	list, err := s.client.ListDatasets(s.ctx)
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)

	ds := models.Dataset{
		ID:                  "ds1",
		Owner:               "ignored",
		MetadataServiceHost: "http://ms.example.org:80",
		Volume:              "vol1",
		Gateway:             "gw1",
		GatewayUsername:     "gwuser",
		GatewayPrivateKey:   "key\nwith lines",
		Description:         "first dataset",
	}
	s.Require().NoError(s.client.AddDataset(s.ctx, ds))

	list, err = s.client.ListDatasets(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	ds.Owner = "admin"
	s.Equal(ds, list[0])

	err = s.client.AddDataset(s.ctx, ds)
	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusConflict, apiErr.StatusCode)

	s.Require().NoError(s.client.RemoveDataset(s.ctx, "ds1"))
	list, err = s.client.ListDatasets(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

// TestCDNLifecycle tests bindings and sites
func (s *ClientTestSuite) TestCDNLifecycle() {
	s.Require().NoError(s.client.AddCDN(s.ctx, "ds1", "http://ag.example.org"))
	s.Require().NoError(s.client.AddCDNSite(s.ctx, models.CDNSite{
		DatasetID: "ds1", Name: "seattle", Latitude: 47.6062, Longitude: -122.3321, URLPrefix: "http://seattle.cdn",
	}))
	s.Require().NoError(s.client.AddCDNSite(s.ctx, models.CDNSite{
		DatasetID: "ds1", Name: "boston", Latitude: 42.36, Longitude: -71.06, URLPrefix: "http://boston.cdn",
	}))

	list, err := s.client.ListCDNs(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("http://ag.example.org", list[0].OriginURL)
	s.Require().Len(list[0].Sites, 2)
	s.InDelta(47.6062, list[0].Sites[0].Latitude, 1e-9)
	s.InDelta(-122.3321, list[0].Sites[0].Longitude, 1e-9)

	s.Require().NoError(s.client.RemoveCDNSite(s.ctx, "ds1", "seattle"))
	list, err = s.client.ListCDNs(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list[0].Sites, 1)
	s.Equal("boston", list[0].Sites[0].Name)

	s.Require().NoError(s.client.RemoveCDN(s.ctx, "ds1"))
	list, err = s.client.ListCDNs(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

// TestCheckUser tests match, mismatch and unknown users
func (s *ClientTestSuite) TestCheckUser() {
	ok, err := s.client.CheckUser(s.ctx, "admin", users.HashPassword("admin", "letmein"))
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.client.CheckUser(s.ctx, "admin", "not-a-hash")
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.client.CheckUser(s.ctx, "nobody", "x")
	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
	s.Contains(apiErr.Message, "user does not exist")
}

// TestRejectedCredentials tests that bad credentials surface as 401
func (s *ClientTestSuite) TestRejectedCredentials() {
	anonymous := New(Options{BaseURL: s.httpSrv.URL})
	err := anonymous.AddCDN(s.ctx, "ds1", "http://ag")

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusUnauthorized, apiErr.StatusCode)

	wrong := New(Options{BaseURL: s.httpSrv.URL, User: "admin", Password: "wrong"})
	err = wrong.AddCDN(s.ctx, "ds1", "http://ag")
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusUnauthorized, apiErr.StatusCode)
}

// TestEmptyFieldsAccepted tests that unset dataset fields are sent as empty values
func (s *ClientTestSuite) TestEmptyFieldsAccepted() {
	s.Require().NoError(s.client.AddDataset(s.ctx, models.Dataset{ID: "ds1"}))

	list, err := s.client.ListDatasets(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.Dataset{ID: "ds1", Owner: "admin"}, list[0])
}

// TestConflict tests that service errors reach the caller
func (s *ClientTestSuite) TestConflict() {
	s.Require().NoError(s.client.AddDataset(s.ctx, models.Dataset{ID: "ds1"}))
	err := s.client.AddDataset(s.ctx, models.Dataset{ID: "ds1"})

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusConflict, apiErr.StatusCode)
	s.NotEmpty(apiErr.Message)
}

// TestNewFromConfig tests building a client from configuration
func (s *ClientTestSuite) TestNewFromConfig() {
	cfg := &config.ClientConfig{
		User:           "admin",
		Password:       "letmein",
		ServiceHost:    "127.0.0.1",
		ServicePort:    8888,
		TimeoutSeconds: 7,
		RetryMax:       1,
	}

	c := NewFromConfig(cfg)
	s.Equal("http://127.0.0.1:8888", c.baseURL)
	s.Equal(7*time.Second, c.timeout)
	s.Equal(1, c.http.RetryMax)
	s.Equal("admin", c.user)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

// RetryTestSuite tests the retry behaviour of the underlying HTTP client.
type RetryTestSuite struct {
	suite.Suite
}

// TestErrorResponsesAreNotRetried tests that HTTP errors are returned at once
func (s *RetryTestSuite) TestErrorResponsesAreNotRetried() {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, RetryMax: 3})
	_, err := c.ListDatasets(context.Background())

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusInternalServerError, apiErr.StatusCode)
	s.Equal("Internal server error", apiErr.Message)
	s.Equal(int32(1), calls.Load())
}

// TestConnectionErrorsAreRetried tests that unreachable servers are retried
func (s *RetryTestSuite) TestConnectionErrorsAreRetried() {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	c := New(Options{BaseURL: target, RetryMax: 2})
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = time.Millisecond

	_, err := c.ListDatasets(context.Background())
	s.Require().Error(err)
	s.Contains(err.Error(), "giving up after 3 attempt(s)")
}

// TestRetryPolicy tests the retry decision table
func (s *RetryTestSuite) TestRetryPolicy() {
	ctx := context.Background()

	retry, err := connectionRetryPolicy(ctx, &http.Response{StatusCode: http.StatusBadGateway}, nil)
	s.False(retry)
	s.NoError(err)

	retry, err = connectionRetryPolicy(ctx, nil, errors.New("connection refused"))
	s.True(retry)
	s.NoError(err)

	retry, err = connectionRetryPolicy(ctx, nil, nil)
	s.False(retry)
	s.NoError(err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err = connectionRetryPolicy(cancelled, nil, errors.New("connection refused"))
	s.False(retry)
	s.ErrorIs(err, context.Canceled)
}

// TestAPIErrorMessage tests the error text
func (s *RetryTestSuite) TestAPIErrorMessage() {
	s.Equal("catalogue service returned 409: exists", (&APIError{StatusCode: 409, Message: "exists"}).Error())
	s.Equal("catalogue service returned 502", (&APIError{StatusCode: 502}).Error())
}

func TestRetrySuite(t *testing.T) {
	suite.Run(t, new(RetryTestSuite))
}
