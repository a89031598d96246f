// Package client is the HTTP client of the catalogue service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"catalogue/pkg/config"
	"catalogue/pkg/log"
	"catalogue/pkg/models"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
)

// APIError is a non-success response of the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalogue service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("catalogue service returned %d: %s", e.StatusCode, e.Message)
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
	RetryMax int
}

// Client calls the catalogue service. Credentials, when set, are sent with
// every mutating request; the session cookie issued in return is kept.
type Client struct {
	baseURL  string
	user     string
	password string
	timeout  time.Duration
	http     *retryablehttp.Client
}

// New creates a client for the service at opts.BaseURL.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := CreateRetryableClient(opts.RetryMax, defaultRetryWaitMin, defaultRetryWaitMax)
	if jar, err := cookiejar.New(nil); err == nil {
		httpClient.HTTPClient.Jar = jar
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		user:     opts.User,
		password: opts.Password,
		timeout:  opts.Timeout,
		http:     httpClient,
	}
}

// NewFromConfig creates a client from a loaded client configuration.
func NewFromConfig(cfg *config.ClientConfig) *Client {
	return New(Options{
		BaseURL:  cfg.BaseURL(),
		User:     cfg.User,
		Password: cfg.Password,
		Timeout:  cfg.Timeout(),
		RetryMax: cfg.RetryMax,
	})
}

// CreateRetryableClient creates a retryable HTTP client that only retries
// requests which never got a response.
func CreateRetryableClient(retryMax int, retryWaitMin, retryWaitMax time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.Logger = nil
	client.CheckRetry = connectionRetryPolicy
	return client
}

// connectionRetryPolicy retries connection and timeout errors. Any HTTP
// response, including 4xx and 5xx, is returned to the caller as is.
func connectionRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if resp != nil {
		return false, nil
	}

	if err != nil {
		return true, nil //nolint:nilerr // retryablehttp reports the final error
	}

	return false, nil
}

// Status returns the service name and version.
func (c *Client) Status(ctx context.Context) (map[string]string, error) {
	var status map[string]string
	err := c.call(ctx, http.MethodGet, "/", nil, false, &status)
	return status, err
}

// ListDatasets returns every registered dataset.
func (c *Client) ListDatasets(ctx context.Context) ([]models.Dataset, error) {
	list := []models.Dataset{}
	err := c.call(ctx, http.MethodGet, "/datasets/list", nil, false, &list)
	return list, err
}

// AddDataset registers ds. The owner is the authenticated user; ds.Owner is ignored.
func (c *Client) AddDataset(ctx context.Context, ds models.Dataset) error {
	return c.call(ctx, http.MethodPost, "/datasets/add", url.Values{
		"dataset":     {ds.ID},
		"ms_host":     {ds.MetadataServiceHost},
		"volume":      {ds.Volume},
		"gateway":     {ds.Gateway},
		"username":    {ds.GatewayUsername},
		"description": {ds.Description},
		"user_pkey":   {ds.GatewayPrivateKey},
	}, true, nil)
}

// RemoveDataset removes a dataset owned by the authenticated user.
func (c *Client) RemoveDataset(ctx context.Context, datasetID string) error {
	return c.call(ctx, http.MethodDelete, "/datasets/remove", url.Values{"dataset": {datasetID}}, true, nil)
}

// ListCDNs returns every CDN binding with its sites.
func (c *Client) ListCDNs(ctx context.Context) ([]models.CDNBinding, error) {
	list := []models.CDNBinding{}
	err := c.call(ctx, http.MethodGet, "/cdns/list", nil, false, &list)
	return list, err
}

// AddCDN binds datasetID to the origin URL.
func (c *Client) AddCDN(ctx context.Context, datasetID, originURL string) error {
	return c.call(ctx, http.MethodPost, "/cdns/add", url.Values{
		"dataset": {datasetID},
		"ag_url":  {originURL},
	}, true, nil)
}

// AddCDNSite adds an edge site to site.DatasetID.
func (c *Client) AddCDNSite(ctx context.Context, site models.CDNSite) error {
	return c.call(ctx, http.MethodPost, "/cdns/add_site", url.Values{
		"dataset":    {site.DatasetID},
		"name":       {site.Name},
		"gps_loc1":   {strconv.FormatFloat(site.Latitude, 'f', -1, 64)},
		"gps_loc2":   {strconv.FormatFloat(site.Longitude, 'f', -1, 64)},
		"cdn_prefix": {site.URLPrefix},
	}, true, nil)
}

// RemoveCDN removes the binding of datasetID and all of its sites.
func (c *Client) RemoveCDN(ctx context.Context, datasetID string) error {
	return c.call(ctx, http.MethodDelete, "/cdns/remove", url.Values{"dataset": {datasetID}}, true, nil)
}

// RemoveCDNSite removes every site of datasetID named name.
func (c *Client) RemoveCDNSite(ctx context.Context, datasetID, name string) error {
	return c.call(ctx, http.MethodDelete, "/cdns/remove_site", url.Values{
		"dataset": {datasetID},
		"name":    {name},
	}, true, nil)
}

// CheckUser compares passwordHash with the stored hash of userID. A mismatch
// is reported as false; an unknown user as an *APIError with status 404.
func (c *Client) CheckUser(ctx context.Context, userID, passwordHash string) (bool, error) {
	var ok bool
	err := c.call(ctx, http.MethodGet, "/users/check", url.Values{
		"user":   {userID},
		"passwd": {passwordHash},
	}, false, &ok)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	return ok, err
}

// call sends a request and decodes the JSON response into out. Form values
// travel in the body of POST requests and in the query string otherwise.
func (c *Client) call(ctx context.Context, method, path string, params url.Values, authenticate bool, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	var body io.Reader
	if method == http.MethodPost && params != nil {
		body = strings.NewReader(params.Encode())
	} else if params != nil {
		target += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if authenticate && c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	log.Debug().Str("method", method).Str("url", target).Msg("Calling catalogue service")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("url", target).Msg("Failed to close response body")
		}
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, payload)
	}

	if out == nil {
		var ack bool
		if err := json.Unmarshal(payload, &ack); err != nil {
			return fmt.Errorf("unexpected response: %w", err)
		}
		if !ack {
			return &APIError{StatusCode: resp.StatusCode, Message: "request was not applied"}
		}
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("unexpected response: %w", err)
	}
	return nil
}

func decodeError(status int, payload []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{StatusCode: status}
	if json.Unmarshal(payload, &body) == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
