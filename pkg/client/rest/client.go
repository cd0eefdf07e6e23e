/*
Copyright 2026 The KubeEdge Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

const (
	// CorrelationHeader carries a per-request id the backend echoes in its logs.
	CorrelationHeader = "X-Correlation-ID"
	// ContentType is the Content-Type header key.
	ContentType = "Content-Type"
	// ContentTypeJSON is the only body encoding the backend speaks.
	ContentTypeJSON = "application/json"

	defaultConnectTimeout            = 30 * time.Second
	defaultKeepAliveTimeout          = 30 * time.Second
	defaultRequestTimeout            = 60 * time.Second
	defaultMaxIdleConnectionsPerHost = 3
	defaultQPS                       = 20
	defaultBurst                     = 40

	// maxErrorBody bounds how much of a failed response ends up in an error.
	maxErrorBody = 4 << 10
)

// Config configures a Client.
type Config struct {
	// Server is the backend base URL, e.g. https://iot.example.com.
	Server string
	// Token is sent as a bearer token when set.
	Token string
	// CAFile trusts an extra CA bundle for Server.
	CAFile string
	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool
	// Timeout bounds a single request including reading the body.
	Timeout time.Duration
	// QPS and Burst throttle outgoing requests. QPS < 0 disables throttling.
	QPS   float32
	Burst int
	// UserAgent overrides the default user agent.
	UserAgent string
}

// Client is a small JSON REST client for the platform backend.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	token      string
	userAgent  string
	timeout    time.Duration
	limiter    *rate.Limiter
}

// NewClient creates a client for cfg.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, fmt.Errorf("server address is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Server, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", cfg.Server, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server address %q: scheme must be http or https", cfg.Server)
	}

	tlsConfig, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultConnectTimeout,
			KeepAlive: defaultKeepAliveTimeout,
		}).DialContext,
		MaxIdleConnsPerHost: defaultMaxIdleConnectionsPerHost,
		TLSClientConfig:     tlsConfig,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	c := &Client{
		base:       base,
		httpClient: &http.Client{Transport: transport},
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		timeout:    timeout,
	}
	if c.userAgent == "" {
		c.userAgent = "lwm2mconsole"
	}
	c.limiter = newLimiter(cfg.QPS, cfg.Burst)
	return c, nil
}

func newLimiter(qps float32, burst int) *rate.Limiter {
	if qps < 0 {
		return nil
	}
	if qps == 0 {
		qps = defaultQPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(qps), burst)
}

func newTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	if cfg.InsecureSkipVerify {
		klog.Warning("TLS verification of the backend is disabled")
	}
	if cfg.CAFile == "" {
		return tlsConfig, nil
	}
	caPEM, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read ca file %s: %w", cfg.CAFile, err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caPEM); !ok {
		return nil, fmt.Errorf("no certificates found in ca file %s", cfg.CAFile)
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// URL resolves path and query against the server address.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Get sends a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends in as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, in, out)
}

// Put sends in as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, in, out)
}

// Do sends one request. A nil out discards the response body. Non-2xx
// responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	correlationID := req.Header.Get(CorrelationHeader)
	klog.V(4).Infof("%s %s (correlation id %s)", method, req.URL.String(), correlationID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(method, req.URL.Redacted(), resp.StatusCode, body)
		klog.V(2).Infof("request %s failed: %v", correlationID, apiErr)
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response of %s %s: %w", method, req.URL.Redacted(), err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, method, path string, query url.Values, in interface{}) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set(ContentType, ContentTypeJSON)
	}
	req.Header.Set("Accept", ContentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(CorrelationHeader, uuid.New().String())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
