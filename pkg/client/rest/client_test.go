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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

type echo struct {
	Name string `json:"name"`
}

func newTestServer(t *testing.T) *httptest.Server {
	router := mux.NewRouter()
	router.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"bad token"}`))
			return
		}
		if _, err := uuid.Parse(r.Header.Get(CorrelationHeader)); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var in echo
		if r.Method == http.MethodPost {
			if r.Header.Get(ContentType) != ContentTypeJSON {
				w.WriteHeader(http.StatusUnsupportedMediaType)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
		} else {
			in.Name = r.URL.Query().Get("name")
		}
		w.Header().Set(ContentType, ContentTypeJSON)
		_ = json.NewEncoder(w).Encode(in)
	}).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/plain", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{Server: "https://iot.example.com/"}},
		{name: "empty", cfg: Config{}, wantErr: true},
		{name: "bad scheme", cfg: Config{Server: "ftp://iot.example.com"}, wantErr: true},
		{name: "missing ca file", cfg: Config{Server: "https://iot.example.com", CAFile: "/nonexistent/ca.crt"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestURL(t *testing.T) {
	c, err := NewClient(Config{Server: "https://iot.example.com/console/"})
	assert.NoError(t, err)

	assert.Equal(t, "https://iot.example.com/console/api/templates", c.URL("/api/templates", nil))
	assert.Equal(t, "https://iot.example.com/console/api/templates?limit=10&project_id=p1",
		c.URL("api/templates", url.Values{"project_id": {"p1"}, "limit": {"10"}}))
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, newLimiter(-1, 0))
	l := newLimiter(0, 0)
	assert.NotNil(t, l)
	assert.Equal(t, defaultBurst, l.Burst())
}

func TestDo(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Config{Server: srv.URL, Token: "secret", QPS: -1})
	assert.NoError(t, err)

	var got echo
	err = c.Get(context.Background(), "/api/echo", url.Values{"name": {"temperature"}}, &got)
	assert.NoError(t, err)
	assert.Equal(t, "temperature", got.Name)

	got = echo{}
	err = c.Post(context.Background(), "/api/echo", echo{Name: "humidity"}, &got)
	assert.NoError(t, err)
	assert.Equal(t, "humidity", got.Name)
}

func TestDoErrors(t *testing.T) {
	srv := newTestServer(t)

	c, err := NewClient(Config{Server: srv.URL, Token: "wrong", QPS: -1})
	assert.NoError(t, err)

	err = c.Get(context.Background(), "/api/echo", nil, nil)
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad token", apiErr.Message)

	err = c.Get(context.Background(), "/api/plain", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Contains(t, err.Error(), "backend exploded")

	err = c.Get(context.Background(), "/api/missing", nil, nil)
	assert.True(t, IsNotFound(err))

	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}

func TestDoCanceled(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Config{Server: srv.URL, Token: "secret"})
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.Get(ctx, "/api/echo", nil, nil))
}
