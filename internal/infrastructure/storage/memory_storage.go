package storage

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MemoryObject is an object held by MemoryExportStorage
type MemoryObject struct {
	Body        []byte
	ContentType string
}

// MemoryExportStorage keeps exports in process memory and returns links
// under BaseURL. Used for local development without an S3 endpoint; mount
// it as an http.Handler under BaseURL's path to serve the links.
type MemoryExportStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]MemoryObject
}

// NewMemoryExportStorage creates an empty MemoryExportStorage
func NewMemoryExportStorage(baseURL string) *MemoryExportStorage {
	if baseURL == "" {
		baseURL = "http://localhost/exports"
	}
	return &MemoryExportStorage{BaseURL: baseURL, objects: make(map[string]MemoryObject)}
}

// Put stores a copy of body under key
func (m *MemoryExportStorage) Put(_ context.Context, key string, body []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = MemoryObject{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

// PresignDownload returns BaseURL/key with an expiry query parameter
func (m *MemoryExportStorage) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := time.Now().Add(expiresIn)
	link := m.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Object returns a stored object
func (m *MemoryExportStorage) Object(key string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

// ServeHTTP serves a stored object by the request path relative to the
// mount point. Links past their expires parameter are rejected.
func (m *MemoryExportStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if raw := r.URL.Query().Get("expires"); raw != "" {
		expiresAt, err := time.Parse(time.RFC3339, raw)
		if err != nil || time.Now().After(expiresAt) {
			http.Error(w, "link expired", http.StatusGone)
			return
		}
	}

	o, ok := m.Object(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", o.ContentType)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(o.Body)
	}
}
