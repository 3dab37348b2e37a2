package testsupport

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// HashOf returns the lowercase SHA-1 hex digest used as an asset content hash.
func HashOf(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// AssetServer imitates the asset CDN layout /{hash[0:2]}/{hash}.
type AssetServer struct {
	*httptest.Server

	mu       sync.Mutex
	objects  map[string][]byte
	statuses map[string]int
	requests map[string]int
}

// NewAssetServer starts a CDN serving objects keyed by hash.
func NewAssetServer(t testing.TB, objects map[string][]byte) *AssetServer {
	t.Helper()
	s := &AssetServer{
		objects:  map[string][]byte{},
		statuses: map[string]int{},
		requests: map[string]int{},
	}
	for hash, data := range objects {
		s.objects[hash] = data
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Put registers content under its SHA-1 hash and returns the hash.
func (s *AssetServer) Put(data []byte) string {
	hash := HashOf(data)
	s.mu.Lock()
	s.objects[hash] = data
	s.mu.Unlock()
	return hash
}

// FailWith makes requests for hash answer with status.
func (s *AssetServer) FailWith(hash string, status int) {
	s.mu.Lock()
	s.statuses[hash] = status
	s.mu.Unlock()
}

// Requests returns how many times hash was requested.
func (s *AssetServer) Requests(hash string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[hash]
}

func (s *AssetServer) serve(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, strings.TrimPrefix(r.URL.Path, "/"))
}

func (s *AssetServer) handle(w http.ResponseWriter, _ *http.Request, rel string) {
	prefix, hash, ok := strings.Cut(rel, "/")
	if !ok || len(hash) < 2 || prefix != hash[:2] {
		http.Error(w, "bad asset path", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests[hash]++
	status, failing := s.statuses[hash]
	data, found := s.objects[hash]
	s.mu.Unlock()

	switch {
	case failing:
		http.Error(w, http.StatusText(status), status)
	case !found:
		http.NotFound(w, nil)
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}
}
