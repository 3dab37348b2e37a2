package testsupport

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zip"
)

// LauncherVersion describes one game version served by a Launcher.
type LauncherVersion struct {
	ID   string
	Type string
	// PackVersion is written verbatim as version.json's pack_version, so it
	// may be an int or a map such as {"resource": 34, "data": 48}.
	PackVersion any
	// Objects maps asset index paths to payloads.
	Objects map[string][]byte
}

// Launcher imitates the launcher metadata endpoints plus the asset CDN.
type Launcher struct {
	Assets *AssetServer

	server *httptest.Server

	mu   sync.Mutex
	docs map[string][]byte
}

// NewLauncher serves versions; the first release and first snapshot become latest.
func NewLauncher(t testing.TB, versions ...LauncherVersion) *Launcher {
	t.Helper()
	l := &Launcher{
		Assets: NewAssetServer(t, nil),
		docs:   map[string][]byte{},
	}
	l.server = httptest.NewServer(http.HandlerFunc(l.serve))
	t.Cleanup(l.server.Close)

	latest := map[string]string{"release": "", "snapshot": ""}
	var entries []map[string]string
	for _, v := range versions {
		kind := v.Type
		if kind == "" {
			kind = "release"
		}
		if latest[kind] == "" {
			latest[kind] = v.ID
		}
		entries = append(entries, map[string]string{
			"id":          v.ID,
			"type":        kind,
			"url":         l.server.URL + "/v1/packages/" + v.ID + ".json",
			"time":        "2024-01-01T00:00:00+00:00",
			"releaseTime": "2024-01-01T00:00:00+00:00",
		})

		objects := map[string]map[string]any{}
		for path, data := range v.Objects {
			hash := l.Assets.Put(data)
			objects[path] = map[string]any{"hash": hash, "size": len(data)}
		}
		l.docs["/indexes/"+v.ID+".json"] = mustJSON(t, map[string]any{"objects": objects})
		l.docs["/client/"+v.ID+".jar"] = clientJar(t, v)
		l.docs["/v1/packages/"+v.ID+".json"] = mustJSON(t, map[string]any{
			"id": v.ID,
			"assetIndex": map[string]any{
				"id":  v.ID,
				"url": l.server.URL + "/indexes/" + v.ID + ".json",
			},
			"downloads": map[string]any{
				"client": map[string]any{"url": l.server.URL + "/client/" + v.ID + ".jar"},
			},
		})
	}
	l.docs["/mc/game/version_manifest.json"] = mustJSON(t, map[string]any{
		"latest":   latest,
		"versions": entries,
	})
	return l
}

// ManifestURL is the version list endpoint.
func (l *Launcher) ManifestURL() string {
	return l.server.URL + "/mc/game/version_manifest.json"
}

// AssetBaseURL is the CDN root.
func (l *Launcher) AssetBaseURL() string {
	return l.Assets.URL
}

// Remove makes path answer 404 from now on.
func (l *Launcher) Remove(path string) {
	l.mu.Lock()
	delete(l.docs, path)
	l.mu.Unlock()
}

func (l *Launcher) serve(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	data, ok := l.docs[r.URL.Path]
	l.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if strings.HasSuffix(r.URL.Path, ".json") {
		w.Header().Set("Content-Type", "application/json")
	}
	_, _ = w.Write(data)
}

func clientJar(t testing.TB, v LauncherVersion) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	info := map[string]any{"id": v.ID, "name": v.ID, "stable": v.Type != "snapshot"}
	if v.PackVersion != nil {
		info["pack_version"] = v.PackVersion
	}
	w, err := zw.Create("version.json")
	if err != nil {
		t.Fatalf("create version.json: %v", err)
	}
	if _, err := w.Write(mustJSON(t, info)); err != nil {
		t.Fatalf("write version.json: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close jar: %v", err)
	}
	return buf.Bytes()
}

func mustJSON(t testing.TB, v any) []byte {
	t.Helper()
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}
