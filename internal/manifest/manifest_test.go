package manifest_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"mineardmg/internal/manifest"
	"mineardmg/internal/services"
	"mineardmg/internal/testsupport"
)

func sampleList() *manifest.VersionList {
	return &manifest.VersionList{
		Latest: manifest.Latest{Release: "1.21.4", Snapshot: "25w02a"},
		Versions: []manifest.Version{
			{ID: "25w02a", Type: manifest.TypeSnapshot},
			{ID: "1.21.4", Type: manifest.TypeRelease},
			{ID: "1.21.3", Type: manifest.TypeRelease},
			{ID: "b1.7.3", Type: "old_beta"},
		},
	}
}

func TestResolveSelectors(t *testing.T) {
	list := sampleList()
	cases := map[string]string{
		"":         "1.21.4",
		"latest":   "1.21.4",
		"Release":  "1.21.4",
		"snapshot": "25w02a",
		"1.21.3":   "1.21.3",
		" b1.7.3 ": "b1.7.3",
	}
	for selector, want := range cases {
		got, err := list.Resolve(selector)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", selector, err)
		}
		if got.ID != want {
			t.Fatalf("Resolve(%q) = %s, want %s", selector, got.ID, want)
		}
	}
	if _, err := list.Resolve("9.9.9"); err == nil {
		t.Fatal("expected unknown version to fail")
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	list := sampleList()
	releases := list.Filter(false)
	if len(releases) != 2 || releases[0].ID != "1.21.4" || releases[1].ID != "1.21.3" {
		t.Fatalf("unexpected releases %+v", releases)
	}
	all := list.Filter(true)
	if len(all) != 3 || all[0].ID != "25w02a" {
		t.Fatalf("unexpected filtered list %+v", all)
	}
}

func TestSoundsSelectsOggSorted(t *testing.T) {
	index := &manifest.AssetIndex{Objects: map[string]manifest.Object{
		"minecraft/sounds/mob/cat/meow2.ogg": {Hash: "bb", Size: 2},
		"minecraft/lang/en_us.json":          {Hash: "cc", Size: 3},
		"minecraft/sounds/ambient/cave1.ogg": {Hash: "aa", Size: 1},
		"minecraft/sounds.json":              {Hash: "dd", Size: 4},
	}}
	sounds := index.Sounds()
	if len(sounds) != 2 {
		t.Fatalf("expected 2 sounds, got %d", len(sounds))
	}
	if sounds[0].Path != "minecraft/sounds/ambient/cave1.ogg" || sounds[0].Hash != "aa" {
		t.Fatalf("unexpected first sound %+v", sounds[0])
	}
	if got := sounds[1].PackPath(); got != "assets/minecraft/sounds/mob/cat/meow2.ogg" {
		t.Fatalf("unexpected pack path %q", got)
	}
}

func TestClientJarRequiresDownload(t *testing.T) {
	m := &manifest.ClientManifest{ID: "1.0"}
	if _, err := m.ClientJar(); err == nil {
		t.Fatal("expected missing client download to fail")
	}
	m.Downloads = map[string]manifest.Download{"client": {URL: "http://x/client.jar"}}
	if d, err := m.ClientJar(); err != nil || d.URL != "http://x/client.jar" {
		t.Fatalf("ClientJar = %+v, %v", d, err)
	}
}

func TestParsePackVersion(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		want    int
		wantErr bool
	}{
		{name: "plain", doc: `{"id":"1.20.1","pack_version":15}`, want: 15},
		{name: "split", doc: `{"id":"1.21.4","pack_version":{"resource":46,"data":61}}`, want: 46},
		{name: "missing", doc: `{"id":"1.0"}`, wantErr: true},
		{name: "null", doc: `{"pack_version":null}`, wantErr: true},
		{name: "no resource", doc: `{"pack_version":{"data":61}}`, wantErr: true},
		{name: "zero", doc: `{"pack_version":0}`, wantErr: true},
		{name: "string", doc: `{"pack_version":"15"}`, wantErr: true},
		{name: "garbage", doc: `not json`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := manifest.ParsePackVersion([]byte(tc.doc))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePackVersion: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func buildJar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestPackVersionFromJar(t *testing.T) {
	jar := buildJar(t, map[string]string{
		"net/minecraft/client/Main.class": "cafebabe",
		"version.json":                    `{"id":"1.21.4","pack_version":{"resource":46,"data":61}}`,
	})
	got, err := manifest.PackVersionFromJar(jar)
	if err != nil {
		t.Fatalf("PackVersionFromJar: %v", err)
	}
	if got != 46 {
		t.Fatalf("got %d, want 46", got)
	}

	_, err = manifest.PackVersionFromJar(buildJar(t, map[string]string{"a.txt": "x"}))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for jar without version.json, got %v", err)
	}
	_, err = manifest.PackVersionFromJar([]byte("not a zip"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for corrupt jar, got %v", err)
	}
}

func TestClientAgainstLauncher(t *testing.T) {
	launcher := testsupport.NewLauncher(t,
		testsupport.LauncherVersion{ID: "24w01a", Type: "snapshot", PackVersion: 27},
		testsupport.LauncherVersion{
			ID:          "1.20.4",
			Type:        "release",
			PackVersion: 22,
			Objects: map[string][]byte{
				"minecraft/sounds/random/click.ogg": []byte("click"),
				"minecraft/lang/en_us.json":         []byte("{}"),
			},
		},
	)
	client, err := manifest.New(launcher.ManifestURL(), manifest.WithUserAgent("mineardmg-test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	list, err := client.Versions(ctx)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if list.Latest.Release != "1.20.4" || list.Latest.Snapshot != "24w01a" {
		t.Fatalf("unexpected latest %+v", list.Latest)
	}
	version, err := list.Resolve("latest")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	m, err := client.ClientManifest(ctx, version)
	if err != nil {
		t.Fatalf("ClientManifest: %v", err)
	}
	index, err := client.AssetIndex(ctx, m)
	if err != nil {
		t.Fatalf("AssetIndex: %v", err)
	}
	sounds := index.Sounds()
	if len(sounds) != 1 || sounds[0].Hash != testsupport.HashOf([]byte("click")) {
		t.Fatalf("unexpected sounds %+v", sounds)
	}

	jar, err := client.ClientJar(ctx, m)
	if err != nil {
		t.Fatalf("ClientJar: %v", err)
	}
	packVersion, err := manifest.PackVersionFromJar(jar)
	if err != nil {
		t.Fatalf("PackVersionFromJar: %v", err)
	}
	if packVersion != 22 {
		t.Fatalf("pack version = %d, want 22", packVersion)
	}
}

func TestClientReportsHTTPFailures(t *testing.T) {
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{ID: "1.0", PackVersion: 1})
	launcher.Remove("/indexes/1.0.json")

	client, err := manifest.New(launcher.ManifestURL())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	list, err := client.Versions(ctx)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	m, err := client.ClientManifest(ctx, list.Versions[0])
	if err != nil {
		t.Fatalf("ClientManifest: %v", err)
	}
	_, err = client.AssetIndex(ctx, m)
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := manifest.New("  "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
