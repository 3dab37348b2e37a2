package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// Version types reported by the version list.
const (
	TypeRelease  = "release"
	TypeSnapshot = "snapshot"
)

// Version is one entry of the version list.
type Version struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Time        string `json:"time"`
	ReleaseTime string `json:"releaseTime"`
}

// Latest names the newest release and snapshot.
type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// VersionList is the top-level launcher version manifest.
type VersionList struct {
	Latest   Latest    `json:"latest"`
	Versions []Version `json:"versions"`
}

// Resolve maps a selector to a version. "latest" and "release" pick the
// newest release, "snapshot" the newest snapshot; anything else is an exact id.
func (l *VersionList) Resolve(selector string) (Version, error) {
	id := strings.TrimSpace(selector)
	switch strings.ToLower(id) {
	case "", "latest", TypeRelease:
		id = l.Latest.Release
	case TypeSnapshot:
		id = l.Latest.Snapshot
	}
	for _, v := range l.Versions {
		if v.ID == id {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("version %q not found in version list", id)
}

// Filter returns releases, plus snapshots when includeSnapshots is set, in
// manifest order (newest first).
func (l *VersionList) Filter(includeSnapshots bool) []Version {
	out := make([]Version, 0, len(l.Versions))
	for _, v := range l.Versions {
		if v.Type == TypeRelease || (includeSnapshots && v.Type == TypeSnapshot) {
			out = append(out, v)
		}
	}
	return out
}

// ClientManifest is the per-version document referenced by Version.URL.
type ClientManifest struct {
	ID         string              `json:"id"`
	AssetIndex AssetIndexRef       `json:"assetIndex"`
	Downloads  map[string]Download `json:"downloads"`
}

// AssetIndexRef points at the asset index for a version.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// Download is one downloadable artifact of a version.
type Download struct {
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// ClientJar returns the client jar download.
func (m *ClientManifest) ClientJar() (Download, error) {
	d, ok := m.Downloads["client"]
	if !ok || strings.TrimSpace(d.URL) == "" {
		return Download{}, fmt.Errorf("client manifest %s lists no client jar", m.ID)
	}
	return d, nil
}

// Object is one content-addressed asset.
type Object struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// AssetIndex maps logical asset paths to objects.
type AssetIndex struct {
	Objects map[string]Object `json:"objects"`
}

// Sound is an asset selected for processing.
type Sound struct {
	// Path is the logical index path, e.g. minecraft/sounds/mob/cat/meow1.ogg.
	Path string
	Hash string
	Size int64
}

// PackPath is where the sound lives inside a resource pack.
func (s Sound) PackPath() string {
	return "assets/" + s.Path
}

// Sounds returns every .ogg object sorted by path.
func (a *AssetIndex) Sounds() []Sound {
	var sounds []Sound
	for path, obj := range a.Objects {
		if !strings.HasSuffix(path, ".ogg") {
			continue
		}
		sounds = append(sounds, Sound{Path: path, Hash: obj.Hash, Size: obj.Size})
	}
	sort.Slice(sounds, func(i, j int) bool { return sounds[i].Path < sounds[j].Path })
	return sounds
}
