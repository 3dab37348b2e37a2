package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zip"

	"mineardmg/internal/services"
)

const versionFileName = "version.json"

type versionInfo struct {
	ID          string              `json:"id"`
	PackVersion jsoniter.RawMessage `json:"pack_version"`
}

// ParsePackVersion extracts the resource pack format from version.json.
// Older clients store a plain integer; newer ones store {"resource": N, "data": M}.
func ParsePackVersion(data []byte) (int, error) {
	var info versionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return 0, fmt.Errorf("decode %s: %w", versionFileName, err)
	}
	raw := bytes.TrimSpace(info.PackVersion)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("%s has no pack_version", versionFileName)
	}

	var plain int
	if err := json.Unmarshal(raw, &plain); err == nil {
		return validPackVersion(plain)
	}

	var split struct {
		Resource *int `json:"resource"`
		Data     *int `json:"data"`
	}
	if err := json.Unmarshal(raw, &split); err != nil {
		return 0, fmt.Errorf("decode pack_version: %w", err)
	}
	if split.Resource == nil {
		return 0, errors.New("pack_version object has no resource field")
	}
	return validPackVersion(*split.Resource)
}

func validPackVersion(v int) (int, error) {
	if v < 1 {
		return 0, fmt.Errorf("invalid pack version %d", v)
	}
	return v, nil
}

// PackVersionFromJar reads version.json out of a client jar.
func PackVersionFromJar(jar []byte) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(jar), int64(len(jar)))
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "manifest", "open client jar", "", err)
	}
	for _, file := range zr.File {
		if !strings.EqualFold(file.Name, versionFileName) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return 0, services.Wrap(services.ErrValidation, "manifest", "open "+versionFileName, "", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return 0, services.Wrap(services.ErrValidation, "manifest", "read "+versionFileName, "", err)
		}
		version, err := ParsePackVersion(data)
		if err != nil {
			return 0, services.Wrap(services.ErrValidation, "manifest", "pack version", "", err)
		}
		return version, nil
	}
	return 0, services.Wrap(services.ErrValidation, "manifest", "client jar", "archive has no "+versionFileName, nil)
}
