package crx

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// ManifestFile is the name of the extension manifest at the archive root.
const ManifestFile = "manifest.json"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Manifest holds the fields of manifest.json reported with each run.
type Manifest struct {
	Name            string
	Version         string
	ManifestVersion int
}

// ParseManifest extracts the manifest fields from data.
// It returns false when data is not valid JSON.
func ParseManifest(data []byte) (Manifest, bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !gjson.ValidBytes(data) {
		return Manifest{}, false
	}

	fields := gjson.GetManyBytes(data, "name", "version", "manifest_version")
	return Manifest{
		Name:            fields[0].String(),
		Version:         fields[1].String(),
		ManifestVersion: int(fields[2].Int()),
	}, true
}
