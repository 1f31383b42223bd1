package zarrman

import (
	"encoding/json"
	"fmt"
	"time"
)

// manifestWire is the top-level {"entries": ...} shape of a manifest
// JSON document.
type manifestWire struct {
	Entries json.RawMessage `json:"entries"`
}

// UnmarshalJSON decodes a DirObject, where each value is either another
// nested object or a 4-element [s3_version_id, last_modified, size,
// etag] array leaf.
func (d *DirObject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Dirs = make(map[string]*DirObject)
	d.Entries = make(map[string]*EntryLeaf)

	for name, value := range raw {
		trimmed := trimLeadingSpace(value)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			leaf, err := decodeLeaf(trimmed)
			if err != nil {
				return fmt.Errorf("zarrman: entry %q: %w", name, err)
			}
			d.Entries[name] = leaf
			continue
		}

		child := &DirObject{}
		if err := json.Unmarshal(value, child); err != nil {
			return fmt.Errorf("zarrman: entry %q: %w", name, err)
		}
		d.Dirs[name] = child
	}
	return nil
}

func decodeLeaf(data []byte) (*EntryLeaf, error) {
	var tuple [4]any
	if err := json.Unmarshal(data, &tuple); err != nil {
		return nil, err
	}
	versionID, _ := tuple[0].(string)
	lastModStr, _ := tuple[1].(string)
	sizeF, _ := tuple[2].(float64)
	etag, _ := tuple[3].(string)

	lastMod, err := time.Parse(time.RFC3339, lastModStr)
	if err != nil {
		lastMod = time.Time{}
	}

	return &EntryLeaf{
		S3VersionID:  versionID,
		LastModified: lastMod,
		Size:         uint64(sizeF),
		ETag:         etag,
	}, nil
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

// parseManifest decodes a raw manifest document body into a Manifest
// for (zarrID, checksum).
func parseManifest(zarrID, checksum string, body []byte) (*Manifest, error) {
	var wire manifestWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("zarrman: parsing manifest %s/%s: %w", zarrID, checksum, err)
	}
	root := &DirObject{}
	if err := json.Unmarshal(wire.Entries, root); err != nil {
		return nil, fmt.Errorf("zarrman: parsing manifest %s/%s entries: %w", zarrID, checksum, err)
	}
	return &Manifest{
		ZarrID:   zarrID,
		Checksum: checksum,
		Root:     root,
		RawSize:  len(body),
	}, nil
}
