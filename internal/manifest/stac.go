package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/folimar/geopanda/pkg/types"
)

// stacUpdatedFormat is the asset timestamp format of the geoportal STAC API.
const stacUpdatedFormat = "2006-01-02T15:04:05.999999999Z"

// stacItem is the subset of a STAC item document we consume.
type stacItem struct {
	Assets map[string]stacAsset `json:"assets"`
}

type stacAsset struct {
	Href    string `json:"href"`
	Updated string `json:"updated"`
}

// ParseSTACItem extracts the named asset keys from a STAC item document.
// The identity of each asset is the updated timestamp joined to the last
// segment of the asset href with the version separator, so the synced object
// is directly addressable as a day-versioned artifact:
//
//	{"updated": "2023-11-16T00:00:00.000Z", "href": ".../solareignung_2056.gdb.zip"}
//	→ 20231116__solareignung_2056.gdb.zip
//
// A requested key missing from the document is an error: the pipeline must
// not silently sync to an empty expected set and delete everything.
func ParseSTACItem(data []byte, assetKeys []string) (types.Manifest, error) {
	var item stacItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse stac item: %w", err)
	}

	m := types.Manifest{}
	for _, key := range assetKeys {
		asset, ok := item.Assets[key]
		if !ok {
			return nil, fmt.Errorf("stac item has no asset %q", key)
		}
		updated, err := time.Parse(stacUpdatedFormat, asset.Updated)
		if err != nil {
			return nil, fmt.Errorf("stac asset %q: bad updated %q: %w", key, asset.Updated, err)
		}
		parts := strings.Split(asset.Href, "/")
		entry := types.ManifestEntry{
			Identity: updated.Format(stampFormat) + "__" + parts[len(parts)-1],
			Href:     asset.Href,
			Updated:  updated,
		}
		m[entry.Identity] = entry
	}
	return m, nil
}
