package types

import "time"

// ManifestEntry is one expected remote object parsed from an upstream index
// (a line-oriented meta.txt or a STAC item document).
//
// Identity is the versioned object name the entry resolves to; it embeds the
// upstream timestamp, so a newer upstream timestamp yields a new identity.
// Identity derivation is deterministic and independent of the entry's
// position in the source manifest.
type ManifestEntry struct {
	// Identity is the stored object name, e.g.
	// "20231116_DM01AVCH24D_SHP_AG_4022.zip".
	Identity string

	// Href is the source locator the entry is fetched from.
	Href string

	// Updated is the upstream timestamp associated with the object.
	Updated time.Time
}

// Manifest maps identities to their entries. Keys(expected) minus the stored
// set is the fetch set; the stored set minus keys(expected) is the delete set.
type Manifest map[string]ManifestEntry

// Identities returns the identity set of the manifest.
func (m Manifest) Identities() map[string]bool {
	ids := make(map[string]bool, len(m))
	for id := range m {
		ids[id] = true
	}
	return ids
}
