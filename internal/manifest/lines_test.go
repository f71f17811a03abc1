package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const avMeta = `
https://data.geo.admin.ch/ch.swisstopo-vd.amtliche-vermessung/DM01AVCH24D/SHP/AG/4022.zip 2023-11-16
https://data.geo.admin.ch/ch.swisstopo-vd.amtliche-vermessung/DM01AVCH24D/ITF/AG/4022.zip 2023-11-16
https://data.geo.admin.ch/ch.swisstopo-vd.amtliche-vermessung/DM01AVCH24D/SHP/ZH/0261.zip 2024-01-03
`

func TestParseLines(t *testing.T) {
	m, err := ParseLines(avMeta, nil)
	require.NoError(t, err)
	require.Len(t, m, 3)

	entry, ok := m["20231116_DM01AVCH24D_SHP_AG_4022.zip"]
	require.True(t, ok)
	assert.Equal(t, "https://data.geo.admin.ch/ch.swisstopo-vd.amtliche-vermessung/DM01AVCH24D/SHP/AG/4022.zip", entry.Href)
	assert.Equal(t, time.Date(2023, 11, 16, 0, 0, 0, 0, time.UTC), entry.Updated)
}

func TestParseLinesSHPFilter(t *testing.T) {
	m, err := ParseLines(avMeta, KeepSHP)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"20231116_DM01AVCH24D_SHP_AG_4022.zip",
		"20240103_DM01AVCH24D_SHP_ZH_0261.zip",
	}, identities(m.Identities()))
}

func TestParseLinesNewerDateChangesIdentity(t *testing.T) {
	before, err := ParseLines("https://host/D/SHP/AG/1.zip 2023-11-01", nil)
	require.NoError(t, err)
	after, err := ParseLines("https://host/D/SHP/AG/1.zip 2023-11-16", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"20231101_D_SHP_AG_1.zip"}, identities(before.Identities()))
	assert.Equal(t, []string{"20231116_D_SHP_AG_1.zip"}, identities(after.Identities()))
}

func TestParseLinesMalformed(t *testing.T) {
	_, err := ParseLines("https://host/a.zip", nil)
	assert.Error(t, err, "a record without a date is rejected")

	_, err = ParseLines("https://host/a.zip 16.11.2023", nil)
	assert.Error(t, err, "a date in the wrong format is rejected")
}

func TestParseLinesEmpty(t *testing.T) {
	m, err := ParseLines("\n\n", nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func identities(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
