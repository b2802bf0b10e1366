package npc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
npcs:
  - id: dark_organization
    kind: shadow
    display_name: "????"
    persona: "A faceless account that answers in curt, unsettling fragments."
    fallback: "..."
    posts:
      - content: "We are watching."
        likes: 13
  - id: mira
    kind: friend
    display_name: Mira
    persona: "Cheerful classmate who overuses emoji."
    fallback: "sorry, my phone is acting up again!! brb"
`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "npcs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	def, ok := cat.Get("dark_organization")
	require.True(t, ok)
	assert.Equal(t, "shadow", def.Kind)
	assert.Equal(t, "...", def.Fallback)
	require.Len(t, def.Posts, 1)

	_, ok = cat.Get("nobody")
	assert.False(t, ok)

	all := cat.All()
	require.Len(t, all, 2)
	assert.Equal(t, "dark_organization", all[0].ID)
	assert.Equal(t, "mira", all[1].ID)
}

func TestLoadCatalogRejectsIncompleteDefinitions(t *testing.T) {
	cases := map[string]string{
		"missing fallback": `
npcs:
  - id: silent
    display_name: Silent
    persona: "says nothing"
`,
		"missing id": `
npcs:
  - display_name: Ghost
    persona: "boo"
    fallback: "..."
`,
		"duplicate id": `
npcs:
  - {id: twin, display_name: A, persona: p, fallback: f}
  - {id: twin, display_name: B, persona: p, fallback: f}
`,
		"empty catalog": `npcs: []`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
