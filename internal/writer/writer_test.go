package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestWriteProducesSortedDeduplicatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adlist.txt")
	entries := []string{"b.example.com", "||zz.example^", "a.example.com", "B.Example.Com", " a.example.com "}

	err := Write(path, entries, Header{Title: "Test", Timestamp: testTime, Sources: 2})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.NotContains(t, content, "\r")
	assert.True(t, strings.HasSuffix(content, "\n"))

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	var header, body []string
	inHeader := true
	for _, l := range lines {
		if inHeader && strings.HasPrefix(l, "#") {
			header = append(header, l)
			continue
		}
		inHeader = false
		body = append(body, l)
	}

	assert.Equal(t, []string{"a.example.com", "b.example.com", "||zz.example^"}, body)

	assert.Contains(t, header, "# Title: Test")
	assert.Contains(t, header, "# Generator: "+Generator)
	assert.Contains(t, header, "# Updated: 2025-06-01T12:00:00Z")
	assert.Contains(t, header, "# Total entries: 3")
	assert.Contains(t, header, "# Domains: 2")
	assert.Contains(t, header, "# ABP rules: 1")
	assert.Contains(t, header, "# Sources: 2")
	assert.Equal(t, "#", header[len(header)-1])
}

func TestWriteRoundTripIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "adlist.txt")
	second := filepath.Join(dir, "adlist2.txt")
	h := Header{Title: "Adlist", Timestamp: testTime, Sources: 1}

	require.NoError(t, Write(first, []string{"a.example.com", "||b.example^"}, h))

	reparsed := MergePrior(first, nil)
	require.NoError(t, Write(second, reparsed, h))

	want, err := os.ReadFile(first)
	require.NoError(t, err)
	got, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestMergePriorUnionsOldEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adlist.txt")
	h := Header{Title: "Adlist", Timestamp: testTime, Sources: 1}
	require.NoError(t, Write(path, []string{"a.example.com", "b.example.com", "@@||keep.example^"}, h))

	merged := Prepare(MergePrior(path, []string{"new.example.com"}))

	assert.Equal(t, []string{
		"@@||keep.example^",
		"a.example.com",
		"b.example.com",
		"new.example.com",
	}, merged)
}

func TestMergePriorMissingFile(t *testing.T) {
	entries := []string{"a.example.com"}
	merged := MergePrior(filepath.Join(t.TempDir(), "nope.txt"), entries)

	assert.Equal(t, entries, merged)
}

func TestPrepareSortsCaseFolded(t *testing.T) {
	out := Prepare([]string{"Beta.example", "alpha.example", "ALPHA.example", "", "gamma.example"})

	assert.Equal(t, []string{"alpha.example", "Beta.example", "gamma.example"}, out)
}

func TestWriteCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "adlist.txt")

	err := Write(path, []string{"a.example.com"}, Header{Title: "T", Timestamp: testTime})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
