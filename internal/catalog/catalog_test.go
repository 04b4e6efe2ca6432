// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertConsistent checks that the three indexes describe the same set of
// live entries.
func assertConsistent(t *testing.T, c *Catalog) {
	t.Helper()
	require.Len(t, c.paths, len(c.entries))

	names := make(map[string]int)
	for id, e := range c.entries {
		assert.Equal(t, id, e.ID)
		assert.Contains(t, c.paths, e.SourcePath)
		names[e.FullName()]++
	}
	assert.Equal(t, names, c.names)
}

func accept(string) bool { return true }
func reject(string) bool { return false }

func TestAdd(t *testing.T) {
	tests := []struct {
		name      string
		adds      [][3]string
		conflict  ConflictFunc
		wantCount int
		wantIDs   []int
	}{
		{
			name:      "distinct documents",
			adds:      [][3]string{{"/a/report.docx", "report", ".docx"}, {"/a/notes.odt", "notes", ".odt"}},
			conflict:  reject,
			wantCount: 2,
			wantIDs:   []int{1, 2},
		},
		{
			name:      "same path twice",
			adds:      [][3]string{{"/a/report.docx", "report", ".docx"}, {"/a/report.docx", "report", ".docx"}},
			conflict:  accept,
			wantCount: 1,
			wantIDs:   []int{1},
		},
		{
			name:      "same name rejected",
			adds:      [][3]string{{"/a/report.docx", "report", ".docx"}, {"/b/report.docx", "report", ".docx"}},
			conflict:  reject,
			wantCount: 1,
			wantIDs:   []int{1},
		},
		{
			name:      "same name admitted",
			adds:      [][3]string{{"/a/report.docx", "report", ".docx"}, {"/b/report.docx", "report", ".docx"}},
			conflict:  accept,
			wantCount: 2,
			wantIDs:   []int{1, 2},
		},
		{
			name:      "same stem different extension",
			adds:      [][3]string{{"/a/report.docx", "report", ".docx"}, {"/a/report.odt", "report", ".odt"}},
			conflict:  reject,
			wantCount: 2,
			wantIDs:   []int{1, 2},
		},
		{
			name:      "nil conflict func rejects",
			adds:      [][3]string{{"/a/report.docx", "report", ".docx"}, {"/b/report.docx", "report", ".docx"}},
			wantCount: 1,
			wantIDs:   []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			var ids []int
			for _, a := range tt.adds {
				if e, ok := c.Add(a[0], a[1], a[2], tt.conflict); ok {
					ids = append(ids, e.ID)
				}
			}
			assert.Equal(t, tt.wantCount, c.Count())
			assert.Equal(t, tt.wantIDs, ids)
			assertConsistent(t, c)
		})
	}
}

func TestAdd_CountMatchesSuccessfulAdds(t *testing.T) {
	c := New()
	added := 0
	for i := 0; i < 50; i++ {
		path := fmt.Sprintf("/docs/%d/file.docx", i%20)
		stem := fmt.Sprintf("file%d", i%7)
		if _, ok := c.Add(path, stem, ".docx", func(string) bool { return i%2 == 0 }); ok {
			added++
		}
		require.Equal(t, added, c.Count())
	}
	assertConsistent(t, c)
}

func TestAdd_DuplicatePathNeverPrompts(t *testing.T) {
	c := New()
	calls := 0
	prompt := func(string) bool { calls++; return true }

	_, ok := c.Add("/a/report.docx", "report", ".docx", prompt)
	require.True(t, ok)
	_, ok = c.Add("/a/report.docx", "report", ".docx", prompt)

	assert.False(t, ok)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, c.Count())
}

func TestAdd_PromptsOncePerConflictingAdd(t *testing.T) {
	c := New()
	var asked []string
	prompt := func(name string) bool { asked = append(asked, name); return false }

	c.Add("/a/report.docx", "report", ".docx", prompt)
	c.Add("/b/report.docx", "report", ".docx", prompt)
	c.Add("/c/report.docx", "report", ".docx", prompt)

	assert.Equal(t, []string{"report.docx", "report.docx"}, asked)
	assert.Equal(t, 1, c.Count())
}

func TestRename(t *testing.T) {
	c := New()
	a, _ := c.Add("/a/report.docx", "report", ".docx", reject)
	b, _ := c.Add("/b/summary.docx", "summary", ".docx", reject)

	t.Run("same stem is a no-op", func(t *testing.T) {
		got, ok := c.Rename(a.ID, "report")
		require.True(t, ok)
		assert.Equal(t, a, got)
		assertConsistent(t, c)
	})

	t.Run("conflict leaves both names unchanged", func(t *testing.T) {
		_, ok := c.Rename(a.ID, "summary")
		assert.False(t, ok)

		gotA, _ := c.Get(a.ID)
		gotB, _ := c.Get(b.ID)
		assert.Equal(t, "report", gotA.Stem)
		assert.Equal(t, "summary", gotB.Stem)
		assertConsistent(t, c)
	})

	t.Run("free name succeeds", func(t *testing.T) {
		got, ok := c.Rename(a.ID, "annual")
		require.True(t, ok)
		assert.Equal(t, "annual.docx", got.FullName())
		assert.Equal(t, a.SourcePath, got.SourcePath)
		assertConsistent(t, c)

		// The old name is free again.
		_, ok = c.Rename(b.ID, "report")
		assert.True(t, ok)
		assertConsistent(t, c)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, ok := c.Rename(99, "anything")
		assert.False(t, ok)
	})
}

func TestRename_AdmittedDuplicate(t *testing.T) {
	c := New()
	first, _ := c.Add("/a/report.docx", "report", ".docx", reject)
	second, ok := c.Add("/b/report.docx", "report", ".docx", accept)
	require.True(t, ok)

	// Renaming one of the pair keeps the name reserved for the other.
	_, ok = c.Rename(second.ID, "report-b")
	require.True(t, ok)
	assertConsistent(t, c)

	_, ok = c.Rename(second.ID, "report")
	assert.False(t, ok, "report.docx is still used by entry %d", first.ID)
}

func TestReset(t *testing.T) {
	c := New()
	c.Add("/a/report.docx", "report", ".docx", reject)
	c.Add("/b/notes.odt", "notes", ".odt", reject)

	c.Reset()
	assert.Equal(t, 0, c.Count())
	assert.Empty(t, c.Entries())
	assertConsistent(t, c)

	e, ok := c.Add("/a/report.docx", "report", ".docx", reject)
	require.True(t, ok)
	assert.Equal(t, 1, e.ID)
}

func TestEntries_SortedByID(t *testing.T) {
	c := New()
	for i := 0; i < 10; i++ {
		c.Add(fmt.Sprintf("/d/%d.odt", i), fmt.Sprintf("doc%d", i), ".odt", reject)
	}
	entries := c.Entries()
	require.Len(t, entries, 10)
	for i, e := range entries {
		assert.Equal(t, i+1, e.ID)
	}
}
