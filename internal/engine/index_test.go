package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqltools/mqlgather/internal/stats"
)

func TestIndexGroupsByFingerprint(t *testing.T) {
	ix := NewIndex()
	ix.Add(FileHandle{Path: "/a/x.mq4", Recognized: true}, Fingerprint("aaa"))
	ix.Add(FileHandle{Path: "/b/x.mq4", Recognized: false}, Fingerprint("aaa"))
	ix.Add(FileHandle{Path: "/c/y.mq4", Recognized: false}, Fingerprint("bbb"))

	groups := ix.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, Fingerprint("aaa"), groups[0].Fingerprint)
	assert.Len(t, groups[0].Recognized, 1)
	assert.Len(t, groups[0].Other, 1)
	assert.Equal(t, Fingerprint("bbb"), groups[1].Fingerprint)
	assert.Equal(t, 3, ix.Len())
}

func TestIndexRecognizedWinsGroup(t *testing.T) {
	g := &DedupGroup{
		Fingerprint: Fingerprint("aaa"),
		Recognized:  []FileHandle{{Path: "/mql/MQL4/x.mq4"}},
		Other:       []FileHandle{{Path: "/downloads/x.mq4"}},
	}
	assert.Equal(t, "/mql/MQL4/x.mq4", g.Placeable()[0].Path)
	assert.Equal(t, "/downloads/x.mq4", g.Skipped()[0].Path)
}

func TestIndexOtherOnlyGroupIsPlaceable(t *testing.T) {
	g := &DedupGroup{
		Fingerprint: Fingerprint("aaa"),
		Other:       []FileHandle{{Path: "/downloads/x.mq4"}},
	}
	assert.Len(t, g.Placeable(), 1)
	assert.Empty(t, g.Skipped())
}

func TestIndexUnreadableFilesAreSingletons(t *testing.T) {
	ix := NewIndex()
	ix.Add(FileHandle{Path: "/b/broken.mq4"}, Unknown)
	ix.Add(FileHandle{Path: "/a/broken.mq4"}, Unknown)
	ix.Add(FileHandle{Path: "/c/ok.mq4", Recognized: true}, Fingerprint("ccc"))

	groups := ix.Groups()
	require.Len(t, groups, 3)

	// Known groups first, then one group per unreadable file in path order.
	assert.Equal(t, Fingerprint("ccc"), groups[0].Fingerprint)
	assert.Equal(t, Unknown, groups[1].Fingerprint)
	assert.Equal(t, "/a/broken.mq4", groups[1].Placeable()[0].Path)
	assert.Equal(t, Unknown, groups[2].Fingerprint)
	assert.Equal(t, "/b/broken.mq4", groups[2].Placeable()[0].Path)
}

func TestIndexGroupsDeterministicOrder(t *testing.T) {
	build := func() []*DedupGroup {
		ix := NewIndex()
		ix.Add(FileHandle{Path: "/z/a.mq4"}, Fingerprint("222"))
		ix.Add(FileHandle{Path: "/a/b.mq4"}, Fingerprint("111"))
		ix.Add(FileHandle{Path: "/m/c.mq4", Recognized: true}, Fingerprint("111"))
		ix.Add(FileHandle{Path: "/b/c.mq4", Recognized: true}, Fingerprint("111"))
		return ix.Groups()
	}

	first := build()
	second := build()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Fingerprint, second[i].Fingerprint)
		require.Equal(t, len(first[i].Recognized), len(second[i].Recognized))
		for j := range first[i].Recognized {
			assert.Equal(t, first[i].Recognized[j].Path, second[i].Recognized[j].Path)
		}
	}

	// Subsets come back sorted by source path.
	assert.Equal(t, "/b/c.mq4", first[0].Recognized[0].Path)
	assert.Equal(t, "/m/c.mq4", first[0].Recognized[1].Path)
}

func TestBuildIndex(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.mq4")
	pathB := filepath.Join(dir, "b.mq4")
	require.NoError(t, os.WriteFile(pathA, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(pathB, []byte("same"), 0644))

	handles := make(chan FileHandle, 2)
	handles <- FileHandle{Path: pathA, Recognized: true}
	handles <- FileHandle{Path: pathB}
	close(handles)

	collector := stats.NewCollector()
	ix := BuildIndex(context.Background(), handles, 2, collector, nil)

	groups := ix.Groups()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Recognized, 1)
	assert.Len(t, groups[0].Other, 1)
	assert.Equal(t, int64(2), collector.Snapshot().FilesHashed)
}

func TestBuildIndexUnreadable(t *testing.T) {
	handles := make(chan FileHandle, 1)
	handles <- FileHandle{Path: "/nonexistent/gone.mq4"}
	close(handles)

	collector := stats.NewCollector()
	ix := BuildIndex(context.Background(), handles, 1, collector, nil)

	groups := ix.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, Unknown, groups[0].Fingerprint)
	assert.Equal(t, int64(1), collector.Snapshot().FilesUnreadable)
}
