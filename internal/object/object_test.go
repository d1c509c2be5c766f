package object

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(fsys.NewMem(), "/repo/.gitlite/objects")
	require.NoError(t, err)
	return s
}

func TestBlobRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id, err := s.PutBlob([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "f572d396fae9206628714fb2ce00f72e94f2258f", id)

	got, err := s.GetBlob(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\n"), got)

	t.Run("idempotent", func(t *testing.T) {
		again, err := s.PutBlob([]byte("hello\n"))
		require.NoError(t, err)
		assert.Equal(t, id, again)
	})

	t.Run("missing blob", func(t *testing.T) {
		_, err := s.GetBlob(strings.Repeat("0", IDLength))
		assert.True(t, gliterr.Is(err, gliterr.KindObjectMissing))
	})
}

func TestCommitIDDeterminism(t *testing.T) {
	tree := map[string]string{
		"b.txt": strings.Repeat("b", IDLength),
		"a.txt": strings.Repeat("a", IDLength),
	}
	c1 := NewCommit("msg", 42, []string{strings.Repeat("1", IDLength)}, tree)
	c2 := NewCommit("msg", 42, []string{strings.Repeat("1", IDLength)}, map[string]string{
		"a.txt": strings.Repeat("a", IDLength),
		"b.txt": strings.Repeat("b", IDLength),
	})
	assert.Equal(t, c1.ID, c2.ID)

	t.Run("message changes id", func(t *testing.T) {
		c3 := NewCommit("other", 42, []string{strings.Repeat("1", IDLength)}, tree)
		assert.NotEqual(t, c1.ID, c3.ID)
	})

	t.Run("root is stable", func(t *testing.T) {
		assert.Equal(t, NewRoot().ID, NewRoot().ID)
		assert.True(t, NewRoot().IsRoot())
	})
}

func TestCodecRoundTrip(t *testing.T) {
	c := NewCommit("a commit", 1700000000, []string{strings.Repeat("1", IDLength), strings.Repeat("2", IDLength)}, map[string]string{
		"z.txt": strings.Repeat("f", IDLength),
		"a.txt": strings.Repeat("e", IDLength),
	})
	c.MergeInfo = "1111111 2222222"

	encoded := Encode(c)
	lines := strings.Split(string(encoded), "\n")
	require.Len(t, lines, 6) // five records plus trailing newline
	assert.Equal(t, "Message:a commit", lines[0])
	assert.Equal(t, "Time:1700000000", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Parents:"))
	assert.Equal(t, "Merge:1111111 2222222", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "Blobs:a.txt:"), "blobs are sorted by filename")

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, c.ID, decoded.ID)
	assert.Equal(t, encoded, Encode(decoded), "encode(decode(x)) must reproduce the bytes")
}

func TestDecodeCorrupt(t *testing.T) {
	cases := map[string]string{
		"blob content":    "just some file\n",
		"bad timestamp":   "Message:m\nTime:soon\nParents:\nMerge:\nBlobs:\n",
		"malformed blobs": "Message:m\nTime:1\nParents:\nMerge:\nBlobs:broken\n",
		"empty":           "",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.True(t, gliterr.Is(err, gliterr.KindCorruptObject))
		})
	}
}

func TestCommitStore(t *testing.T) {
	s := newTestStore(t)

	c := NewCommit("first", 99, []string{NewRoot().ID}, map[string]string{"a.txt": strings.Repeat("a", IDLength)})
	id, err := s.PutCommit(c)
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)

	got, err := s.GetCommit(id)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Message)
	assert.Equal(t, int64(99), got.Timestamp)
	assert.Equal(t, c.Tree, got.Tree)

	t.Run("storing the loaded commit again yields the same id", func(t *testing.T) {
		again, err := s.PutCommit(got)
		require.NoError(t, err)
		assert.Equal(t, id, again)
	})
}

func TestListIDs(t *testing.T) {
	fs := fsys.NewMem()
	s, err := NewStore(fs, "/o")
	require.NoError(t, err)

	blobID, err := s.PutBlob([]byte("data"))
	require.NoError(t, err)

	// Foreign files in the object directory are ignored.
	require.NoError(t, fs.Write("/o/README", []byte("not an object")))
	require.NoError(t, fs.Write("/o/"+strings.Repeat("z", IDLength), []byte("not hex")))

	ids, err := s.ListIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{blobID}, ids)
}
