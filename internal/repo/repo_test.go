package repo_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
	"gitlite/internal/repo"
)

// env hosts one or more repositories on a shared in-memory filesystem with a
// deterministic clock.
type env struct {
	t     *testing.T
	fs    *fsys.FS
	now   int64
	out   bytes.Buffer
	repos map[string]*repo.Repository
}

func newEnv(t *testing.T) *env {
	return &env{t: t, fs: fsys.NewMem(), now: 1700000000, repos: map[string]*repo.Repository{}}
}

func (e *env) clock() int64 {
	e.now++
	return e.now
}

func (e *env) initRepo(root string) *repo.Repository {
	e.t.Helper()
	r, err := repo.Init(e.fs, root, repo.WithOutput(&e.out), repo.WithClock(e.clock))
	require.NoError(e.t, err)
	e.repos[root] = r
	return r
}

func (e *env) write(root, name, content string) {
	e.t.Helper()
	require.NoError(e.t, e.fs.Write(e.fs.Join(root, name), []byte(content)))
}

func (e *env) read(root, name string) string {
	e.t.Helper()
	raw, err := e.fs.ReadString(e.fs.Join(root, name))
	require.NoError(e.t, err)
	return raw
}

func (e *env) addCommit(r *repo.Repository, root, name, content, message string) string {
	e.t.Helper()
	e.write(root, name, content)
	require.NoError(e.t, r.Add(name))
	id, err := r.Commit(message)
	require.NoError(e.t, err)
	return id
}

func TestInitAndFirstCommit(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")

	t.Run("init creates master at the root commit", func(t *testing.T) {
		assert.Equal(t, "master", e.read("/work", ".gitlite/HEAD"))

		rootID := e.read("/work", ".gitlite/branches/master")
		root, err := r.Objects().GetCommit(rootID)
		require.NoError(t, err)
		assert.Equal(t, "initial commit", root.Message)
		assert.Equal(t, int64(0), root.Timestamp)
		assert.Empty(t, root.Parents)
		assert.Empty(t, root.Tree)
	})

	t.Run("init refuses an existing repository", func(t *testing.T) {
		_, err := repo.Init(e.fs, "/work")
		assert.True(t, gliterr.Is(err, gliterr.KindAlreadyInitialised))
	})

	blobID := fsys.SHA1([]byte("hello\n"))
	t.Run("add stores the blob and stages the entry", func(t *testing.T) {
		e.write("/work", "a.txt", "hello\n")
		require.NoError(t, r.Add("a.txt"))

		assert.True(t, e.fs.IsFile("/work/.gitlite/objects/"+blobID))
		assert.Equal(t, "a.txt:"+blobID+"\n", e.read("/work", ".gitlite/staging"))
	})

	t.Run("commit records the tree and advances master", func(t *testing.T) {
		parent, err := r.HeadCommit()
		require.NoError(t, err)

		id, err := r.Commit("first")
		require.NoError(t, err)

		c, err := r.Objects().GetCommit(id)
		require.NoError(t, err)
		assert.Equal(t, []string{parent.ID}, c.Parents)
		assert.Equal(t, map[string]string{"a.txt": blobID}, c.Tree)

		assert.Equal(t, id, e.read("/work", ".gitlite/branches/master"))
		assert.Equal(t, "", e.read("/work", ".gitlite/staging"))
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		_, err := r.Commit("")
		assert.True(t, gliterr.Is(err, gliterr.KindEmptyCommitMessage))
	})

	t.Run("nothing staged is rejected", func(t *testing.T) {
		_, err := r.Commit("again")
		assert.True(t, gliterr.Is(err, gliterr.KindNothingStaged))
	})
}

func TestRmResurrection(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	e.addCommit(r, "/work", "a.txt", "hello\n", "first")

	require.NoError(t, r.Rm("a.txt"))
	assert.False(t, e.fs.IsFile("/work/a.txt"))
	assert.Equal(t, "a.txt\n", e.read("/work", ".gitlite/removed"))

	// Recreating the file and adding it again cancels the removal with no
	// net staged change.
	e.write("/work", "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	assert.Equal(t, "", e.read("/work", ".gitlite/removed"))
	assert.Equal(t, "", e.read("/work", ".gitlite/staging"))

	t.Run("rm of an untracked unstaged file fails", func(t *testing.T) {
		e.write("/work", "stray.txt", "x")
		err := r.Rm("stray.txt")
		assert.True(t, gliterr.Is(err, gliterr.KindNothingToRemove))
	})
}

func TestAddUnmodifiedDropsStagedEntry(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	e.addCommit(r, "/work", "a.txt", "v1", "first")

	e.write("/work", "a.txt", "v2")
	require.NoError(t, r.Add("a.txt"))
	assert.True(t, r.Staging().IsStaged("a.txt"))

	// Restoring the committed content and re-adding clears the entry.
	e.write("/work", "a.txt", "v1")
	require.NoError(t, r.Add("a.txt"))
	assert.False(t, r.Staging().IsStaged("a.txt"))

	t.Run("add of a missing file fails", func(t *testing.T) {
		err := r.Add("nope.txt")
		assert.True(t, gliterr.Is(err, gliterr.KindFileNotFound))
	})
}

func TestBranchAndMergeWithoutConflict(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	c1 := e.addCommit(r, "/work", "a.txt", "hello\n", "first")

	require.NoError(t, r.Branch("feat"))
	e.addCommit(r, "/work", "b.txt", "b\n", "add b")
	e.addCommit(r, "/work", "c.txt", "c\n", "add c")

	require.NoError(t, r.CheckoutBranch("feat"))
	assert.False(t, e.fs.IsFile("/work/b.txt"), "switching drops files absent from the target")
	e.addCommit(r, "/work", "d.txt", "d\n", "add d")

	require.NoError(t, r.CheckoutBranch("master"))
	e.out.Reset()
	require.NoError(t, r.Merge("feat"))
	assert.Empty(t, e.out.String(), "a clean merge prints no notice")

	head, err := r.HeadCommit()
	require.NoError(t, err)
	require.Len(t, head.Parents, 2)
	assert.Equal(t, "Merged feat into master.", head.Message)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt", "c.txt", "d.txt"}, head.SortedFiles())
	assert.Equal(t, "d\n", e.read("/work", "d.txt"))

	t.Run("split point was the fork", func(t *testing.T) {
		split, err := r.Graph().SplitPoint(head.Parents[0], head.Parents[1])
		require.NoError(t, err)
		assert.Equal(t, c1, split)
	})

	t.Run("branch name collisions are rejected", func(t *testing.T) {
		err := r.Branch("feat")
		assert.True(t, gliterr.Is(err, gliterr.KindBranchExists))
	})
}

func TestMergeConflict(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	e.addCommit(r, "/work", "x.txt", "A\n", "base")

	require.NoError(t, r.Branch("given"))
	e.addCommit(r, "/work", "x.txt", "B\n", "current change")

	require.NoError(t, r.CheckoutBranch("given"))
	e.addCommit(r, "/work", "x.txt", "C\n", "given change")

	require.NoError(t, r.CheckoutBranch("master"))
	e.out.Reset()
	require.NoError(t, r.Merge("given"))
	assert.Equal(t, "Encountered a merge conflict.\n", e.out.String())

	conflict := "<<<<<<< HEAD\nB\n=======\nC\n>>>>>>>\n"
	assert.Equal(t, conflict, e.read("/work", "x.txt"))
	assert.True(t, e.fs.IsFile("/work/.gitlite/objects/"+fsys.SHA1([]byte(conflict))))

	head, err := r.HeadCommit()
	require.NoError(t, err)
	require.Len(t, head.Parents, 2)
	assert.Equal(t, fsys.SHA1([]byte(conflict)), head.Blob("x.txt"))
}

func TestMergeShortCircuits(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	e.addCommit(r, "/work", "a.txt", "one\n", "first")

	require.NoError(t, r.Branch("feat"))
	e.addCommit(r, "/work", "b.txt", "two\n", "second")

	t.Run("given branch is an ancestor", func(t *testing.T) {
		e.out.Reset()
		require.NoError(t, r.Merge("feat"))
		assert.Equal(t, "Given branch is an ancestor of the current branch.\n", e.out.String())
	})

	t.Run("fast forward", func(t *testing.T) {
		require.NoError(t, r.CheckoutBranch("feat"))
		e.out.Reset()
		require.NoError(t, r.Merge("master"))
		assert.Equal(t, "Current branch fast-forwarded.\n", e.out.String())

		masterID, _, err := r.Refs().Branch("master")
		require.NoError(t, err)
		featID, _, err := r.Refs().Branch("feat")
		require.NoError(t, err)
		assert.Equal(t, masterID, featID)
		assert.True(t, e.fs.IsFile("/work/b.txt"))
	})

	t.Run("self merge", func(t *testing.T) {
		err := r.Merge("feat")
		assert.True(t, gliterr.Is(err, gliterr.KindSelfMerge))
	})

	t.Run("missing branch", func(t *testing.T) {
		err := r.Merge("ghost")
		assert.True(t, gliterr.Is(err, gliterr.KindNoSuchBranch))
	})

	t.Run("staged changes block merge", func(t *testing.T) {
		e.write("/work", "c.txt", "three\n")
		require.NoError(t, r.Add("c.txt"))
		err := r.Merge("master")
		assert.True(t, gliterr.Is(err, gliterr.KindUncommittedChanges))
		require.NoError(t, r.Rm("c.txt"))
	})
}

func TestUntrackedFileBlocksCheckout(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	e.addCommit(r, "/work", "a.txt", "hello\n", "first")

	require.NoError(t, r.Branch("other"))
	require.NoError(t, r.CheckoutBranch("other"))
	e.addCommit(r, "/work", "z.txt", "tracked z\n", "add z")
	require.NoError(t, r.CheckoutBranch("master"))

	e.write("/work", "z.txt", "precious local data\n")
	otherBefore, _, err := r.Refs().Branch("other")
	require.NoError(t, err)

	err = r.CheckoutBranch("other")
	assert.True(t, gliterr.Is(err, gliterr.KindUntrackedInTheWay))

	assert.Equal(t, "precious local data\n", e.read("/work", "z.txt"), "the untracked file is untouched")
	assert.Equal(t, "master", e.read("/work", ".gitlite/HEAD"))
	otherAfter, _, err := r.Refs().Branch("other")
	require.NoError(t, err)
	assert.Equal(t, otherBefore, otherAfter)

	t.Run("merge refuses the same situation", func(t *testing.T) {
		err := r.Merge("other")
		assert.True(t, gliterr.Is(err, gliterr.KindUntrackedInTheWay))
		assert.Equal(t, "precious local data\n", e.read("/work", "z.txt"))
	})
}

func TestCheckoutFileForms(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	first := e.addCommit(r, "/work", "a.txt", "v1\n", "first")
	e.addCommit(r, "/work", "a.txt", "v2\n", "second")

	t.Run("from head", func(t *testing.T) {
		e.write("/work", "a.txt", "scratch")
		require.NoError(t, r.CheckoutFile("a.txt"))
		assert.Equal(t, "v2\n", e.read("/work", "a.txt"))
	})

	t.Run("from a short id", func(t *testing.T) {
		require.NoError(t, r.CheckoutFileAt(first[:8], "a.txt"))
		assert.Equal(t, "v1\n", e.read("/work", "a.txt"))
	})

	t.Run("staging is untouched", func(t *testing.T) {
		assert.True(t, r.Staging().IsEmpty())
	})

	t.Run("file not in commit", func(t *testing.T) {
		err := r.CheckoutFileAt(first, "b.txt")
		assert.True(t, gliterr.Is(err, gliterr.KindFileNotInCommit))
	})

	t.Run("unknown commit", func(t *testing.T) {
		err := r.CheckoutFileAt("f0f0f0f0", "a.txt")
		assert.True(t, gliterr.Is(err, gliterr.KindNoSuchCommit))
	})
}

func TestReset(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	first := e.addCommit(r, "/work", "a.txt", "v1\n", "first")
	e.addCommit(r, "/work", "b.txt", "b\n", "second")

	e.write("/work", "c.txt", "pending")
	require.NoError(t, r.Add("c.txt"))

	require.NoError(t, r.Reset(first[:10]))
	assert.Equal(t, first, e.read("/work", ".gitlite/branches/master"))
	assert.False(t, e.fs.IsFile("/work/b.txt"))
	assert.Equal(t, "v1\n", e.read("/work", "a.txt"))
	assert.True(t, r.Staging().IsEmpty(), "reset clears the staging area")
}

func TestBranchRemoval(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	e.addCommit(r, "/work", "a.txt", "x\n", "first")
	require.NoError(t, r.Branch("feat"))

	t.Run("cannot remove the current branch", func(t *testing.T) {
		err := r.RmBranch("master")
		assert.True(t, gliterr.Is(err, gliterr.KindCurrentBranch))
	})

	t.Run("cannot remove a missing branch", func(t *testing.T) {
		err := r.RmBranch("ghost")
		assert.True(t, gliterr.Is(err, gliterr.KindNoSuchBranch))
	})

	t.Run("removal deletes only the pointer", func(t *testing.T) {
		featID, _, err := r.Refs().Branch("feat")
		require.NoError(t, err)
		require.NoError(t, r.RmBranch("feat"))
		_, ok, err := r.Refs().Branch("feat")
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = r.Objects().GetCommit(featID)
		assert.NoError(t, err, "the commit object survives")
	})
}

func TestStatusSections(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	e.write("/work", "mod.txt", "m1\n")
	e.write("/work", "del.txt", "d\n")
	e.write("/work", "gone.txt", "g\n")
	require.NoError(t, r.Add("mod.txt"))
	require.NoError(t, r.Add("del.txt"))
	require.NoError(t, r.Add("gone.txt"))
	_, err := r.Commit("base")
	require.NoError(t, err)
	require.NoError(t, r.Branch("other"))

	e.write("/work", "staged.txt", "s\n")
	require.NoError(t, r.Add("staged.txt"))
	require.NoError(t, r.Rm("gone.txt"))
	e.write("/work", "mod.txt", "m2\n")
	require.NoError(t, e.fs.Delete("/work/del.txt"))
	e.write("/work", "new.txt", "n\n")

	e.out.Reset()
	require.NoError(t, r.Status())

	want := strings.Join([]string{
		"=== Branches ===",
		"*master",
		"other",
		"",
		"=== Staged Files ===",
		"staged.txt",
		"",
		"=== Removed Files ===",
		"gone.txt",
		"",
		"=== Modifications Not Staged For Commit ===",
		"del.txt (deleted)",
		"mod.txt (modified)",
		"",
		"=== Untracked Files ===",
		"new.txt",
		"",
	}, "\n")
	assert.Equal(t, want, e.out.String())
}

func TestLogOutput(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	first := e.addCommit(r, "/work", "a.txt", "1\n", "first")
	second := e.addCommit(r, "/work", "a.txt", "2\n", "second")

	e.out.Reset()
	require.NoError(t, r.Log())
	out := e.out.String()

	entries := strings.Split(strings.TrimSuffix(out, "\n"), "\n\n")
	require.Len(t, entries, 3)
	assert.True(t, strings.HasPrefix(entries[0], "===\ncommit "+second))
	assert.True(t, strings.HasPrefix(entries[1], "===\ncommit "+first))
	assert.Contains(t, entries[2], "initial commit")
	assert.Contains(t, entries[0], "\nDate: ")
	assert.NotContains(t, entries[0], "Merge:")

	t.Run("merge commits show both parents", func(t *testing.T) {
		require.NoError(t, r.Branch("feat"))
		e.addCommit(r, "/work", "b.txt", "b\n", "on master")
		require.NoError(t, r.CheckoutBranch("feat"))
		e.addCommit(r, "/work", "c.txt", "c\n", "on feat")
		require.NoError(t, r.CheckoutBranch("master"))
		require.NoError(t, r.Merge("feat"))

		head, err := r.HeadCommit()
		require.NoError(t, err)

		e.out.Reset()
		require.NoError(t, r.Log())
		assert.Contains(t, e.out.String(),
			fmt.Sprintf("Merge: %s %s", head.Parents[0][:7], head.Parents[1][:7]))
	})
}

func TestGlobalLogAndFind(t *testing.T) {
	e := newEnv(t)
	r := e.initRepo("/work")
	first := e.addCommit(r, "/work", "a.txt", "1\n", "same message")
	second := e.addCommit(r, "/work", "a.txt", "2\n", "same message")

	t.Run("global log includes every commit and skips blobs", func(t *testing.T) {
		e.out.Reset()
		require.NoError(t, r.GlobalLog())
		out := e.out.String()
		assert.Contains(t, out, first)
		assert.Contains(t, out, second)
		assert.Equal(t, 3, strings.Count(out, "===\n"))
	})

	t.Run("find prints matching ids", func(t *testing.T) {
		e.out.Reset()
		require.NoError(t, r.Find("same message"))
		lines := strings.Split(strings.TrimSuffix(e.out.String(), "\n"), "\n")
		assert.ElementsMatch(t, []string{first, second}, lines)
	})

	t.Run("find with no match fails", func(t *testing.T) {
		err := r.Find("never used")
		assert.True(t, gliterr.Is(err, gliterr.KindNoSuchMessage))
	})
}

func TestNotInitialised(t *testing.T) {
	e := newEnv(t)
	_, err := repo.Open(e.fs, "/nowhere")
	assert.True(t, gliterr.Is(err, gliterr.KindNotInitialised))
}
