package tree_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/MyTechPlan/oc-client/internal/mocks"
	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/MyTechPlan/oc-client/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func file(p string) repository.Entry {
	return repository.Entry{Path: p, Type: repository.EntryFile}
}

func dir(p string) repository.Entry {
	return repository.Entry{Path: p, Type: repository.EntryDir}
}

func names(nodes []*tree.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

// paths flattens the forest depth-first into full repository paths.
func paths(nodes []*tree.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Path)
		out = append(out, paths(n.Children)...)
	}
	return out
}

func TestBuild_WorkspaceBase(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		dir("workspace"),
		file("workspace/foo.txt"),
		file("README.md"),
		dir("cron"),
		file("cron/jobs.json"),
	})

	assert.Equal(t, "workspace", forest.BasePath)
	require.Len(t, forest.Nodes, 1)
	assert.Equal(t, "foo.txt", forest.Nodes[0].Name)
	assert.Equal(t, "workspace/foo.txt", forest.Nodes[0].Path)
	assert.Equal(t, repository.EntryFile, forest.Nodes[0].Type)
}

func TestBuild_RepositoryRoot(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		dir("memory"),
		file("memory/2024-01-01.md"),
		file("SOUL.md"),
	})

	assert.Equal(t, "", forest.BasePath)
	assert.Equal(t, []string{"memory", "memory/2024-01-01.md", "SOUL.md"}, paths(forest.Nodes))
}

func TestBuild_SortsDirectoriesFirst(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		dir("a"),
		dir("b"),
		file("b/file.txt"),
		file("a/file.txt"),
		file("a.txt"),
	})

	assert.Equal(t, []string{"a", "b", "a.txt"}, names(forest.Nodes))
	assert.Equal(t, []string{"file.txt"}, names(forest.Nodes[0].Children))
	assert.Equal(t, []string{"file.txt"}, names(forest.Nodes[1].Children))
}

func TestBuild_OrdinalNameOrder(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		file("b.md"),
		file("B.md"),
		file("a.md"),
		file("_notes.md"),
	})

	assert.Equal(t, []string{"B.md", "_notes.md", "a.md", "b.md"}, names(forest.Nodes))
}

func TestBuild_ExcludesBinaryFilesAtAnyDepth(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		file("logo.png"),
		file("LOGO.PNG"),
		dir("assets"),
		dir("assets/img"),
		file("assets/img/banner.png"),
		file("assets/img/notes.md"),
		dir("pictures.png"),
	})

	all := paths(forest.Nodes)
	assert.NotContains(t, all, "logo.png")
	assert.NotContains(t, all, "LOGO.PNG")
	assert.NotContains(t, all, "assets/img/banner.png")
	assert.Contains(t, all, "assets/img/notes.md")
	assert.Contains(t, all, "pictures.png", "directories are never filtered by extension")
}

func TestBuild_ExcludesIgnoredDirectoriesAtAnyDepth(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		dir(".git"),
		file(".git/HEAD"),
		dir("src"),
		dir("src/.git"),
		file("src/.git/config"),
		dir("src/node_modules"),
		file("src/node_modules/x/index.js"),
		file("src/main.go"),
	})

	assert.Equal(t, []string{"src", "src/main.go"}, paths(forest.Nodes))
}

func TestBuild_ExcludesIgnoredFiles(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		file("package.json"),
		file("package-lock.json"),
		file(".DS_Store"),
		dir("web"),
		file("web/yarn.lock"),
	})

	assert.Equal(t, []string{"web", "package.json"}, paths(forest.Nodes))
}

func TestBuild_DropsOrphans(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		file("deep/nested/file.txt"),
		file("top.txt"),
	})

	assert.Equal(t, []string{"top.txt"}, paths(forest.Nodes))
}

func TestBuild_ChildrenOfFilteredDirectoryAreDropped(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		dir("venv"),
		dir("venv/lib"),
		file("venv/lib/site.py"),
	})

	assert.Empty(t, forest.Nodes)
}

func TestBuild_DeduplicatesPaths(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		file("a.txt"),
		file("a.txt"),
		dir("d"),
		dir("d"),
		file("d/x"),
	})

	assert.Equal(t, []string{"d", "d/x", "a.txt"}, paths(forest.Nodes))
}

func TestBuild_Empty(t *testing.T) {
	forest := tree.Build(nil)
	assert.Equal(t, "", forest.BasePath)
	assert.NotNil(t, forest.Nodes)
	assert.Empty(t, forest.Nodes)
}

func TestNode_MarshalJSON(t *testing.T) {
	forest := tree.Build([]repository.Entry{
		dir("empty"),
		dir("docs"),
		file("docs/a.md"),
		file("z.txt"),
	})

	out, err := json.Marshal(forest.Nodes)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name":"docs","path":"docs","type":"dir","children":[
			{"name":"a.md","path":"docs/a.md","type":"file"}
		]},
		{"name":"empty","path":"empty","type":"dir","children":[]},
		{"name":"z.txt","path":"z.txt","type":"file"}
	]`, string(out))
}

func TestHidden(t *testing.T) {
	tests := []struct {
		rel    string
		typ    repository.EntryType
		hidden bool
	}{
		{"main.go", repository.EntryFile, false},
		{"photo.JPeG", repository.EntryFile, true},
		{"archive.tar.gz", repository.EntryFile, true},
		{"fonts", repository.EntryDir, false},
		{"static.zip", repository.EntryDir, false},
		{"a/__pycache__/m.pyc", repository.EntryFile, true},
		{"a/.vscode", repository.EntryDir, true},
		{"Thumbs.db", repository.EntryFile, true},
		{"notes.svg", repository.EntryFile, false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.hidden, tree.Hidden(tt.rel, tt.typ))
		})
	}
}

func TestFetcher_Fetch(t *testing.T) {
	coord := repository.Coordinate{Owner: "o", Name: "r"}
	repo := new(mocks.MockRepository)
	repo.On("RecursiveTree", mock.Anything, coord).Return([]repository.Entry{
		dir("workspace"),
		file("workspace/AGENTS.md"),
	}, nil)

	res := tree.NewFetcher(repo).Fetch(context.Background(), coord)

	assert.False(t, res.Failed())
	assert.Equal(t, "workspace", res.Forest.BasePath)
	assert.Equal(t, []string{"AGENTS.md"}, names(res.Forest.Nodes))
	repo.AssertExpectations(t)
}

func TestFetcher_FetchFailure(t *testing.T) {
	coord := repository.Coordinate{Owner: "o", Name: "r"}
	upstream := &repository.UpstreamError{Op: "get_tree", StatusCode: 502, Err: errors.New("bad gateway")}
	repo := new(mocks.MockRepository)
	repo.On("RecursiveTree", mock.Anything, coord).Return(nil, upstream)

	res := tree.NewFetcher(repo).Fetch(context.Background(), coord)

	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, upstream)
	assert.Equal(t, "", res.Forest.BasePath)
	assert.Empty(t, res.Forest.Nodes)
	repo.AssertExpectations(t)
}
