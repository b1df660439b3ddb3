package entities

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HumanPrinter/enkoni-sub003/pkg/serialization"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleCSV = "Id,Name,Email\n1,Jan,jan@example.nl\n2,Piet,\n"

func newCSVRepo(t *testing.T, fs afero.Fs, info *FileSourceInfo, opts ...Option) *FileRepository[*person] {
	t.Helper()
	opts = append([]Option{WithFs(fs)}, opts...)
	repo, err := NewCSVFileRepository[*person](info, serialization.DefaultOptions(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestFileRepository_CSV(t *testing.T) {
	ctx := context.Background()
	t.Run("Should read a missing file as empty", func(t *testing.T) {
		repo := newCSVRepo(t, afero.NewMemMapFs(), NewFileSourceInfo("/data/people.csv"))
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
	t.Run("Should create the file on save", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := newCSVRepo(t, fs, NewFileSourceInfo("/data/people.csv"))
		_, err := repo.AddRange(ctx, []*person{{Name: "Jan", Email: "jan@example.nl"}, {Name: "Piet"}})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))

		raw, err := afero.ReadFile(fs, "/data/people.csv")
		require.NoError(t, err)
		assert.Equal(t, peopleCSV, string(raw))
		entries, err := afero.ReadDir(fs, "/data")
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp files must be renamed away")
	})
	t.Run("Should apply changes to an existing file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/data/people.csv", []byte(peopleCSV), FilePermissions))
		repo := newCSVRepo(t, fs, NewFileSourceInfo("/data/people.csv"))
		_, err := repo.Update(ctx, &person{ID: 2, Name: "Pieter"})
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, &person{ID: 1}))
		_, err = repo.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))

		raw, err := afero.ReadFile(fs, "/data/people.csv")
		require.NoError(t, err)
		assert.Equal(t, "Id,Name,Email\n2,Pieter,\n3,Anna,\n", string(raw))
	})
	t.Run("Should see changes saved by another repository", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		info := NewFileSourceInfo("/data/people.csv")
		reader := newCSVRepo(t, fs, info)
		writer := newCSVRepo(t, fs, info)
		_, err := writer.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		require.NoError(t, writer.SaveChanges(ctx))
		all, err := findAll(reader)
		require.NoError(t, err)
		assert.Equal(t, []string{"Anna"}, names(all))
	})
	t.Run("Should report parse errors with the file name", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/data/people.csv", []byte("Id,Name\nabc,Jan\n"), FilePermissions))
		repo := newCSVRepo(t, fs, NewFileSourceInfo("/data/people.csv"))
		_, err := findAll(repo)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "/data/people.csv")
		var fieldErr *serialization.FieldError
		assert.ErrorAs(t, err, &fieldErr)
	})
}

func TestFileRepository_Encoding(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	info := NewFileSourceInfo("/data/people.csv")
	info.Encoding = "windows-1252"
	repo := newCSVRepo(t, fs, info)
	_, err := repo.Add(ctx, &person{Name: "Zoë"})
	require.NoError(t, err)
	require.NoError(t, repo.SaveChanges(ctx))

	raw, err := afero.ReadFile(fs, "/data/people.csv")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Zo\xeb")

	again := newCSVRepo(t, fs, info)
	all, err := findAll(again)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zoë"}, names(all))
}

func TestFileSourceInfo_Validate(t *testing.T) {
	t.Run("Should fill in defaults", func(t *testing.T) {
		info := &FileSourceInfo{FileName: "data/people.csv"}
		require.NoError(t, info.Validate())
		assert.Equal(t, DefaultEncoding, info.Encoding)
		assert.Equal(t, DefaultLockTimeout, info.LockTimeout)
		assert.Equal(t, "people.csv", info.Name)
	})
	t.Run("Should reject unknown encodings", func(t *testing.T) {
		info := NewFileSourceInfo("people.csv")
		info.Encoding = "klingon"
		assert.Error(t, info.Validate())
	})
	t.Run("Should reject an empty file name", func(t *testing.T) {
		_, err := NewCSVFileRepository[*person](&FileSourceInfo{}, serialization.DefaultOptions(), WithFs(afero.NewMemMapFs()))
		assert.Error(t, err)
	})
}

func TestFileRepository_XML(t *testing.T) {
	ctx := context.Background()
	newRepo := func(t *testing.T, fs afero.Fs) *FileRepository[*person] {
		repo, err := NewXMLFileRepository[*person](NewFileSourceInfo("/data/people.xml"), "People", "Person", WithFs(fs))
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	}
	t.Run("Should write a versioned document", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := newRepo(t, fs)
		_, err := repo.AddRange(ctx, []*person{{Name: "Jan", Email: "jan@example.nl"}, {Name: "Piet"}})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))

		raw, err := afero.ReadFile(fs, "/data/people.xml")
		require.NoError(t, err)
		doc := string(raw)
		assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="utf-8"?>`))
		assert.Contains(t, doc, `<People version="1.0.0">`)
		assert.Contains(t, doc, `<Person id="1">`)
		assert.Contains(t, doc, `<email>jan@example.nl</email>`)

		all, err := findAll(newRepo(t, fs))
		require.NoError(t, err)
		assert.Equal(t, []*person{{ID: 1, Name: "Jan", Email: "jan@example.nl"}, {ID: 2, Name: "Piet"}}, all)
	})
	t.Run("Should refuse documents of a newer major version", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		doc := `<People version="2.0.0"><Person id="1"><name>Jan</name></Person></People>`
		require.NoError(t, afero.WriteFile(fs, "/data/people.xml", []byte(doc), FilePermissions))
		_, err := findAll(newRepo(t, fs))
		assert.ErrorIs(t, err, ErrIncompatibleVersion)
	})
	t.Run("Should skip unknown elements", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		doc := `<?xml version="1.0" encoding="windows-1252"?>
<People><Comment>ignored</Comment><Person id="4"><name>Kees</name></Person></People>`
		require.NoError(t, afero.WriteFile(fs, "/data/people.xml", []byte(doc), FilePermissions))
		all, err := findAll(newRepo(t, fs))
		require.NoError(t, err)
		assert.Equal(t, []*person{{ID: 4, Name: "Kees"}}, all)
	})
}

func TestFileRepository_JSON(t *testing.T) {
	ctx := context.Background()
	newRepo := func(t *testing.T, fs afero.Fs) *FileRepository[*person] {
		repo, err := NewJSONFileRepository[*person](NewFileSourceInfo("/data/people.json"), WithFs(fs))
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	}
	t.Run("Should round trip entities", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := newRepo(t, fs)
		_, err := repo.Add(ctx, &person{Name: "Jan"})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))
		raw, err := afero.ReadFile(fs, "/data/people.json")
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"schema_version": "1.0.0"`)
		assert.Contains(t, string(raw), `"count": 1`)
		all, err := findAll(newRepo(t, fs))
		require.NoError(t, err)
		assert.Equal(t, []*person{{ID: 1, Name: "Jan"}}, all)
	})
	t.Run("Should detect tampered items", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := newRepo(t, fs)
		_, err := repo.Add(ctx, &person{Name: "Jan"})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))
		raw, err := afero.ReadFile(fs, "/data/people.json")
		require.NoError(t, err)
		tampered := strings.Replace(string(raw), `"Jan"`, `"Joe"`, 1)
		require.NoError(t, afero.WriteFile(fs, "/data/people.json", []byte(tampered), FilePermissions))
		_, err = findAll(newRepo(t, fs))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})
}

func TestFileRepository_Monitoring(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/people.csv", []byte(peopleCSV), FilePermissions))
	watcher := newFakeWatcher()
	info := NewFileSourceInfo("/data/people.csv")
	info.MonitorSourceFile = true
	repo := newCSVRepo(t, fs, info, WithWatcherFactory(func(path string) (Watcher, error) {
		assert.Equal(t, "/data/people.csv", path)
		return watcher, nil
	}))
	changed := make(chan SourceChangedArgs, 1)
	unsubscribe := repo.SourceChanged().Subscribe(func(sender any, args SourceChangedArgs) {
		assert.Same(t, repo, sender)
		changed <- args
	})
	defer unsubscribe()

	all, err := findAll(repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan", "Piet"}, names(all))

	t.Run("Should serve reads from the cache", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/data/people.csv", []byte("Id,Name,Email\n7,Kees,\n"), FilePermissions))
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jan", "Piet"}, names(all))
	})
	t.Run("Should reload after a change notification", func(t *testing.T) {
		watcher.events <- WatchEvent{Path: "/data/people.csv", Kind: ChangeModified}
		select {
		case args := <-changed:
			assert.Equal(t, ChangeModified, args.Kind)
			assert.Equal(t, "/data/people.csv", args.FileName)
		case <-time.After(time.Second):
			t.Fatal("no SourceChanged event")
		}
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Kees"}, names(all))
	})
	t.Run("Should keep the cache in step with its own saves", func(t *testing.T) {
		_, err := repo.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Kees", "Anna"}, names(all))
		assert.Equal(t, int64(8), all[1].ID)
	})
	t.Run("Should reload on demand", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/data/people.csv", []byte("Id,Name,Email\n1,Jan,\n"), FilePermissions))
		repo.Invalidate()
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jan"}, names(all))
	})
}

func TestFileRepository_LockFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	info := NewFileSourceInfo(path)
	info.LockTimeout = 5 * time.Second
	fs := afero.NewOsFs()

	t.Run("Should serialize saves of concurrent repositories", func(t *testing.T) {
		var wg sync.WaitGroup
		for _, name := range []string{"Anna", "Bea", "Cor", "Dirk"} {
			repo := newCSVRepo(t, fs, info)
			_, err := repo.Add(ctx, &person{Name: name})
			require.NoError(t, err)
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.SaveChanges(ctx))
			}()
		}
		wg.Wait()
		all, err := findAll(newCSVRepo(t, fs, info))
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i, p := range all {
			assert.Equal(t, int64(i+1), p.ID)
		}
	})
	t.Run("Should keep the lock file next to the data file", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(dir, ".people.csv.lock"))
		assert.NoError(t, err)
	})
}
