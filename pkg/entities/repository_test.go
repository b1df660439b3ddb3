package entities

import (
	"context"
	"sync"
	"testing"

	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPeople() []*person {
	return []*person{
		{ID: 1, Name: "Jan", Email: "jan@example.nl"},
		{ID: 2, Name: "Piet"},
		{ID: 5, Name: "Klaas"},
	}
}

func TestStagingRepository_Add(t *testing.T) {
	ctx := context.Background()
	t.Run("Should assign temporary negative ids", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		first, err := repo.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		second, err := repo.Add(ctx, &person{Name: "Bea"})
		require.NoError(t, err)
		assert.Equal(t, int64(-1), first.ID)
		assert.Equal(t, int64(-2), second.ID)
		assert.True(t, repo.HasChanges())
	})
	t.Run("Should not keep a reference to the caller's entity", func(t *testing.T) {
		repo := NewMemoryRepository[*person](nil)
		p := &person{Name: "Anna"}
		_, err := repo.Add(ctx, p)
		require.NoError(t, err)
		p.Name = "changed"
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Anna"}, names(all))
		assert.Equal(t, int64(0), p.ID)
	})
	t.Run("Should reject nil entities", func(t *testing.T) {
		repo := NewMemoryRepository[*person](nil)
		_, err := repo.Add(ctx, nil)
		assert.ErrorIs(t, err, ErrNilEntity)
		_, err = repo.AddRange(ctx, []*person{{Name: "Anna"}, nil})
		assert.ErrorIs(t, err, ErrNilEntity)
		assert.False(t, repo.HasChanges())
	})
}

func TestStagingRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	t.Run("Should merge staged changes with the source", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		_, err := repo.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		_, err = repo.Update(ctx, &person{ID: 2, Name: "Pieter"})
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, &person{ID: 1}))
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Pieter", "Klaas", "Anna"}, names(all))
	})
	t.Run("Should apply filter order and limit", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		q := specification.NewQuery(specification.Not(named("Piet"))).
			OrderBy(specification.By(func(p *person) string { return p.Name })).
			Take(1)
		got, err := repo.FindAll(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jan"}, names(got))
	})
	t.Run("Should return clones", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		all, err := findAll(repo)
		require.NoError(t, err)
		all[0].Name = "changed"
		again, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, "Jan", again[0].Name)
	})
}

func TestStagingRepository_FindSingle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil, append(seedPeople(), &person{ID: 9, Name: "Jan"})...)
	fallback := &person{Name: "nobody"}
	t.Run("Should return the only match", func(t *testing.T) {
		got, err := repo.FindSingle(ctx, ByRecordID[*person](2), fallback)
		require.NoError(t, err)
		assert.Equal(t, "Piet", got.Name)
	})
	t.Run("Should return the default when nothing matches", func(t *testing.T) {
		got, err := repo.FindSingle(ctx, named("Kees"), fallback)
		require.NoError(t, err)
		assert.Same(t, fallback, got)
	})
	t.Run("Should fail on several matches", func(t *testing.T) {
		_, err := repo.FindSingle(ctx, named("Jan"), fallback)
		assert.ErrorIs(t, err, ErrMultipleResults)
	})
	t.Run("Should return the first of several matches", func(t *testing.T) {
		got, err := repo.FindFirst(ctx, named("Jan"), fallback)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	})
}

func TestStagingRepository_Update(t *testing.T) {
	ctx := context.Background()
	t.Run("Should replace a staged addition", func(t *testing.T) {
		repo := NewMemoryRepository[*person](nil)
		added, err := repo.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		added.Name = "Anneke"
		_, err = repo.Update(ctx, added)
		require.NoError(t, err)
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Anneke"}, names(all))
	})
	t.Run("Should fail for unknown records", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		_, err := repo.Update(ctx, &person{ID: 42})
		assert.ErrorIs(t, err, ErrEntityNotFound)
		_, err = repo.Update(ctx, &person{ID: -3})
		assert.ErrorIs(t, err, ErrEntityNotFound)
	})
	t.Run("Should fail for records staged for deletion", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		require.NoError(t, repo.Delete(ctx, &person{ID: 1}))
		_, err := repo.Update(ctx, &person{ID: 1, Name: "Jan"})
		assert.ErrorIs(t, err, ErrEntityNotFound)
	})
}

func TestStagingRepository_Delete(t *testing.T) {
	ctx := context.Background()
	t.Run("Should drop a staged addition", func(t *testing.T) {
		repo := NewMemoryRepository[*person](nil)
		added, err := repo.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, added))
		assert.False(t, repo.HasChanges())
	})
	t.Run("Should drop a pending update", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		_, err := repo.Update(ctx, &person{ID: 2, Name: "Pieter"})
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, &person{ID: 2}))
		require.NoError(t, repo.SaveChanges(ctx))
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jan", "Klaas"}, names(all))
	})
	t.Run("Should fail when deleting twice", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		require.NoError(t, repo.Delete(ctx, &person{ID: 1}))
		assert.ErrorIs(t, repo.Delete(ctx, &person{ID: 1}), ErrEntityNotFound)
	})
	t.Run("Should keep earlier deletions of a failing range", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		err := repo.DeleteRange(ctx, []*person{{ID: 1}, {ID: 42}})
		assert.ErrorIs(t, err, ErrEntityNotFound)
		all, err := findAll(repo)
		require.NoError(t, err)
		assert.Equal(t, []string{"Piet", "Klaas"}, names(all))
	})
}

func TestStagingRepository_SaveChanges(t *testing.T) {
	ctx := context.Background()
	t.Run("Should assign ids after the highest id", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		_, err := repo.AddRange(ctx, []*person{{Name: "Anna"}, {Name: "Bea"}})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))
		assert.False(t, repo.HasChanges())
		all, err := findAll(repo)
		require.NoError(t, err)
		ids := make([]int64, len(all))
		for i, p := range all {
			ids[i] = p.ID
		}
		assert.Equal(t, []int64{1, 2, 5, 6, 7}, ids)
	})
	t.Run("Should start at one for an empty source", func(t *testing.T) {
		repo := NewMemoryRepository[*person](nil)
		_, err := repo.Add(ctx, &person{Name: "Anna"})
		require.NoError(t, err)
		require.NoError(t, repo.SaveChanges(ctx))
		got, err := repo.FindSingle(ctx, named("Anna"), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	})
	t.Run("Should detect records removed by someone else", func(t *testing.T) {
		source := NewMemorySource(seedPeople()...)
		mine := NewStagingRepository[*person](source, nil)
		theirs := NewStagingRepository[*person](source, nil)
		_, err := mine.Update(ctx, &person{ID: 2, Name: "Pieter"})
		require.NoError(t, err)
		require.NoError(t, theirs.Delete(ctx, &person{ID: 2}))
		require.NoError(t, theirs.SaveChanges(ctx))

		err = mine.SaveChanges(ctx)
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
		assert.True(t, mine.HasChanges())
		current, err := source.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jan", "Klaas"}, names(current))
	})
	t.Run("Should do nothing without changes", func(t *testing.T) {
		repo := NewMemoryRepository(nil, seedPeople()...)
		assert.NoError(t, repo.SaveChanges(ctx))
	})
}

func TestStagingRepository_Reset(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil, seedPeople()...)
	_, err := repo.Add(ctx, &person{Name: "Anna"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, &person{ID: 1}))
	repo.Reset()
	assert.False(t, repo.HasChanges())
	all, err := findAll(repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan", "Piet", "Klaas"}, names(all))
	added, err := repo.Add(ctx, &person{Name: "Bea"})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), added.ID)
}

func TestStagingRepository_Close(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil, seedPeople()...)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
	_, err := findAll(repo)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = repo.Add(ctx, &person{Name: "Anna"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, repo.SaveChanges(ctx), ErrClosed)
}

func TestStagingRepository_Concurrency(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil, seedPeople()...)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.Add(ctx, &person{Name: "Anna"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := findAll(repo)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.NoError(t, repo.SaveChanges(ctx))
	all, err := findAll(repo)
	require.NoError(t, err)
	assert.Len(t, all, 11)
	assert.Equal(t, int64(13), all[len(all)-1].ID)
}
