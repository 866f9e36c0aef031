// Package repotest holds the behaviour checks every MetaDataRepo backend
// must pass.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sagarc03/filebox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repo. It is called once per subtest.
type Factory func(t *testing.T) filebox.MetaDataRepo

var base = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Run exercises newRepo against the MetaDataRepo contract.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(context.Background(), "missing.txt")
		assert.ErrorIs(t, err, filebox.ErrNotFound)
	})

	t.Run("upsert then get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stored, err := repo.Upsert(ctx, "a.txt", base)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", stored.Filename)
		assert.True(t, base.Equal(stored.UploadedAt))

		got, err := repo.Get(ctx, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Upsert(ctx, "a.txt", base)
		require.NoError(t, err)
		_, err = repo.Upsert(ctx, "a.txt", base.Add(time.Hour))
		require.NoError(t, err)

		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, base.Add(time.Hour).Equal(records[0].UploadedAt))
	})

	t.Run("fractional seconds", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		at := base.Add(123456 * time.Microsecond)
		_, err := repo.Upsert(ctx, "frac.bin", at)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "frac.bin")
		require.NoError(t, err)
		assert.WithinDuration(t, at, got.UploadedAt, time.Microsecond)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Upsert(ctx, "a.txt", base)
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, "a.txt"))

		_, err = repo.Get(ctx, "a.txt")
		assert.ErrorIs(t, err, filebox.ErrNotFound)

		err = repo.Delete(ctx, "a.txt")
		assert.ErrorIs(t, err, filebox.ErrNotFound)
	})

	t.Run("delete then reinsert", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Upsert(ctx, "a.txt", base)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, "a.txt"))
		_, err = repo.Upsert(ctx, "a.txt", base.Add(time.Minute))
		require.NoError(t, err)

		got, err := repo.Get(ctx, "a.txt")
		require.NoError(t, err)
		assert.True(t, base.Add(time.Minute).Equal(got.UploadedAt))
	})

	t.Run("list empty", func(t *testing.T) {
		repo := newRepo(t)

		records, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("list order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		uploads := []struct {
			name string
			at   time.Time
		}{
			{"old.txt", base},
			{"new.txt", base.Add(2 * time.Second)},
			{"tie-b.txt", base.Add(time.Second)},
			{"tie-a.txt", base.Add(time.Second)},
		}
		for _, u := range uploads {
			_, err := repo.Upsert(ctx, u.name, u.at)
			require.NoError(t, err)
		}

		records, err := repo.List(ctx)
		require.NoError(t, err)

		names := make([]string, 0, len(records))
		for _, r := range records {
			names = append(names, r.Filename)
		}
		assert.Equal(t, []string{"new.txt", "tie-a.txt", "tie-b.txt", "old.txt"}, names)
	})

	t.Run("unicode filenames", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Upsert(ctx, "résumé 日本.txt", base)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "résumé 日本.txt")
		require.NoError(t, err)
		assert.Equal(t, "résumé 日本.txt", got.Filename)
	})

	t.Run("concurrent upserts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := repo.Upsert(ctx, "shared.txt", base.Add(time.Duration(n)*time.Second))
				assert.NoError(t, err)
				_, err = repo.Upsert(ctx, fmt.Sprintf("file-%d.txt", n), base)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		records, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 11)
	})
}
