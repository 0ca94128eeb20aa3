package filecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "coffee_consumption_2024.csv")

	table := &domain.Table{
		Columns: []string{"country", "consumption_1000t"},
		Rows: [][]string{
			{"Brazil", "1320.5"},
			{"Viet Nam", "180"},
		},
	}

	require.False(t, Exists(path))
	require.NoError(t, Write(path, table))
	require.True(t, Exists(path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, got.Columns)
	assert.Equal(t, table.Rows, got.Rows)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestRead_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Read(path)
	assert.Error(t, err)
}

func TestWrite_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")

	require.NoError(t, Write(path, &domain.Table{
		Columns: []string{"country"},
		Rows:    [][]string{{"Brazil"}},
	}))
	require.NoError(t, Write(path, &domain.Table{
		Columns: []string{"country"},
		Rows:    [][]string{{"Colombia"}},
	}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Colombia"}}, got.Rows)
}

func TestExists_Directory(t *testing.T) {
	assert.False(t, Exists(t.TempDir()))
}
