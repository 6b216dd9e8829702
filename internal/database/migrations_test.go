package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_seed_menu.sql":      {Data: []byte("INSERT ...")},
		"001_create_orders.sql":  {Data: []byte("CREATE ...")},
		"README.md":              {Data: []byte("docs")},
		"archive/000_legacy.sql": {Data: []byte("DROP ...")},
	}

	files, err := MigrationFiles(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"001_create_orders.sql", "002_seed_menu.sql"}, files)
}
