package importfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"csvimport/csv-import/internal/config"
	"csvimport/csv-import/internal/container"
	"csvimport/csv-import/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "ACTIVITY_ID;DEPOT_ACTIVITY_ID;UMSATZ_KEY;AMOUNT;ENTRY_DATE;SENDER_BLZ;SENDER_KONTO;SENDER_NAME;RECEIVER_BLZ;RECEIVER_KONTO;RECEIVER_NAME;DESC1;DESC2\n"

func TestImportCommand_Metadata(t *testing.T) {
	assert.Equal(t, "import <file>", Cmd.Use)
	assert.Contains(t, Cmd.Short, "Import a local CSV file")
	assert.Contains(t, Cmd.Long, "--dry-run")
	assert.NotNil(t, Cmd.Run)
	assert.NotNil(t, Cmd.Flags().Lookup("dry-run"))
	assert.Error(t, Cmd.Args(Cmd, nil))
	assert.NoError(t, Cmd.Args(Cmd, []string{"file.csv"}))
}

func TestImportLocal(t *testing.T) {
	tests := []struct {
		name      string
		rows      string
		dryRun    bool
		wantErr   string
		wantOut   string
		wantBatch int
	}{
		{
			name:      "direct debit",
			rows:      "1;;16;25.00;2024-03-01;10020030;12345;Erika;70022200;8888888888;RS;Fee;\n",
			wantOut:   "Success",
			wantBatch: 1,
		},
		{
			name:    "dry run writes nothing",
			rows:    "1;;16;25.00;2024-03-01;10020030;12345;Erika;70022200;8888888888;RS;Fee;\n",
			dryRun:  true,
			wantOut: "Success",
		},
		{
			name:    "unknown transaction type",
			rows:    "7;;10;1.00;2024-03-01;12345678;100;A;87654321;200;B;x;\n",
			wantErr: "1 row error(s)",
			wantOut: "Transaction type not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg, err := config.Default()
			require.NoError(t, err)
			cfg.Ledger.File = ""
			cfg.Local.BatchDir = filepath.Join(dir, "dtaus")

			c, err := container.NewContainer(cfg, container.WithLogger(logging.NewMockLogger()))
			require.NoError(t, err)

			path := filepath.Join(dir, "import.csv")
			require.NoError(t, os.WriteFile(path, []byte(header+tt.rows), 0600))

			var out bytes.Buffer
			err = importLocal(context.Background(), c.GetImporter(), path, tt.dryRun, &out)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out.String(), tt.wantOut)

			entries, _ := os.ReadDir(cfg.Local.BatchDir)
			assert.Len(t, entries, tt.wantBatch)
		})
	}
}

func TestImportLocal_MissingFile(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Ledger.File = ""
	c, err := container.NewContainer(cfg, container.WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)

	err = importLocal(context.Background(), c.GetImporter(), filepath.Join(t.TempDir(), "missing.csv"), false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
