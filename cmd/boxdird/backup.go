// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/pboxnet/boxdir/internal/model"
)

// newBackupCmd dumps the entire database into a Zstandard-compressed JSON
// file, suitable for disaster recovery or for moving to another database
// backend.
func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [output-file]",
		Short: "Create a compressed (zstd) JSON backup of the database",
		Long: `Dumps the entire contents of the directory database (users, keys with
revocation history, endpoints, audit log) into a single Zstandard-compressed
JSON file.

If an output file is specified, '.zst' will be appended to the name if it's
not already present. If no output file is specified, a default filename
'boxdir-backup-YYYY-MM-DD.json.zst' is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var outputFile string
			if len(args) == 0 {
				outputFile = fmt.Sprintf("boxdir-backup-%s.json.zst", time.Now().Format("2006-01-02"))
			} else {
				outputFile = args[0]
				if !strings.HasSuffix(outputFile, ".zst") {
					outputFile += ".zst"
				}
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			data, err := store.ExportDataForBackup()
			if err != nil {
				return fmt.Errorf("failed to export data: %w", err)
			}
			outf, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("could not create file: %w", err)
			}
			defer func() { _ = outf.Close() }()
			if err := writeBackup(data, outf); err != nil {
				return err
			}
			fmt.Printf("Backup written to %s\n", outputFile)
			return nil
		},
	}
}

// newRestoreCmd restores a backup file into the configured database. The
// restore is a full wipe-and-replace applied in one transaction.
func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore the database from a compressed backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("could not open file: %w", err)
			}
			defer func() { _ = file.Close() }()
			data, err := readBackup(file)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.ImportDataFromBackup(data); err != nil {
				return fmt.Errorf("failed to import data: %w", err)
			}
			fmt.Printf("Restored %d users, %d keys, %d endpoints\n",
				len(data.Users), len(data.PublicKeys), len(data.Endpoints))
			return nil
		},
	}
}

func writeBackup(data *model.BackupData, w io.Writer) error {
	zstdWriter, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ") // Pretty-print the JSON inside the compressed file

	if err := encoder.Encode(data); err != nil {
		_ = zstdWriter.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return zstdWriter.Close()
}

func readBackup(r io.Reader) (*model.BackupData, error) {
	zstdReader, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var data model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	return &data, nil
}
