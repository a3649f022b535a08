package storage

import (
	"errors"
	"io/fs"
	"os"
)

// sqliteFileSuffixes name the database file and the files SQLite keeps next to it in
// WAL mode.
var sqliteFileSuffixes = []string{"", "-wal", "-shm"}

// DiskUsageBytes returns the bytes used by the SQLite database at dbPath together with
// its -wal and -shm files. Files that do not exist yet count as zero; an in-memory
// database uses no disk.
func DiskUsageBytes(dbPath string) (int64, error) {
	if dbPath == "" || dbPath == ":memory:" {
		return 0, nil
	}
	var total int64
	for _, suffix := range sqliteFileSuffixes {
		info, err := os.Stat(dbPath + suffix)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
