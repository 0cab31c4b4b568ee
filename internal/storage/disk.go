package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSidecars are the files SQLite keeps next to a WAL-mode database.
var sqliteSidecars = []string{"", "-wal", "-shm"}

// DiskUsage returns the bytes used by the database (including WAL sidecars) and the
// persisted vector index. Missing paths contribute 0.
func DiskUsage(databasePath, vectorIndexPath string) (int64, error) {
	var paths []string
	if databasePath != "" {
		for _, suffix := range sqliteSidecars {
			paths = append(paths, databasePath+suffix)
		}
	}
	paths = append(paths, vectorIndexPath)
	return DiskUsageBytes(paths...)
}

// DiskUsageBytes returns the total size in bytes of the given files or directories.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
