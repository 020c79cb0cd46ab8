// Package system holds host checks used by ggmod doctor.
package system

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path. A path that does not exist yet is measured at its
// nearest existing ancestor.
func FreeSpace(path string) (uint64, error) {
	p, err := existingAncestor(path)
	if err != nil {
		return 0, err
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(p, &stat); err != nil {
		return 0, fmt.Errorf("failed to get disk space for %s: %w", p, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// HasRoomFor reports whether path has need bytes free plus a 10% margin.
func HasRoomFor(path string, need uint64) (bool, uint64, error) {
	free, err := FreeSpace(path)
	if err != nil {
		return false, 0, err
	}
	return free >= need+need/10, free, nil
}

// DirSize sums the sizes of regular files under root. A missing root is 0.
func DirSize(root string) (int64, int, error) {
	var total int64
	var files int
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		files++
		return nil
	})
	return total, files, err
}

func existingAncestor(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("no existing directory above %s", path)
		}
		p = parent
	}
}
