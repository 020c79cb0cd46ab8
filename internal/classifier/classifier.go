package classifier

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Archive formats
// zip, rar, 7z, tar, tar.gz, tar.bz2, tar.xz, generic
const (
	Zip     = "zip"
	Rar     = "rar"
	SevenZ  = "7z"
	Tar     = "tar"
	TarGz   = "tar.gz"
	TarBz2  = "tar.bz2"
	TarXz   = "tar.xz"
	Generic = "generic"
)

// Detect attempts to determine the archive format of a downloaded file.
// The file extension is consulted first; unknown or missing extensions fall
// back to magic bytes, since catalog file names are not always truthful.
func Detect(filePath string) string {
	name := strings.ToLower(filepath.Base(filePath))
	name = strings.TrimSuffix(name, ".part")

	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return TarGz
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz2"):
		return TarBz2
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return TarXz
	}
	switch filepath.Ext(name) {
	case ".zip":
		return Zip
	case ".rar":
		return Rar
	case ".7z":
		return SevenZ
	case ".tar":
		return Tar
	default:
		if t := detectMagic(filePath); t != "" {
			return t
		}
		return Generic
	}
}

var magics = []struct {
	sig    []byte
	offset int
	format string
}{
	{[]byte("PK\x03\x04"), 0, Zip},
	{[]byte("PK\x05\x06"), 0, Zip}, // empty archive
	{[]byte("Rar!\x1a\x07"), 0, Rar},
	{[]byte("7z\xbc\xaf\x27\x1c"), 0, SevenZ},
	{[]byte{0x1f, 0x8b}, 0, TarGz},
	{[]byte("BZh"), 0, TarBz2},
	{[]byte("\xfd7zXZ\x00"), 0, TarXz},
	{[]byte("ustar"), 257, Tar},
}

func detectMagic(p string) string {
	f, err := os.Open(p)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	buf := make([]byte, 262)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ""
	}
	buf = buf[:n]
	for _, m := range magics {
		end := m.offset + len(m.sig)
		if n >= end && bytes.Equal(buf[m.offset:end], m.sig) {
			return m.format
		}
	}
	return ""
}
