package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Compression is the stream compression wrapped around a tarball.
type Compression string

// Supported compressions.
const (
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionXZ    Compression = "xz"
	CompressionZstd  Compression = "zstd"
)

var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
	magicXZ    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// SniffCompression inspects the leading bytes of a stream.
// Filenames in the registry do not reliably name their compression, so content wins.
func SniffCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(header, magicBzip2):
		return CompressionBzip2
	case bytes.HasPrefix(header, magicXZ):
		return CompressionXZ
	case bytes.HasPrefix(header, magicZstd):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

func extractTar(ctx context.Context, archivePath, destDir string) error {
	//nolint:gosec // Archive path is derived from the working area
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	stream, closeStream, err := decompress(bufio.NewReader(f))
	if err != nil {
		return err
	}
	defer closeStream()

	r, err := openRoot(destDir)
	if err != nil {
		return err
	}
	return untar(ctx, tar.NewReader(stream), r)
}

func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	header, err := br.Peek(len(magicXZ))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	noop := func() {}

	switch SniffCompression(header) {
	case CompressionGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case CompressionBzip2:
		return bzip2.NewReader(br), noop, nil
	case CompressionXZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return xzr, noop, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return br, noop, nil
	}
}

func untar(ctx context.Context, tr *tar.Reader, r *root) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := r.resolve(hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(r, target, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			source, err := r.resolve(hdr.Linkname)
			if err != nil {
				return zerr.With(err, "link", hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
				return err
			}
			removeEntry(target)
			if err := os.Link(source, target); err != nil {
				return err
			}
		default:
			// Device nodes, fifos and pax records carry nothing a source build needs.
		}
	}
}

func writeFile(target string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return err
	}

	// Source trees must stay writable so hooks can patch them.
	perm |= 0o600

	// A leftover link from an earlier extraction must be replaced, not written through.
	removeEntry(target)

	//nolint:gosec // Target is resolved inside the extraction root
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	//nolint:gosec // Source archives are trusted registry content
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeSymlink(r *root, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return zerr.With(domain.ErrUnsafeArchivePath, "link", linkname)
	}
	if !r.contains(filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))) {
		return zerr.With(domain.ErrUnsafeArchivePath, "link", linkname)
	}

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return err
	}
	removeEntry(target)
	return os.Symlink(linkname, target)
}

// removeEntry deletes anything but a directory at path.
func removeEntry(path string) {
	if info, err := os.Lstat(path); err == nil && !info.IsDir() {
		_ = os.Remove(path)
	}
}
