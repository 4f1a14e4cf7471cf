package archive

import (
	"archive/zip"
	"context"
	"os"

	"go.trai.ch/kiln/internal/core/domain"
)

func extractZip(ctx context.Context, archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = zr.Close()
	}()

	r, err := openRoot(destDir)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := r.resolve(f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return err
			}
			continue
		}

		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = domain.FilePerm
	}
	return writeFile(target, rc, perm)
}
