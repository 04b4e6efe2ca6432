// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive packages a directory of files into a zip archive.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ZipDir writes every regular file directly inside srcDir into a new zip
// archive at destPath, deflate-compressed and stored at the archive root.
// Subdirectories are not descended into. destPath must not exist. On error
// the partial archive is removed. It returns the names written.
func ZipDir(srcDir, destPath string) ([]string, error) {
	names, err := listFiles(srcDir)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating archive %s: %w", destPath, err)
	}

	err = writeZip(f, srcDir, names)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("writing archive %s: %w", destPath, err)
	}
	return names, nil
}

// listFiles returns the sorted names of the regular files in dir.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func writeZip(w io.Writer, srcDir string, names []string) error {
	zw := zip.NewWriter(w)
	for _, name := range names {
		if err := addFile(zw, filepath.Join(srcDir, name), name); err != nil {
			return errors.Join(err, zw.Close())
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	return nil
}
