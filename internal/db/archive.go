package db

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// walkArchive calls fn for every entry of a tar archive, transparently
// decompressing gzip, zstd, xz and bzip2 input. Returning io.EOF from fn stops
// the walk early without error.
func walkArchive(path string, fn func(hdr *tar.Header, r io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	magic, _ := br.Peek(6)

	var r io.Reader = br
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gzReader, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("decompressing archive: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	case bytes.HasPrefix(magic, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return fmt.Errorf("decompressing archive: %w", err)
		}
		defer dec.Close()
		r = dec
	case bytes.HasPrefix(magic, bzip2Magic):
		r = bzip2.NewReader(br)
	case bytes.HasPrefix(magic, xzMagic):
		xzReader, err := xz.NewReader(br)
		if err != nil {
			return fmt.Errorf("decompressing archive: %w", err)
		}
		r = xzReader
	}

	tarReader := tar.NewReader(r)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		if err := fn(header, tarReader); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
