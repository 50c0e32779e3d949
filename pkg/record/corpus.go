package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const zstdExt = ".zst"

// Corpus reads one position per line from a plain or zstd-compressed text
// file. Blank lines and lines starting with '#' are skipped.
type Corpus struct {
	file    *os.File
	decoder *zstd.Decoder
	scanner *bufio.Scanner
	line    int
}

// OpenCorpus opens path, decompressing it when it ends in .zst.
func OpenCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	c := &Corpus{file: f}
	var r io.Reader = f
	if strings.HasSuffix(path, zstdExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		c.decoder = dec
		r = dec
	}
	c.scanner = bufio.NewScanner(r)
	c.scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return c, nil
}

// Next returns the next entry and its 1-based line number, or io.EOF.
func (c *Corpus) Next() (string, int, error) {
	for c.scanner.Scan() {
		c.line++
		text := strings.TrimSpace(c.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		return text, c.line, nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", c.line, err
	}
	return "", c.line, io.EOF
}

func (c *Corpus) Close() error {
	if c.decoder != nil {
		c.decoder.Close()
	}
	return c.file.Close()
}

// ReadCorpus loads every entry of path.
func ReadCorpus(path string) ([]string, error) {
	c, err := OpenCorpus(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	var entries []string
	for {
		text, _, err := c.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, text)
	}
}

// WriteCorpus writes one entry per line, zstd-compressed when path ends in
// .zst.
func WriteCorpus(path string, entries []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var enc *zstd.Encoder
	if strings.HasSuffix(path, zstdExt) {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return err
		}
		w = enc
	}
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := bw.WriteString(e + "\n"); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return f.Close()
}
