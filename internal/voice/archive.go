// Package voice reads the metadata embedded in saved voice files.
//
// A voice file is an .npz archive: a zip of .npy arrays. Alongside the
// embedding arrays the generation pipeline stores its JSON metadata (prompt,
// seed, hashes, timestamps) as a one-character unicode array named metadata.npy.
package voice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/book-expert/tts-utils/internal/npy"
	"github.com/klauspost/compress/zip"
)

// MetadataEntry is the archive member holding the JSON metadata.
const MetadataEntry = "metadata.npy"

const npyExt = ".npy"

// ErrNoMetadata indicates the archive has no metadata.npy member.
var ErrNoMetadata = errors.New("voice archive has no " + MetadataEntry)

// Metadata is the loosely typed JSON object stored in a voice file.
type Metadata map[string]any

// String returns a string field.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)

	return s, ok
}

// Int returns an integral numeric field.
func (m Metadata) Int(key string) (int64, bool) {
	f, ok := m[key].(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}

	return int64(f), true
}

// Prompt returns the text the voice was generated from.
func (m Metadata) Prompt() string {
	for _, key := range []string{"prompt", "text"} {
		if s, ok := m.String(key); ok {
			return s
		}
	}

	return ""
}

// Seed returns the generation seed, if recorded.
func (m Metadata) Seed() (int64, bool) {
	return m.Int("seed")
}

// ReadMetadata extracts and decodes metadata.npy from a voice archive.
func ReadMetadata(r io.ReaderAt, size int64) (Metadata, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open voice archive: %w", err)
	}

	for _, file := range archive.File {
		if file.Name != MetadataEntry {
			continue
		}

		raw, err := readEntry(file)
		if err != nil {
			return nil, err
		}

		return decodeMetadata(raw)
	}

	return nil, ErrNoMetadata
}

// ReadMetadataBytes is ReadMetadata over an in-memory archive.
func ReadMetadataBytes(data []byte) (Metadata, error) {
	return ReadMetadata(bytes.NewReader(data), int64(len(data)))
}

// ReadMetadataFile is ReadMetadata over a file on disk.
func ReadMetadataFile(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open voice file %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat voice file %s: %w", path, err)
	}

	return ReadMetadata(file, info.Size())
}

func readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
	}

	return raw, nil
}

func decodeMetadata(raw []byte) (Metadata, error) {
	arr, err := npy.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MetadataEntry, err)
	}

	decoded, err := npy.DecodeString(arr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", MetadataEntry, err)
	}

	var meta Metadata

	err = json.Unmarshal([]byte(decoded), &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata JSON: %w", err)
	}

	return meta, nil
}

// WriteArchive writes a voice archive holding meta as metadata.npy followed by
// the given .npy buffers in name order. Names get a .npy suffix when missing.
func WriteArchive(w io.Writer, meta Metadata, arrays map[string][]byte) error {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	metaNPY, err := npy.EncodeString(string(encoded))
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	zw := zip.NewWriter(w)

	err = writeEntry(zw, MetadataEntry, metaNPY)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		entry := name
		if !strings.HasSuffix(entry, npyExt) {
			entry += npyExt
		}

		if entry == MetadataEntry {
			return fmt.Errorf("array name %q collides with %s", name, MetadataEntry)
		}

		err = writeEntry(zw, entry, arrays[name])
		if err != nil {
			return err
		}
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("failed to finish voice archive: %w", err)
	}

	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	_, err = entry.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}
