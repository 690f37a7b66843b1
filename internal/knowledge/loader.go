package knowledge

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmstudyabroad/counselor-bot/internal/r2client"
)

// maxTableBytes bounds a decoded knowledge table.
const maxTableBytes = 4 << 20

// SourceKind identifies where a knowledge table is read from.
type SourceKind string

// Source kinds.
const (
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
	SourceR2      SourceKind = "r2"
)

// Source is a parsed KNOWLEDGE_SOURCE value.
type Source struct {
	Kind     SourceKind
	Location string // File path or object key
}

// Compressed reports whether the table is stored zstd-compressed.
func (s Source) Compressed() bool {
	return strings.HasSuffix(s.Location, ".zst")
}

func (s Source) String() string {
	switch s.Kind {
	case SourceBuiltin:
		return "builtin"
	case SourceR2:
		return "r2://" + s.Location
	default:
		return s.Location
	}
}

// ParseSource interprets "" or "builtin" as the built-in table, "r2://key"
// as an object in the configured bucket, and anything else as a file path.
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == string(SourceBuiltin):
		return Source{Kind: SourceBuiltin}, nil
	case strings.HasPrefix(raw, "r2://"):
		key := strings.TrimPrefix(raw, "r2://")
		if key == "" {
			return Source{}, fmt.Errorf("knowledge: r2 source %q has no object key", raw)
		}
		return Source{Kind: SourceR2, Location: key}, nil
	default:
		return Source{Kind: SourceFile, Location: raw}, nil
	}
}

// ObjectStore downloads objects by key. *r2client.Client implements it.
type ObjectStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Load reads and validates the table named by src. store may be nil unless
// src is an R2 source.
func Load(ctx context.Context, src Source, store ObjectStore) (*Base, error) {
	switch src.Kind {
	case SourceBuiltin:
		return Default(), nil
	case SourceFile:
		f, err := os.Open(src.Location)
		if err != nil {
			return nil, fmt.Errorf("knowledge: open %s: %w", src.Location, err)
		}
		defer f.Close()
		return read(f, src)
	case SourceR2:
		if store == nil {
			return nil, fmt.Errorf("knowledge: %s requires object storage credentials", src)
		}
		body, _, err := store.Download(ctx, src.Location)
		if err != nil {
			return nil, fmt.Errorf("knowledge: download %s: %w", src, err)
		}
		defer body.Close()
		return read(body, src)
	default:
		return nil, fmt.Errorf("knowledge: unknown source kind %q", src.Kind)
	}
}

func read(r io.Reader, src Source) (*Base, error) {
	var (
		data []byte
		err  error
	)
	if src.Compressed() {
		data, err = r2client.Decompress(r, maxTableBytes)
	} else {
		data, err = io.ReadAll(io.LimitReader(r, maxTableBytes+1))
		if err == nil && len(data) > maxTableBytes {
			err = fmt.Errorf("table exceeds %d bytes", maxTableBytes)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("knowledge: read %s: %w", src, err)
	}

	b, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w (source %s)", err, src)
	}
	return b, nil
}
