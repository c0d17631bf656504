package serialization

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/born-ml/flexnet/internal/pipeline"
	"github.com/google/uuid"
)

// Writer writes one pipeline as a model file.
//
// Output goes to a temporary file next to the destination, which replaces
// the destination only when Close follows a successful write. A failed or
// missing write leaves any existing file untouched.
type Writer struct {
	path    string
	tmp     *os.File
	written bool
	failed  bool
	closed  bool
}

// NewWriter creates a new model file writer for path.
func NewWriter(path string) (*Writer, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &Writer{path: path, tmp: tmp}, nil
}

// WritePipeline writes p with the given metadata and returns the header
// that was stored.
func (w *Writer) WritePipeline(p *pipeline.Pipeline, metadata map[string]string) (Header, error) {
	return w.WritePipelineWithHeader(p, Header{Metadata: metadata})
}

// WritePipelineWithHeader writes p with a caller-supplied header. A model
// id already present in the header is kept, so re-saving a loaded model
// preserves its identity.
func (w *Writer) WritePipelineWithHeader(p *pipeline.Pipeline, header Header) (Header, error) {
	if w.closed {
		return Header{}, fmt.Errorf("writer is closed")
	}
	if w.written || w.failed {
		return Header{}, fmt.Errorf("writer already holds a model")
	}

	header, err := WriteTo(w.tmp, p, header)
	if err != nil {
		w.failed = true
		return Header{}, err
	}
	w.written = true
	return header, nil
}

// Close finishes the file. After a successful write the temporary file is
// synced and renamed over the destination; otherwise it is removed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if !w.written || w.failed {
		_ = w.tmp.Close()
		return os.Remove(w.tmp.Name())
	}

	if err := w.commit(); err != nil {
		_ = os.Remove(w.tmp.Name())
		return err
	}
	return nil
}

func (w *Writer) commit() error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(w.path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := w.tmp.Chmod(mode); err != nil {
		_ = w.tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := w.tmp.Sync(); err != nil {
		_ = w.tmp.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", w.path, err)
	}
	return nil
}

// WriteTo encodes p into out. Version fields, checksum and creation time
// are filled in; a model id is generated when the header has none.
func WriteTo(out io.Writer, p *pipeline.Pipeline, header Header) (Header, error) {
	if err := ValidatePipeline(p, ValidationStrict); err != nil {
		return Header{}, fmt.Errorf("validation failed: %w", err)
	}

	model, err := json.Marshal(p)
	if err != nil {
		return Header{}, fmt.Errorf("failed to marshal model: %w", err)
	}

	checksum, err := ComputeChecksum(model)
	if err != nil {
		return Header{}, err
	}

	header.FormatVersion = FormatVersion
	header.FlexnetVersion = Version
	header.Checksum = checksum
	if header.ModelID == "" {
		header.ModelID = uuid.NewString()
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file{Header: header, Model: model}); err != nil {
		return Header{}, fmt.Errorf("failed to write model file: %w", err)
	}

	return header, nil
}

// Save writes p to path. An existing file is replaced only once the new
// one has been written completely.
func Save(path string, p *pipeline.Pipeline, metadata map[string]string) (Header, error) {
	return SaveWithHeader(path, p, Header{Metadata: metadata})
}

// SaveWithHeader writes p to path with a caller-supplied header, like
// Writer.WritePipelineWithHeader.
func SaveWithHeader(path string, p *pipeline.Pipeline, header Header) (Header, error) {
	if err := ValidatePipeline(p, ValidationStrict); err != nil {
		return Header{}, fmt.Errorf("validation failed: %w", err)
	}

	w, err := NewWriter(path)
	if err != nil {
		return Header{}, err
	}

	header, err = w.WritePipelineWithHeader(p, header)
	if err != nil {
		_ = w.Close() // Best effort cleanup on error
		return Header{}, err
	}

	if err := w.Close(); err != nil {
		return Header{}, err
	}
	return header, nil
}
