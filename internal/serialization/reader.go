package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/flexnet/internal/pipeline"
)

// ReaderOptions configures how model files are read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Reader holds a parsed model file.
type Reader struct {
	header Header
	model  json.RawMessage
	bare   bool // file held a pipeline record with no envelope
	opts   ReaderOptions
}

// NewReader opens a model file with default options (strict validation).
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{
		ValidationLevel: ValidationStrict,
	})
}

// NewReaderWithOptions opens a model file with custom options. The header
// is parsed and the checksum verified before returning.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return newReader(f, opts)
}

func newReader(in io.Reader, opts ReaderOptions) (*Reader, error) {
	data, err := io.ReadAll(io.LimitReader(in, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	r := &Reader{opts: opts}
	if _, ok := probe["header"]; !ok {
		if _, ok := probe["types"]; !ok {
			return nil, ErrMissingModel
		}
		r.bare = true
		r.model = data
		return r, nil
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if len(bytes.TrimSpace(f.Model)) == 0 || bytes.Equal(bytes.TrimSpace(f.Model), []byte("null")) {
		return nil, ErrMissingModel
	}
	if f.Header.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, f.Header.FormatVersion, FormatVersion)
	}

	if !opts.SkipChecksumValidation {
		computed, err := ComputeChecksum(f.Model)
		if err != nil {
			return nil, err
		}
		if err := ValidateChecksum(computed, f.Header.Checksum); err != nil {
			return nil, err
		}
	}

	r.header = f.Header
	r.model = f.Model
	return r, nil
}

// Header returns the file header. Bare records have a zero header.
func (r *Reader) Header() Header {
	return r.header
}

// Metadata returns the metadata map from the header.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// Bare reports whether the file held a pipeline record without envelope.
func (r *Reader) Bare() bool {
	return r.bare
}

// ReadPipeline decodes and validates the model.
func (r *Reader) ReadPipeline() (*pipeline.Pipeline, error) {
	p := pipeline.New()
	if err := json.Unmarshal(r.model, p); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := ValidatePipeline(p, r.opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return p, nil
}

// ReadFrom reads a model from an io.Reader with default options.
// This is useful for reading from buffers or network connections.
func ReadFrom(in io.Reader) (*pipeline.Pipeline, Header, error) {
	r, err := newReader(in, ReaderOptions{ValidationLevel: ValidationStrict})
	if err != nil {
		return nil, Header{}, err
	}

	p, err := r.ReadPipeline()
	if err != nil {
		return nil, Header{}, err
	}
	return p, r.Header(), nil
}

// Load reads the model file at path.
func Load(path string) (*pipeline.Pipeline, Header, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, Header{}, err
	}

	p, err := r.ReadPipeline()
	if err != nil {
		return nil, Header{}, err
	}
	return p, r.Header(), nil
}
