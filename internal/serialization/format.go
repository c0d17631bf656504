package serialization

import (
	"encoding/json"
	"time"
)

// Format constants.
const (
	FormatVersion = 1       // Envelope layout version
	Version       = "0.1.0" // Current flexnet version
)

// Header describes a model file.
type Header struct {
	FormatVersion  int               `json:"format_version"`  // Version of the envelope layout
	FlexnetVersion string            `json:"flexnet_version"` // Version of flexnet that created this file
	ModelID        string            `json:"model_id"`        // Random identifier assigned on first save
	CreatedAt      time.Time         `json:"created_at"`      // When the file was created
	Checksum       string            `json:"checksum"`        // Hex SHA-256 of the compact model bytes
	Metadata       map[string]string `json:"metadata"`        // Custom metadata
}

// file is the on-disk envelope.
type file struct {
	Header Header          `json:"header"`
	Model  json.RawMessage `json:"model"`
}
