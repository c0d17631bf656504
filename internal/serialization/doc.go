// Package serialization saves and loads pipelines as self-describing JSON
// model files.
//
// A model file wraps the pipeline record in an envelope:
//
//	{
//	  "header": {
//	    "format_version": 1,
//	    "flexnet_version": "0.1.0",
//	    "model_id": "1f0c...",
//	    "created_at": "2026-01-02T15:04:05Z",
//	    "checksum": "<sha-256 of the compact model bytes, hex>",
//	    "metadata": {"task": "adder"}
//	  },
//	  "model": {"types": ["Graph"], "data": [{...}]}
//	}
//
// Files holding only a bare pipeline record, without the envelope, are
// also accepted; they carry no checksum.
//
// Example usage:
//
//	// Save a pipeline
//	header, err := serialization.Save("model.json", p, map[string]string{"task": "adder"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	p, header, err := serialization.Load("model.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
