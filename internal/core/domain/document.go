package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Document is a source file converted to text.
// Its identity is the base filename, which is also the deduplication key.
type Document struct {
	// Name is the stable identity (base filename, e.g. "engine_fire.pdf").
	Name string

	// Path is the location the document was read from.
	Path string

	// Pages holds the converted text, one entry per page or section.
	Pages []Page

	// Metadata contains converter-specific key-value pairs.
	Metadata map[string]any
}

// Page is one page (PDF) or the whole body (text formats) of a document.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the extracted text of the page.
	Text string
}

// Text returns all page text joined by blank lines.
func (d *Document) Text() string {
	texts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}

// Chunk is a bounded text fragment owned by exactly one Document.
// Chunks are the unit of storage and retrieval.
type Chunk struct {
	// ID is a generated unique key, independent of content.
	ID string

	// Content is the enriched chunk text that is embedded and returned.
	Content string

	// Embedding is the vector computed once at storage time.
	Embedding []float32

	// Metadata carries the chunk's provenance.
	Metadata ChunkMetadata
}

// Metadata keys used when chunk metadata is flattened for storage.
const (
	MetaDocumentID   = "document_id"
	MetaDocumentName = "document_name"
	MetaChunkIndex   = "chunk_index"
	MetaPageNumber   = "page_number"
	MetaHeading      = "heading"
	MetaIngestTime   = "ingest_time"
)

// ChunkMetadata is the fixed provenance schema attached to every chunk.
type ChunkMetadata struct {
	// DocumentID identifies the chunk within its document ("name_index").
	DocumentID string

	// DocumentName is the source filename used for deduplication.
	DocumentName string

	// ChunkIndex is the ordinal position of the chunk within the document.
	ChunkIndex int

	// PageNumber is the page the chunk was taken from.
	PageNumber int

	// Heading is the section heading the chunk belongs to, if any.
	Heading string

	// IngestTime is when the chunk was produced.
	IngestTime time.Time

	// Extra holds converter or processor specific values.
	Extra map[string]any
}

// Flatten converts the metadata into a map holding only primitive values.
// Non-primitive Extra values are serialised to JSON strings because storage
// backends only accept string, number, bool and null metadata.
func (m ChunkMetadata) Flatten() (map[string]any, error) {
	out := make(map[string]any, 6+len(m.Extra))
	for k, v := range m.Extra {
		pv, err := primitive(v)
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", k, err)
		}
		out[k] = pv
	}

	out[MetaDocumentID] = m.DocumentID
	out[MetaDocumentName] = m.DocumentName
	out[MetaChunkIndex] = m.ChunkIndex
	out[MetaPageNumber] = m.PageNumber
	out[MetaHeading] = m.Heading
	if !m.IngestTime.IsZero() {
		out[MetaIngestTime] = m.IngestTime.UTC().Format(time.RFC3339)
	}
	return out, nil
}

// primitive returns v unchanged if it is a primitive metadata value,
// otherwise its JSON encoding.
func primitive(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// ParseChunkMetadata rebuilds metadata from a flattened map.
// Unknown keys are kept in Extra.
func ParseChunkMetadata(flat map[string]any) ChunkMetadata {
	m := ChunkMetadata{}
	for k, v := range flat {
		switch k {
		case MetaDocumentID:
			m.DocumentID, _ = v.(string)
		case MetaDocumentName:
			m.DocumentName, _ = v.(string)
		case MetaChunkIndex:
			m.ChunkIndex = toInt(v)
		case MetaPageNumber:
			m.PageNumber = toInt(v)
		case MetaHeading:
			m.Heading, _ = v.(string)
		case MetaIngestTime:
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					m.IngestTime = t
				}
			}
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[k] = v
		}
	}
	return m
}

// toInt handles the numeric types produced by JSON and TOML decoding.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	default:
		return 0
	}
}
