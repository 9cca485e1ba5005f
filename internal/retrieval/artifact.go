package retrieval

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Errors returned by index persistence operations.
var (
	ErrIndexNotFound  = errors.New("index not found")
	ErrIndexIntegrity = errors.New("index integrity error")
	ErrFieldOverflow  = errors.New("metadata field overflow")
)

const (
	// EmbeddingFileName is the embedding matrix artifact.
	EmbeddingFileName = "chunks.emb"

	// MetaFileName is the chunk metadata artifact.
	MetaFileName = "chunks.meta"

	// CurrentArtifactVersion is the on-disk format version. Increment on
	// breaking format changes; loaders reject other versions.
	CurrentArtifactVersion = 1

	// MaxSourceBytes bounds the source field of a metadata record.
	MaxSourceBytes = 128

	// MaxTextBytes bounds the text field of a metadata record. A chunk
	// whose UTF-8 text exceeds it rejects the whole ingestion run; there
	// is no silent truncation.
	MaxTextBytes = 4000

	// metaRecordSize is id(4) + source(128) + text(4000).
	metaRecordSize = 4 + MaxSourceBytes + MaxTextBytes

	modelFieldBytes = 64
)

var (
	embeddingMagic = [4]byte{'S', 'H', 'E', 'M'}
	metaMagic      = [4]byte{'S', 'H', 'M', 'T'}
)

// EmbeddingPath returns the path of the embedding artifact under dataDir.
func EmbeddingPath(dataDir string) string {
	return filepath.Join(dataDir, EmbeddingFileName)
}

// MetaPath returns the path of the metadata artifact under dataDir.
func MetaPath(dataDir string) string {
	return filepath.Join(dataDir, MetaFileName)
}

// Exists reports whether both index artifacts are present under dataDir.
func Exists(dataDir string) bool {
	if _, err := os.Stat(EmbeddingPath(dataDir)); err != nil {
		return false
	}
	_, err := os.Stat(MetaPath(dataDir))
	return err == nil
}

// Save persists the index as the two row-aligned artifacts under dataDir.
// Both files are written to temporary paths first and renamed only after
// both writes succeed, so a reader never observes a matrix without its
// matching metadata or vice versa.
func (idx *Index) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	embPath := EmbeddingPath(dataDir)
	metaPath := MetaPath(dataDir)
	embTmp := embPath + ".tmp"
	metaTmp := metaPath + ".tmp"

	if err := writeFileAtomicPrep(embTmp, idx.encodeEmbeddings); err != nil {
		return fmt.Errorf("writing embedding artifact: %w", err)
	}
	if err := writeFileAtomicPrep(metaTmp, idx.encodeMeta); err != nil {
		os.Remove(embTmp)
		return fmt.Errorf("writing metadata artifact: %w", err)
	}

	if err := os.Rename(embTmp, embPath); err != nil {
		os.Remove(embTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("publishing embedding artifact: %w", err)
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("publishing metadata artifact: %w", err)
	}

	return nil
}

// writeFileAtomicPrep writes encode output to path, fsyncing before close.
func writeFileAtomicPrep(path string, encode func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (idx *Index) encodeEmbeddings(w io.Writer) error {
	if _, err := w.Write(embeddingMagic[:]); err != nil {
		return err
	}
	header := []uint32{
		CurrentArtifactVersion,
		uint32(len(idx.chunks)),
		uint32(idx.Dimensions),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, idx.CreatedAt.Unix()); err != nil {
		return err
	}
	var model [modelFieldBytes]byte
	if len(idx.ModelName) > modelFieldBytes {
		return fmt.Errorf("%w: model name %q exceeds %d bytes", ErrFieldOverflow, idx.ModelName, modelFieldBytes)
	}
	copy(model[:], idx.ModelName)
	if _, err := w.Write(model[:]); err != nil {
		return err
	}

	buf := make([]byte, 4)
	for _, v := range idx.vectors {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) encodeMeta(w io.Writer) error {
	if _, err := w.Write(metaMagic[:]); err != nil {
		return err
	}
	header := []uint32{
		CurrentArtifactVersion,
		uint32(len(idx.chunks)),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	record := make([]byte, metaRecordSize)
	for _, c := range idx.chunks {
		if len(c.Source) > MaxSourceBytes {
			return fmt.Errorf("%w: source %q exceeds %d bytes", ErrFieldOverflow, c.Source, MaxSourceBytes)
		}
		if len(c.Text) > MaxTextBytes {
			return fmt.Errorf("%w: chunk %d text is %d bytes, limit %d", ErrFieldOverflow, c.ID, len(c.Text), MaxTextBytes)
		}
		for i := range record {
			record[i] = 0
		}
		binary.LittleEndian.PutUint32(record[0:4], uint32(c.ID))
		copy(record[4:4+MaxSourceBytes], c.Source)
		copy(record[4+MaxSourceBytes:], c.Text)
		if _, err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Load reads both artifacts from dataDir and validates their alignment.
// A row-count mismatch between the two artifacts is an integrity error
// detected here, before any query is served.
func Load(dataDir string) (*Index, error) {
	embData, err := os.ReadFile(EmbeddingPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: run 'heatbot ingest' first (%s missing)", ErrIndexNotFound, EmbeddingFileName)
		}
		return nil, fmt.Errorf("reading embedding artifact: %w", err)
	}
	metaData, err := os.ReadFile(MetaPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: run 'heatbot ingest' first (%s missing)", ErrIndexNotFound, MetaFileName)
		}
		return nil, fmt.Errorf("reading metadata artifact: %w", err)
	}

	idx := &Index{}
	embRows, err := idx.decodeEmbeddings(embData)
	if err != nil {
		return nil, err
	}
	metaRows, err := idx.decodeMeta(metaData)
	if err != nil {
		return nil, err
	}

	if embRows != metaRows {
		return nil, fmt.Errorf("%w: embedding artifact has %d rows, metadata artifact has %d",
			ErrIndexIntegrity, embRows, metaRows)
	}

	return idx, nil
}

func (idx *Index) decodeEmbeddings(data []byte) (rows int, err error) {
	const headerSize = 4 + 4 + 4 + 4 + 8 + modelFieldBytes
	if len(data) < headerSize {
		return 0, fmt.Errorf("%w: embedding artifact truncated (%d bytes)", ErrIndexIntegrity, len(data))
	}
	if !bytes.Equal(data[0:4], embeddingMagic[:]) {
		return 0, fmt.Errorf("%w: embedding artifact has wrong magic", ErrIndexIntegrity)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != CurrentArtifactVersion {
		return 0, fmt.Errorf("%w: unsupported embedding artifact version %d (want %d)",
			ErrIndexIntegrity, version, CurrentArtifactVersion)
	}
	n := int(binary.LittleEndian.Uint32(data[8:12]))
	d := int(binary.LittleEndian.Uint32(data[12:16]))
	createdAt := int64(binary.LittleEndian.Uint64(data[16:24]))
	model := string(bytes.TrimRight(data[24:24+modelFieldBytes], "\x00"))

	body := data[headerSize:]
	// Bound the header counts by the actual body size before multiplying,
	// so a crafted header cannot overflow the length check or drive a
	// huge allocation below.
	if n > 0 && (d <= 0 || n > len(body)/4 || d > len(body)/4) {
		return 0, fmt.Errorf("%w: embedding artifact header claims %d x %d for a %d-byte body",
			ErrIndexIntegrity, n, d, len(body))
	}
	want := n * d * 4
	if len(body) != want {
		return 0, fmt.Errorf("%w: embedding artifact body is %d bytes, want %d for %d x %d",
			ErrIndexIntegrity, len(body), want, n, d)
	}

	vectors := make([]float32, n*d)
	for i := range vectors {
		bits := binary.LittleEndian.Uint32(body[i*4 : i*4+4])
		vectors[i] = math.Float32frombits(bits)
	}

	idx.ModelName = model
	idx.Dimensions = d
	idx.CreatedAt = time.Unix(createdAt, 0).UTC()
	idx.vectors = vectors
	return n, nil
}

func (idx *Index) decodeMeta(data []byte) (rows int, err error) {
	const headerSize = 4 + 4 + 4
	if len(data) < headerSize {
		return 0, fmt.Errorf("%w: metadata artifact truncated (%d bytes)", ErrIndexIntegrity, len(data))
	}
	if !bytes.Equal(data[0:4], metaMagic[:]) {
		return 0, fmt.Errorf("%w: metadata artifact has wrong magic", ErrIndexIntegrity)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != CurrentArtifactVersion {
		return 0, fmt.Errorf("%w: unsupported metadata artifact version %d (want %d)",
			ErrIndexIntegrity, version, CurrentArtifactVersion)
	}
	n := int(binary.LittleEndian.Uint32(data[8:12]))

	body := data[headerSize:]
	if len(body) != n*metaRecordSize {
		return 0, fmt.Errorf("%w: metadata artifact body is %d bytes, want %d for %d records",
			ErrIndexIntegrity, len(body), n*metaRecordSize, n)
	}

	chunks := make([]Chunk, n)
	for i := 0; i < n; i++ {
		record := body[i*metaRecordSize : (i+1)*metaRecordSize]
		chunks[i] = Chunk{
			ID:     int32(binary.LittleEndian.Uint32(record[0:4])),
			Source: string(bytes.TrimRight(record[4:4+MaxSourceBytes], "\x00")),
			Text:   string(bytes.TrimRight(record[4+MaxSourceBytes:], "\x00")),
		}
	}

	idx.chunks = chunks
	return n, nil
}

// ArtifactSize returns the combined size of both artifacts in bytes.
func ArtifactSize(dataDir string) (int64, error) {
	embInfo, err := os.Stat(EmbeddingPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrIndexNotFound
		}
		return 0, err
	}
	metaInfo, err := os.Stat(MetaPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrIndexNotFound
		}
		return 0, err
	}
	return embInfo.Size() + metaInfo.Size(), nil
}
