package poolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"wres-bootstrap/internal/pool"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
)

// ReadPool loads a pool from a JSON document.
func ReadPool[T any](path string) (pool.Pool[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pool.Pool[T]{}, fmt.Errorf("failed to read pool: %w", err)
	}

	var doc Document[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return pool.Pool[T]{}, fmt.Errorf("failed to decode pool %s: %w", path, err)
	}

	p, err := doc.Pool()
	if err != nil {
		return pool.Pool[T]{}, err
	}

	log.Debug().Str("path", path).Int("miniPools", len(doc.MiniPools)).Int("series", len(p.Main())).Msg("Loaded pool")
	return p, nil
}

// WritePool saves a pool as an indented JSON document, replacing path atomically.
func WritePool[T any](path string, p pool.Pool[T]) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(FromPool(p))
	})
}

// Replicate is one line of a replicate file.
type Replicate[T any] struct {
	Index int         `json:"replicate"`
	Pool  Document[T] `json:"pool"`
}

// ReplicateWriter streams replicate pools to a JSONL file. Nothing is visible at
// the destination until Close succeeds.
type ReplicateWriter[T any] struct {
	path    string
	tmpPath string
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	count   int
}

// NewReplicateWriter creates the temporary file backing the writer.
func NewReplicateWriter[T any](path string) (*ReplicateWriter[T], error) {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp replicate file: %w", err)
	}

	w := bufio.NewWriter(file)
	return &ReplicateWriter[T]{
		path:    path,
		tmpPath: tmpPath,
		file:    file,
		writer:  w,
		encoder: json.NewEncoder(w),
	}, nil
}

// Write appends one replicate.
func (r *ReplicateWriter[T]) Write(index int, p pool.Pool[T]) error {
	if err := r.encoder.Encode(Replicate[T]{Index: index, Pool: FromPool(p)}); err != nil {
		return fmt.Errorf("failed to encode replicate %d: %w", index, err)
	}
	r.count++
	return nil
}

// Close flushes the replicates and renames the file into place.
func (r *ReplicateWriter[T]) Close() error {
	if err := r.writer.Flush(); err != nil {
		r.Abort()
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := r.file.Close(); err != nil {
		os.Remove(r.tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(r.tmpPath, r.path); err != nil {
		return fmt.Errorf("failed to rename replicate file: %w", err)
	}

	log.Info().Str("path", r.path).Int("count", r.count).Msg("Replicates saved")
	return nil
}

// Abort discards everything written so far.
func (r *ReplicateWriter[T]) Abort() {
	r.file.Close()
	os.Remove(r.tmpPath)
}

// ReadReplicates loads every replicate from a JSONL file written by ReplicateWriter.
func ReadReplicates[T any](path string) ([]pool.Pool[T], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replicates: %w", err)
	}
	defer file.Close()

	var out []pool.Pool[T]
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024*1024)
	for scanner.Scan() {
		var rep Replicate[T]
		if err := json.Unmarshal(scanner.Bytes(), &rep); err != nil {
			return nil, fmt.Errorf("failed to decode replicate line %d: %w", len(out)+1, err)
		}
		p, err := rep.Pool.Pool()
		if err != nil {
			return nil, fmt.Errorf("replicate %d: %w", rep.Index, err)
		}
		out = append(out, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading replicates: %w", err)
	}
	return out, nil
}

// Schema returns the JSON Schema of a pool document of observation/forecast pairs.
func Schema() ([]byte, error) {
	s, err := jsonschema.For[Document[pool.Pair]](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to infer pool schema: %w", err)
	}
	return json.MarshalIndent(s, "", "  ")
}

func writeAtomic(path string, write func(w *bufio.Writer) error) error {
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	writer := bufio.NewWriter(file)
	if err := write(writer); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode pool: %w", err)
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename pool file: %w", err)
	}

	log.Info().Str("path", path).Msg("Pool saved")
	return nil
}
