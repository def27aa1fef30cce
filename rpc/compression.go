package rpc

import (
	"io"
	"sort"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// Compressor produces compressed payload writers, keyed by encoding name.
type Compressor interface {
	Name() string
	Compress(w io.Writer) (io.WriteCloser, error)
}

// Decompressor is the inbound counterpart of Compressor.
type Decompressor interface {
	Name() string
	Decompress(r io.Reader) (io.Reader, error)
}

type gzipCompressor struct{}

func (gzipCompressor) Name() string { return "gzip" }

func (gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

type gzipDecompressor struct{}

func (gzipDecompressor) Name() string { return "gzip" }

func (gzipDecompressor) Decompress(r io.Reader) (io.Reader, error) {
	return gzip.NewReader(r)
}

type identityCompressor struct{}

func (identityCompressor) Name() string { return "identity" }

func (identityCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

type identityDecompressor struct{}

func (identityDecompressor) Name() string { return "identity" }

func (identityDecompressor) Decompress(r io.Reader) (io.Reader, error) { return r, nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// CompressorRegistry maps encoding names to compressors. Safe for concurrent
// use.
type CompressorRegistry struct {
	mu sync.RWMutex
	m  map[string]Compressor
}

// NewCompressorRegistry returns a registry preloaded with the "gzip" and
// "identity" encodings.
func NewCompressorRegistry() *CompressorRegistry {
	r := &CompressorRegistry{m: make(map[string]Compressor)}
	r.Register(gzipCompressor{})
	r.Register(identityCompressor{})
	return r
}

func (r *CompressorRegistry) Register(c Compressor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[c.Name()] = c
}

func (r *CompressorRegistry) Lookup(name string) (Compressor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.m[name]
	return c, ok
}

func (r *CompressorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecompressorRegistry maps encoding names to decompressors. Safe for
// concurrent use.
type DecompressorRegistry struct {
	mu sync.RWMutex
	m  map[string]Decompressor
}

// NewDecompressorRegistry returns a registry preloaded with the "gzip" and
// "identity" encodings.
func NewDecompressorRegistry() *DecompressorRegistry {
	r := &DecompressorRegistry{m: make(map[string]Decompressor)}
	r.Register(gzipDecompressor{})
	r.Register(identityDecompressor{})
	return r
}

func (r *DecompressorRegistry) Register(d Decompressor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[d.Name()] = d
}

func (r *DecompressorRegistry) Lookup(name string) (Decompressor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.m[name]
	return d, ok
}

func (r *DecompressorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultRegistriesOnce sync.Once
	defaultCompressors    *CompressorRegistry
	defaultDecompressors  *DecompressorRegistry
)

// DefaultCompressorRegistry returns the process-wide compressor registry used
// by cores built without an explicit one.
func DefaultCompressorRegistry() *CompressorRegistry {
	initDefaultRegistries()
	return defaultCompressors
}

// DefaultDecompressorRegistry returns the process-wide decompressor registry
// used by cores built without an explicit one.
func DefaultDecompressorRegistry() *DecompressorRegistry {
	initDefaultRegistries()
	return defaultDecompressors
}

func initDefaultRegistries() {
	defaultRegistriesOnce.Do(func() {
		defaultCompressors = NewCompressorRegistry()
		defaultDecompressors = NewDecompressorRegistry()
	})
}
