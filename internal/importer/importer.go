package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/cleared-dev/walletrecon/internal/model"
)

var (
	// ErrNotFound reports a missing statement file. Errors wrapping it also
	// satisfy errors.Is(err, fs.ErrNotExist).
	ErrNotFound = errors.New("statement not found")
	// ErrMissingHeader reports a delimited export without its header row.
	ErrMissingHeader = errors.New("header row not found")
	// ErrMissingSelector reports an HTML statement without its transaction table.
	ErrMissingSelector = errors.New("statement table not found")
)

// Parser converts one channel's statement into records.
type Parser interface {
	Parse(r io.Reader) ([]*model.Record, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&WeChatParser{})
	r.Register(&AlipayParser{})
	r.Register(&CITICParser{})
	r.Register(&CMBParser{})
	r.Register(&CMBDebitParser{})
	r.Register(&WeBankParser{})
	return r
}

// ParseFile opens path and runs p over it.
func ParseFile(p Parser, path string) ([]*model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s statement %s: %w", p.Format(), path, err)
	}
	return records, nil
}
