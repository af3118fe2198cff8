package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/walletrecon/internal/model"
)

// ErrBaselineNotFound is returned when the baseline directory does not exist.
var ErrBaselineNotFound = errors.New("baseline ledger not found")

// FileName returns the CSV file name for a category, e.g. "支出.csv".
func FileName(c model.Category) string {
	return c.Sheet() + ".csv"
}

// Load reads a ledger directory holding one CSV per category. A missing
// category file is an empty table; a missing directory is an error.
func Load(dir string) (*Book, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBaselineNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat baseline %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("baseline %s is not a directory", dir)
	}

	book := NewBook()
	for _, c := range model.Categories {
		t, err := loadTable(filepath.Join(dir, FileName(c)), c)
		if err != nil {
			return nil, err
		}
		if t != nil {
			book.Set(t)
		}
	}
	return book, nil
}

func loadTable(path string, c model.Category) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f, c)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// Save writes every category of book into dir, creating it if needed.
func Save(dir string, book *Book) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	for _, c := range model.Categories {
		if err := saveTable(filepath.Join(dir, FileName(c)), book.Table(c)); err != nil {
			return err
		}
	}
	return nil
}

func saveTable(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteTable(f, t); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
