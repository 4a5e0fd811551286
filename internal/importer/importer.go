// Package importer reads card statement files into pending credit-card
// transactions.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gracebooks/gracebooks/internal/id"
	"github.com/gracebooks/gracebooks/internal/model"
)

// Parser converts a statement file into StatementTransactions. Charges are
// positive amounts.
type Parser interface {
	Parse(r io.Reader) ([]model.StatementTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a statement file waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
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

// Formats lists the registered formats.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SimpleParser{})
	r.Register(&ChaseParser{})
	return r
}

// ToCardTransactions turns statement charges into pending card transactions.
// accountFor may assign an expense account from the description; it may be
// nil. Credits and payments (amount <= 0) are skipped and counted.
func ToCardTransactions(rows []model.StatementTransaction, accountFor func(description string) string) ([]model.CreditCardTransaction, int) {
	var txs []model.CreditCardTransaction
	skipped := 0
	for _, row := range rows {
		if !row.Amount.IsPositive() {
			skipped++
			continue
		}
		tx := model.CreditCardTransaction{
			ID:          id.New(),
			Date:        row.Date.Format(model.DateLayout),
			Description: row.Description,
			Amount:      row.Amount,
		}
		if accountFor != nil {
			tx.AccountID = accountFor(row.Description)
		}
		txs = append(txs, tx)
	}
	return txs, skipped
}

// importDir is the subdirectory for statement files.
const importDir = "import"

// processedDir is the subdirectory for imported statement files.
const processedDir = "import/processed"

// Scan returns the CSV files in <dataDir>/import/.
func Scan(dataDir string) ([]FileInfo, error) {
	dir := filepath.Join(dataDir, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(dataDir, fileName string) error {
	dstDir := filepath.Join(dataDir, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	src := filepath.Join(dataDir, importDir, fileName)
	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
