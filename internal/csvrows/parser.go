// Package csvrows reads staged import files into ordered rows.
package csvrows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"csvimport/csv-import/internal/importerror"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/models"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DefaultDelimiter separates fields in import files.
const DefaultDelimiter = ';'

const utf8BOM = "\ufeff"

// Parser turns delimited text with a header line into models.Row values.
type Parser struct {
	delimiter rune
	decoder   encoding.Encoding
	logger    logging.Logger
}

// Option customizes a Parser.
type Option func(*Parser)

// WithDelimiter overrides the field delimiter.
func WithDelimiter(delim rune) Option {
	return func(p *Parser) {
		p.delimiter = delim
	}
}

// WithEncoding sets the character encoding of the input files. Supported
// names are "utf-8" (default), "iso-8859-1"/"latin1", "iso-8859-15" and
// "windows-1252".
func WithEncoding(name string) Option {
	return func(p *Parser) {
		if enc, err := LookupEncoding(name); err == nil {
			p.decoder = enc
		} else {
			p.logger.Warn("Unknown input encoding, falling back to UTF-8",
				logging.F("encoding", name))
		}
	}
}

// LookupEncoding maps an encoding name to its decoder.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// NewParser creates a Parser for semicolon-delimited UTF-8 input unless
// options say otherwise.
func NewParser(logger logging.Logger, opts ...Option) *Parser {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	p := &Parser{
		delimiter: DefaultDelimiter,
		decoder:   unicode.UTF8,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads the file at path.
func (p *Parser) ParseFile(path string) ([]models.Row, error) {
	file, err := os.Open(path) // #nosec G304 -- staged files live in the configured download dir
	if err != nil {
		return nil, &importerror.ParseError{File: path, Err: err}
	}
	defer func() {
		if err := file.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close file", logging.F(logging.FieldFile, path))
		}
	}()

	return p.Parse(file, path)
}

// Parse reads rows from r. name identifies the input in errors. Blank lines
// are skipped; a file without any line yields no rows.
func (p *Parser) Parse(r io.Reader, name string) ([]models.Row, error) {
	reader := csv.NewReader(p.decoder.NewDecoder().Reader(r))
	reader.Comma = p.delimiter
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		p.logger.Info("Import file is empty", logging.F(logging.FieldFile, name))
		return nil, nil
	}
	if err != nil {
		return nil, toParseError(name, err)
	}
	header = normalizeHeader(header)

	var rows []models.Row
	for {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, toParseError(name, err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, models.NewRow(line, header, values))
	}

	p.logger.Debug("Parsed import file",
		logging.F(logging.FieldFile, name),
		logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

func toParseError(name string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &importerror.ParseError{File: name, Line: csvErr.Line, Err: csvErr.Err}
	}
	return &importerror.ParseError{File: name, Err: err}
}
