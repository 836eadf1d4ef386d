package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/iban"
	"github.com/ledgerfeed/importer/pkg/logger"
)

const defaultDateFormat = "2006-01-02"

// NoDescriptionPlaceholder fills in when a record carries no description.
const NoDescriptionPlaceholder = "(no description)"

// FileAdapter parses a delimited text file into transaction groups. Each
// data row becomes one single-leg group; the configured role mapping decides
// which canonical field each column feeds.
type FileAdapter struct {
	content []byte
	cfg     *config.ImportConfig
	logger  *logger.Logger
}

func NewFileAdapter(content []byte, cfg *config.ImportConfig, log *logger.Logger) *FileAdapter {
	return &FileAdapter{content: content, cfg: cfg, logger: log}
}

func (a *FileAdapter) Fetch(ctx context.Context) ([]domain.TransactionGroup, error) {
	rows, err := a.rows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file contains no rows", domain.ErrSourceFetch)
	}

	data := rows
	if a.cfg.Headers {
		data = rows[1:]
	}

	groups := make([]domain.TransactionGroup, 0, len(data))
	seen := make(map[string]bool)

	for i, row := range data {
		if a.cfg.IgnoreDuplicateLines {
			key := strings.Join(row, "\x1f")
			if seen[key] {
				a.logger.Debug(ctx, "Skipping duplicate line",
					"row", i,
				)
				continue
			}
			seen[key] = true
		}

		tx, err := a.mapRow(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrSourceFetch, i, err)
		}

		groups = append(groups, domain.TransactionGroup{
			GroupTitle:   tx.Description,
			Transactions: []domain.Transaction{tx},
		})
	}

	a.logger.Info(ctx, "Parsed delimited file",
		"rows", len(data),
		"groups", len(groups),
	)

	return groups, nil
}

// Columns returns the header list after the configured specifics have run:
// row 0 when headers are declared present, synthetic "Column #N" names
// otherwise.
func (a *FileAdapter) Columns(ctx context.Context) ([]string, error) {
	rows, err := a.rows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file contains no rows", domain.ErrSourceFetch)
	}

	var headers []string
	if a.cfg.Headers {
		headers = append([]string(nil), rows[0]...)
	} else {
		headers = make([]string, len(rows[0]))
		for i := range rows[0] {
			headers[i] = fmt.Sprintf("Column #%d", i+1)
		}
	}

	for _, name := range a.cfg.Specifics {
		specific := SpecificByName(name)
		if specific == nil {
			a.logger.Warn(ctx, "Unknown specific, skipping",
				"specific", name,
			)
			continue
		}
		headers = specific.RunOnHeaders(headers)
	}

	return headers, nil
}

const (
	exampleRowCount   = 7
	exampleCellLength = 26
)

// ExampleData returns up to seven example values per column for the
// configuration UI, long cells truncated with an ellipsis.
func (a *FileAdapter) ExampleData(ctx context.Context) (map[int][]string, error) {
	rows, err := a.rows()
	if err != nil {
		return nil, err
	}

	data := rows
	if a.cfg.Headers && len(rows) > 0 {
		data = rows[1:]
	}
	if len(data) > exampleRowCount {
		data = data[:exampleRowCount]
	}

	examples := make(map[int][]string)
	for _, row := range data {
		for i, cell := range row {
			if len(cell) > exampleCellLength {
				cell = cell[:exampleCellLength] + "..."
			}
			if !contains(examples[i], cell) {
				examples[i] = append(examples[i], cell)
			}
		}
	}

	return examples, nil
}

func (a *FileAdapter) rows() ([][]string, error) {
	delimiter, err := a.cfg.DelimiterRune()
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(a.content))
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSourceFetch, err)
		}
		rows = append(rows, append([]string(nil), record...))
	}
	return rows, nil
}

// mapRow feeds each cell into the canonical field its column role names.
// The transaction type follows the amount's sign; the configured default
// account becomes the owning side.
func (a *FileAdapter) mapRow(ctx context.Context, row []string) (domain.Transaction, error) {
	tx := domain.Transaction{}
	amount := decimal.Zero

	for i, cell := range row {
		if i >= len(a.cfg.Roles) {
			break
		}
		cell = strings.TrimSpace(cell)

		switch a.cfg.Roles[i] {
		case RoleIgnore, "":
		case RoleAmount:
			if cell == "" {
				continue
			}
			d, err := decimal.NewFromString(normalizeAmount(cell))
			if err != nil {
				return tx, fmt.Errorf("invalid amount %q", cell)
			}
			amount = d
		case RoleDate:
			format := a.cfg.DateFormat
			if format == "" {
				format = defaultDateFormat
			}
			parsed, err := time.Parse(format, cell)
			if err != nil {
				return tx, fmt.Errorf("invalid date %q: %v", cell, err)
			}
			tx.Date = parsed
		case RoleDescription:
			tx.Description = cell
		case RoleCurrencyCode:
			tx.CurrencyCode = cell
		case RoleSourceName:
			tx.SourceName = cell
		case RoleSourceIBAN:
			if iban.IsValid(cell) {
				tx.SourceIBAN = strings.ToUpper(strings.ReplaceAll(cell, " ", ""))
			} else if cell != "" {
				// Malformed IBANs still identify the counterparty by name.
				tx.SourceName = cell
			}
		case RoleDestinationName:
			tx.DestinationName = cell
		case RoleDestinationIBAN:
			if iban.IsValid(cell) {
				tx.DestinationIBAN = strings.ToUpper(strings.ReplaceAll(cell, " ", ""))
			} else if cell != "" {
				tx.DestinationName = cell
			}
		case RoleExternalID:
			tx.ExternalID = cell
		case RoleCategory:
			tx.Meta.Category = cell
		case RoleTags:
			for _, tag := range strings.Split(cell, ",") {
				tag = strings.TrimSpace(tag)
				if tag != "" {
					tx.Meta.Tags = append(tx.Meta.Tags, tag)
				}
			}
		case RoleNotes:
			tx.Meta.Notes = cell
		default:
			a.logger.Warn(ctx, "Unknown column role, ignoring",
				"role", a.cfg.Roles[i],
				"column", i,
			)
		}
	}

	if tx.Description == "" {
		tx.Description = NoDescriptionPlaceholder
	}

	// The cell method's cue overrides any role-mapped identifier.
	if a.cfg.DuplicateDetectionMethod == config.DedupCell {
		if i := a.cfg.UniqueColumnIndex; i >= 0 && i < len(row) {
			if cue := strings.TrimSpace(row[i]); cue != "" {
				if a.cfg.UniqueColumnType == config.CellTypeInternalReference {
					tx.InternalReference = cue
				} else {
					tx.ExternalID = cue
				}
			}
		}
	}

	tx.Amount = amount.Abs().String()
	if amount.IsNegative() {
		tx.Type = domain.TransactionTypeWithdrawal
		tx.SourceID = a.cfg.DefaultAccountID
	} else {
		tx.Type = domain.TransactionTypeDeposit
		tx.DestinationID = a.cfg.DefaultAccountID
	}

	return tx, nil
}

// normalizeAmount accepts European decimal commas when no dot is present.
func normalizeAmount(s string) string {
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		return strings.ReplaceAll(s, ",", ".")
	}
	return strings.ReplaceAll(s, ",", "")
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
