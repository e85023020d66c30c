// Package backup dumps and restores the engine tables as JSON lines.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"github.com/samber/lo"

	"github.com/eslsoft/vocdrill/internal/infrastructure/database/migrate"
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
)

var errNoTablesSelected = errors.New("backup: no tables selected")

// ProgressReporter receives per-table progress during export.
type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

// Service exports and imports every table declared by the migrate package.
type Service struct {
	drv        *entsql.Driver
	batchSize  int
	tables     []*schema.Table
	tableIndex map[string]*schema.Table
	schemaHash string
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService binds the backup service to an open driver.
func NewService(drv *entsql.Driver, opts ...Option) (*Service, error) {
	if drv == nil {
		return nil, errors.New("backup: driver is required")
	}
	tables, err := schema.CopyTables(migrate.Tables)
	if err != nil {
		return nil, fmt.Errorf("copy schema tables: %w", err)
	}
	svc := &Service{
		drv:        drv,
		batchSize:  defaultBatchSize,
		tables:     tables,
		tableIndex: lo.KeyBy(tables, func(t *schema.Table) string { return t.Name }),
		schemaHash: computeSchemaHash(tables),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	tables   []string
	reporter ProgressReporter
}

// WithTables restricts export to the named tables.
func WithTables(tables []string) ExportOption {
	return func(cfg *exportConfig) {
		cfg.tables = append([]string{}, tables...)
	}
}

// WithProgressReporter registers a reporter for export progress.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	tables []string
}

// WithImportTables restricts import to the named tables.
func WithImportTables(tables []string) ImportOption {
	return func(cfg *importConfig) {
		cfg.tables = append([]string{}, tables...)
	}
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	SchemaHash string         `json:"schema_hash,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	SchemaHash string          `json:"schema_hash"`
	Payload    json.RawMessage `json:"payload"`
}

// Export writes a meta record followed by one record per row, parents first.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{reporter: noopProgress{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(tables))
	for _, tbl := range tables {
		n, err := s.countRows(ctx, tbl)
		if err != nil {
			return fmt.Errorf("count table %s: %w", tbl.Name, err)
		}
		counts[tbl.Name] = n
	}

	writer := bufio.NewWriter(w)
	now := time.Now().UTC()
	meta := record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		SchemaHash: s.schemaHash,
		Tables:     lo.Map(tables, func(t *schema.Table, _ int) string { return t.Name }),
		RowCounts:  counts,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}
	for _, tbl := range tables {
		cfg.reporter.StartTable(tbl.Name, counts[tbl.Name])
		if err := s.exportTable(ctx, tbl, cfg.reporter, writer); err != nil {
			return err
		}
		cfg.reporter.FinishTable(tbl.Name)
	}
	return writer.Flush()
}

// Import restores a dump in a single transaction. Existing rows with the same key
// are overwritten.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return err
	}
	wanted := lo.KeyBy(tables, func(t *schema.Table) string { return t.Name })

	tx, err := s.drv.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		metaSeen bool
		maxIDs   = make(map[string]int64)
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		if rec.Type == "meta" {
			if rec.Version != formatVersion {
				return fmt.Errorf("backup: unsupported format version %d", rec.Version)
			}
			metaSeen = true
			continue
		}
		if !metaSeen {
			return errors.New("backup: missing meta record")
		}
		tbl, ok := wanted[rec.Type]
		if !ok {
			continue
		}
		if len(rec.Payload) == 0 {
			return fmt.Errorf("backup: missing payload for table %s", rec.Type)
		}
		id, err := s.importRow(ctx, tx, tbl, rec.Payload)
		if err != nil {
			return err
		}
		if id > maxIDs[tbl.Name] {
			maxIDs[tbl.Name] = id
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if !metaSeen {
		return errors.New("backup: missing meta record")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	committed = true
	return s.syncSequences(ctx, maxIDs)
}

func (s *Service) builder() *entsql.DialectBuilder { return entsql.Dialect(s.drv.Dialect()) }

func (s *Service) countRows(ctx context.Context, tbl *schema.Table) (int, error) {
	query, args := s.builder().Select(entsql.Count("*")).From(entsql.Table(tbl.Name)).Query()
	var n int
	if err := s.drv.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) exportTable(ctx context.Context, tbl *schema.Table, reporter ProgressReporter, w io.Writer) error {
	columns := lo.Map(tbl.Columns, func(c *schema.Column, _ int) string { return c.Name })
	orderBy := lo.Map(tbl.PrimaryKey, func(c *schema.Column, _ int) string { return c.Name })

	for offset := 0; ; offset += s.batchSize {
		query, args := s.builder().Select(columns...).
			From(entsql.Table(tbl.Name)).
			OrderBy(orderBy...).
			Limit(s.batchSize).
			Offset(offset).
			Query()
		n, err := s.exportBatch(ctx, tbl, query, args, reporter, w)
		if err != nil {
			return err
		}
		if n < s.batchSize {
			return nil
		}
	}
}

func (s *Service) exportBatch(ctx context.Context, tbl *schema.Table, query string, args []any, reporter ProgressReporter, w io.Writer) (int, error) {
	rows, err := s.drv.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", tbl.Name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		values := make([]any, len(tbl.Columns))
		dest := make([]any, len(values))
		for i := range dest {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return n, fmt.Errorf("scan %s: %w", tbl.Name, err)
		}
		payload := make(map[string]any, len(values))
		for i, col := range tbl.Columns {
			v, err := exportValue(col, values[i])
			if err != nil {
				return n, fmt.Errorf("convert %s.%s: %w", tbl.Name, col.Name, err)
			}
			payload[col.Name] = v
		}
		if err := writeRecord(w, record{Type: tbl.Name, Payload: payload}); err != nil {
			return n, err
		}
		reporter.Increment(tbl.Name, 1)
		n++
	}
	return n, rows.Err()
}

// importRow upserts one row and returns its increment id, if any.
func (s *Service) importRow(ctx context.Context, tx *stdsql.Tx, tbl *schema.Table, payload json.RawMessage) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return 0, fmt.Errorf("decode payload for %s: %w", tbl.Name, err)
	}

	var (
		cols []string
		args []any
		id   int64
	)
	for _, col := range tbl.Columns {
		rv, ok := raw[col.Name]
		if !ok {
			continue
		}
		v, err := importValue(col, rv)
		if err != nil {
			return 0, fmt.Errorf("convert %s.%s: %w", tbl.Name, col.Name, err)
		}
		if v == nil && !col.Nullable {
			if col.Default == nil {
				return 0, fmt.Errorf("backup: missing required value for %s.%s", tbl.Name, col.Name)
			}
			v = col.Default
		}
		if col.Increment {
			if n, ok := v.(int64); ok {
				id = n
			}
		}
		cols = append(cols, col.Name)
		args = append(args, v)
	}
	if len(cols) == 0 {
		return 0, nil
	}

	keys := lo.Map(tbl.PrimaryKey, func(c *schema.Column, _ int) string { return c.Name })
	query, qargs := s.builder().Insert(tbl.Name).
		Columns(cols...).
		Values(args...).
		OnConflict(entsql.ConflictColumns(keys...), entsql.ResolveWithNewValues()).
		Query()
	if _, err := tx.ExecContext(ctx, query, qargs...); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", tbl.Name, err)
	}
	return id, nil
}

// selectTables keeps migrate order so parents are restored before children.
func (s *Service) selectTables(requested []string) ([]*schema.Table, error) {
	names := lo.Compact(lo.Map(requested, func(n string, _ int) string { return strings.ToLower(strings.TrimSpace(n)) }))
	if len(requested) > 0 && len(names) == 0 {
		return nil, errNoTablesSelected
	}
	for _, n := range names {
		if _, ok := s.tableIndex[n]; !ok {
			return nil, fmt.Errorf("backup: unsupported table %q", n)
		}
	}
	if len(names) == 0 {
		return append([]*schema.Table{}, s.tables...), nil
	}
	return lo.Filter(s.tables, func(t *schema.Table, _ int) bool { return lo.Contains(names, t.Name) }), nil
}

// syncSequences advances postgres serial sequences past restored ids.
func (s *Service) syncSequences(ctx context.Context, maxIDs map[string]int64) error {
	if s.drv.Dialect() != dialect.Postgres {
		return nil
	}
	for table, maxID := range maxIDs {
		if maxID <= 0 {
			continue
		}
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST(%d, (SELECT COALESCE(MAX(id), 0) FROM %s)))",
			table, maxID, table,
		)
		if _, err := s.drv.DB().ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sync sequence for %s: %w", table, err)
		}
	}
	return nil
}

func exportValue(col *schema.Column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case []byte:
		if col.Type == field.TypeJSON {
			return json.RawMessage(append([]byte{}, v...)), nil
		}
		value = string(v)
	}
	switch col.Type {
	case field.TypeJSON:
		if str, ok := value.(string); ok {
			if str == "" {
				return nil, nil
			}
			return json.RawMessage(str), nil
		}
	case field.TypeInt, field.TypeInt64:
		return toInt64(value)
	case field.TypeTime:
		// sqlite may hand back text for datetime columns.
		if str, ok := value.(string); ok {
			return str, nil
		}
	}
	return value, nil
}

func importValue(col *schema.Column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch col.Type {
	case field.TypeInt, field.TypeInt64:
		return toInt64(value)
	case field.TypeTime:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected timestamp string, got %T", value)
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case field.TypeJSON:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return value, nil
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported integer value %T", value)
	}
}

func computeSchemaHash(tables []*schema.Table) string {
	var b strings.Builder
	sorted := append([]*schema.Table{}, tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, tbl := range sorted {
		b.WriteString(tbl.Name)
		b.WriteString("|cols:")
		for _, col := range tbl.Columns {
			fmt.Fprintf(&b, "%s:%d:%t:%t;", col.Name, col.Type, col.Nullable, col.Increment)
		}
		b.WriteString("|pk:")
		for _, pk := range tbl.PrimaryKey {
			b.WriteString(pk.Name)
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(b.String())))
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
