package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
)

// CSV header names; the second spelling of each pair is the legacy column name.
var csvColumns = map[string][]string{
	"target_text": {"target_text", "english"},
	"prompt_text": {"prompt_text", "japanese"},
	"reading":     {"reading", "english_katakana"},
	"section":     {"section"},
	"alternates":  {"alternates"},
}

// CatalogUsecase maintains the word catalog.
type CatalogUsecase interface {
	ImportWords(ctx context.Context, r io.Reader) (*entity.ImportReport, error)
}

// NewCatalogUsecase constructs the catalog maintainer.
func NewCatalogUsecase(words repository.WordRepository) CatalogUsecase {
	return &catalogUsecase{words: words}
}

type catalogUsecase struct {
	words repository.WordRepository
	mu    sync.Mutex
}

// ImportWords parses a CSV catalog and stores it in one transaction. Malformed rows
// are reported by line and skipped; only one import runs at a time.
func (u *catalogUsecase) ImportWords(ctx context.Context, r io.Reader) (*entity.ImportReport, error) {
	if !u.mu.TryLock() {
		return nil, entity.ErrImportInProgress
	}
	defer u.mu.Unlock()

	words, report, err := parseWordsCSV(r)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return report, nil
	}
	imported, skipped, err := u.words.Import(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("import words: %w", err)
	}
	report.Imported = imported
	report.Skipped += skipped
	return report, nil
}

func parseWordsCSV(r io.Reader) ([]*entity.Word, *entity.ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty csv", entity.ErrInvalidWord)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %w", entity.ErrInvalidWord, err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, nil, err
	}

	report := &entity.ImportReport{Errors: []string{}}
	seen := make(map[[2]string]struct{})
	var words []*entity.Word
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", perr.Line, perr.Err))
				continue
			}
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if lo.EveryBy(row, func(c string) bool { return strings.TrimSpace(c) == "" }) {
			continue
		}
		w, err := wordFromRow(row, index)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		key := [2]string{w.TargetText, w.PromptText}
		if _, dup := seen[key]; dup {
			report.Skipped++
			continue
		}
		seen[key] = struct{}{}
		words = append(words, w)
	}
	return words, report, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(csvColumns))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for field, aliases := range csvColumns {
			if _, taken := index[field]; !taken && lo.Contains(aliases, name) {
				index[field] = i
			}
		}
	}
	for _, required := range []string{"target_text", "prompt_text"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", entity.ErrInvalidWord, required)
		}
	}
	return index, nil
}

func wordFromRow(row []string, index map[string]int) (*entity.Word, error) {
	cell := func(field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	w := &entity.Word{
		TargetText: cell("target_text"),
		PromptText: cell("prompt_text"),
		Reading:    cell("reading"),
	}
	if s := cell("section"); s != "" {
		section, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid section %q", s)
		}
		w.Section = section
	}
	if alts := cell("alternates"); alts != "" {
		w.Alternates = strings.Split(alts, "|")
	}
	w.Normalize()
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}
