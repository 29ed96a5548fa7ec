package lessons

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns recognised by the importer. The first row of the sheet names
// them; order and unknown columns do not matter.
var importColumns = []string{
	"track_id", "track_name", "track_description", "difficulty",
	"lesson_id", "title", "type",
	"question", "options", "correct_answer", "explanation",
	"kannada_phrase", "english_translation", "pronunciation_guide", "audio_url",
	"sentence", "english_hint", "pairs", "audio_text",
	"direction", "source_text", "correct_answers", "hints",
	"english_sentence", "word_bank", "correct_order",
}

// ImportConfig defines where lesson rows are read from.
type ImportConfig struct {
	FilePath  string // .xlsx or .csv
	SheetName string // ignored for CSV
	HeaderRow int    // 1-based row holding column names
	Separator string // splits list cells such as options and word_bank
}

func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName: "Sheet1",
		HeaderRow: 1,
		Separator: "|",
	}
}

// ImportResult holds the counts of an import run.
type ImportResult struct {
	TotalProcessed int
	TracksCreated  int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportTracks reads lesson rows from a spreadsheet and groups them into
// tracks in first-seen order. Invalid rows are skipped and reported in
// the result; only unreadable files return an error.
func ImportTracks(cfg ImportConfig) ([]Track, *ImportResult, error) {
	if cfg.Separator == "" {
		cfg.Separator = "|"
	}
	if cfg.HeaderRow < 1 {
		cfg.HeaderRow = 1
	}

	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(cfg.FilePath), ".csv") {
		rows, err = readCSV(cfg.FilePath)
	} else {
		rows, err = readExcel(cfg.FilePath, cfg.SheetName)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < cfg.HeaderRow {
		return nil, nil, fmt.Errorf("sheet has no header row %d", cfg.HeaderRow)
	}

	header := make(map[string]int)
	for i, name := range rows[cfg.HeaderRow-1] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"track_id", "lesson_id", "type"} {
		if _, ok := header[required]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", required)
		}
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var tracks []Track
	index := make(map[string]int)

	for i := cfg.HeaderRow; i < len(rows); i++ {
		r := row{cells: rows[i], header: header, sep: cfg.Separator}
		if r.empty() {
			continue
		}
		result.TotalProcessed++

		trackID := r.get("track_id")
		lesson, err := r.lesson()
		if err == nil && trackID == "" {
			err = errors.New("missing track_id")
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		ti, ok := index[trackID]
		if !ok {
			difficulty := Difficulty(strings.ToLower(r.get("difficulty")))
			if difficulty == "" {
				difficulty = Beginner
			}
			tracks = append(tracks, Track{
				ID:          trackID,
				Name:        firstNonEmpty(r.get("track_name"), trackID),
				Description: r.get("track_description"),
				Difficulty:  difficulty,
			})
			ti = len(tracks) - 1
			index[trackID] = ti
			result.TracksCreated++
		}
		if replaceLesson(&tracks[ti], lesson) {
			result.Updated++
		} else {
			tracks[ti].Lessons = append(tracks[ti].Lessons, lesson)
			result.Created++
		}
	}
	return tracks, result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); !slices.Contains(sheets, sheet) && len(sheets) > 0 {
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

type row struct {
	cells  []string
	header map[string]int
	sep    string
}

func (r row) get(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r row) list(col string) []string {
	v := r.get(col)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, r.sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r row) empty() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (r row) lesson() (Lesson, error) {
	ls := Lesson{
		ID:    r.get("lesson_id"),
		Title: r.get("title"),
		Type:  Type(strings.ToLower(r.get("type"))),
		Content: Content{
			Question:           r.get("question"),
			Options:            r.list("options"),
			Explanation:        r.get("explanation"),
			KannadaPhrase:      r.get("kannada_phrase"),
			EnglishTranslation: r.get("english_translation"),
			PronunciationGuide: r.get("pronunciation_guide"),
			AudioURL:           r.get("audio_url"),
			Sentence:           r.get("sentence"),
			EnglishHint:        r.get("english_hint"),
			AudioText:          r.get("audio_text"),
			Direction:          r.get("direction"),
			SourceText:         r.get("source_text"),
			CorrectAnswers:     r.list("correct_answers"),
			Hints:              r.list("hints"),
			EnglishSentence:    r.get("english_sentence"),
			WordBank:           r.list("word_bank"),
			CorrectOrder:       r.list("correct_order"),
		},
	}
	if v := r.get("correct_answer"); v != "" {
		if strings.Contains(v, r.sep) {
			ls.Content.CorrectAnswer = List(r.list("correct_answer")...)
		} else {
			ls.Content.CorrectAnswer = Text(v)
		}
	}
	for _, p := range r.list("pairs") {
		kn, en, ok := strings.Cut(p, "=")
		if !ok {
			return Lesson{}, fmt.Errorf("pair %q is not kannada=english", p)
		}
		ls.Content.Pairs = append(ls.Content.Pairs, Pair{Kannada: strings.TrimSpace(kn), English: strings.TrimSpace(en)})
	}
	if ls.Title == "" {
		ls.Title = ls.ID
	}
	if err := ls.validate(); err != nil {
		return Lesson{}, err
	}
	return ls, nil
}

// WriteTemplate creates a workbook whose first sheet holds the importer's
// header row followed by rows.
func WriteTemplate(path string, rows ...[]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	header := make([]any, len(importColumns))
	for i, c := range importColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cells := make([]any, len(r))
		for j, c := range r {
			cells[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// TemplateRow lays out named cells in the column order WriteTemplate uses.
func TemplateRow(cells map[string]string) []string {
	out := make([]string, len(importColumns))
	for i, c := range importColumns {
		out[i] = cells[c]
	}
	return out
}
