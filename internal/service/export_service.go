package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"hogis-registration/config"
	"hogis-registration/internal/dto"
	"hogis-registration/internal/model"
	"hogis-registration/internal/repository"
)

// ── export errors ──

var (
	ErrExportContainer    = errors.New("container must be all, registered, accepted or rejected")
	ErrExportFormat       = errors.New("format must be csv or xlsx")
	ErrExportGenerateFail = errors.New("failed to generate export file")
)

// ExportHeader column order shared by the CSV and XLSX outputs
var ExportHeader = []string{"Name", "Email", "Phone", "Age", "Category", "School", "Status", "Submission Date"}

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export a rendered file
type Export struct {
	Data        []byte
	FileName    string
	ContentType string
	Rows        int
}

// ExportService renders registrations for download
type ExportService interface {
	Export(ctx context.Context, req *dto.ExportRequest) (*Export, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService. Dates are rendered in db.timezone.
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(cfg.Database.Timezone)
	if err != nil || cfg.Database.Timezone == "" {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// Export
// ═══════════════════════════════════════════════════════════

func (s *exportService) Export(ctx context.Context, req *dto.ExportRequest) (*Export, error) {
	containers, label, err := exportContainers(req.Container)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(req.Format)
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, ErrExportFormat
	}

	var entries []Entry
	for _, c := range containers {
		regs, err := s.repo.Registration.ListByContainer(ctx, c)
		if err != nil {
			s.logger.Error("export read failed", zap.String("container", string(c)), zap.Error(err))
			return nil, err
		}
		for _, r := range regs {
			entries = append(entries, Entry{Reg: r, Container: c})
		}
	}
	entries = Filter(entries, req.Q, "")

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, s.row(e))
	}

	out := &Export{
		FileName: fmt.Sprintf("registrations-%s-%s.%s", label, s.now().In(s.loc).Format(dateLayout), format),
		Rows:     len(rows),
	}
	if format == FormatXLSX {
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		out.Data, err = renderXLSX(rows)
	} else {
		out.ContentType = "text/csv; charset=utf-8"
		out.Data, err = RenderCSV(rows)
	}
	if err != nil {
		s.logger.Error("export render failed", zap.String("format", format), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrExportGenerateFail, err)
	}

	s.logger.Info("registrations exported",
		zap.String("container", label),
		zap.String("format", format),
		zap.Int("rows", len(rows)),
	)
	return out, nil
}

func exportContainers(name string) ([]model.Container, string, error) {
	if name == "" || name == "all" {
		return model.Containers, "all", nil
	}
	c, err := model.ParseContainer(name)
	if err != nil {
		return nil, "", ErrExportContainer
	}
	return []model.Container{c}, name, nil
}

func (s *exportService) row(e Entry) []string {
	r := e.Reg
	return []string{
		neutralise(r.FullName()),
		neutralise(r.EmailAddress),
		neutralise(r.PhoneNumber),
		strconv.Itoa(r.Age),
		strings.ReplaceAll(string(r.Category), "_", " "),
		neutralise(r.CurrentSchool),
		string(e.source().Status()),
		r.SubmissionDate.In(s.loc).Format(dateLayout),
	}
}

// RenderCSV header plus rows; fields are quoted where needed
func RenderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportHeader); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Registrations"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range ExportHeader {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(ExportHeader)-1), 1), headerStyle)
	f.SetColWidth(sheet, "A", "C", 24)
	f.SetColWidth(sheet, "D", "D", 6)
	f.SetColWidth(sheet, "E", "H", 20)

	for r, row := range rows {
		for c, v := range row {
			if c == 3 {
				// age stays numeric
				if n, err := strconv.Atoi(v); err == nil {
					f.SetCellValue(sheet, cell(colName(c), r+2), n)
					continue
				}
			}
			f.SetCellValue(sheet, cell(colName(c), r+2), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ── helpers ──

// formulaLead characters a spreadsheet treats as the start of a formula
const formulaLead = "=+-@\t\r"

// neutralise prefixes an apostrophe to applicant text that a spreadsheet
// would otherwise evaluate, so it opens as a literal string
func neutralise(v string) string {
	if v != "" && strings.ContainsRune(formulaLead, rune(v[0])) {
		return "'" + v
	}
	return v
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
