// Package report implements the daily aggregation job: per-user .xlsx
// submissions are merged into one report per submission category and sent to
// every admin, and the consumed inputs are cleared. The job runs on a cron
// schedule owned by Scheduler.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/shihab98bc/Render-Bot/store"
)

// Sender delivers a document to one chat. Failures affect only that
// recipient.
type Sender interface {
	SendDocument(chatID int64, path, caption string) error
}

// Runner merges submissions and fans the reports out to admins.
type Runner struct {
	store        *store.Store
	userFilesDir string
	scratchDir   string
	sender       Sender
	admins       []int64
	logger       *slog.Logger
	now          func() time.Time
}

func NewRunner(st *store.Store, userFilesDir, scratchDir string, sender Sender, admins []int64, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:        st,
		userFilesDir: userFilesDir,
		scratchDir:   scratchDir,
		sender:       sender,
		admins:       admins,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock injects a time source for tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes one full merge-and-deliver cycle across every configured
// submission category. Per-category and per-recipient failures are logged
// and never abort the run.
func (r *Runner) Run(ctx context.Context) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	logger.Info("starting daily file merge")

	data := r.store.Snapshot()
	if len(data.SubmissionCategories) == 0 {
		logger.Info("no submission categories configured, skipping merge")
		return
	}

	loc, err := time.LoadLocation(data.Schedule.Timezone)
	if err != nil {
		logger.Warn("bad schedule timezone, using UTC", "timezone", data.Schedule.Timezone, "error", err)
		loc = time.UTC
	}
	reportDate := r.now().In(loc).Format("2006-01-02")

	for _, category := range data.SubmissionCategories {
		if ctx.Err() != nil {
			logger.Warn("merge interrupted", "error", ctx.Err())
			return
		}
		r.runCategory(logger, category, reportDate)
	}
}

func (r *Runner) runCategory(logger *slog.Logger, category, reportDate string) {
	logger = logger.With("category", category)

	inputs, err := filepath.Glob(filepath.Join(r.userFilesDir, "*", category+".xlsx"))
	if err != nil {
		logger.Error("enumerating submissions failed", "error", err)
		return
	}
	if len(inputs) == 0 {
		logger.Info("no submissions, skipping category")
		return
	}

	grid, hasData := r.merge(logger, inputs)

	// Inputs are consumed once enumerated and read, even when a file was
	// unparseable or contributed only a header.
	for _, path := range inputs {
		if err := os.Remove(path); err != nil {
			logger.Warn("removing consumed submission failed", "path", path, "error", err)
		}
	}

	if !hasData {
		logger.Info("only header or no data, skipping report")
		return
	}

	name := fmt.Sprintf("%s_Report_%s.xlsx", category, reportDate)
	path := filepath.Join(r.scratchDir, name)
	if err := writeGrid(path, category, grid); err != nil {
		logger.Error("writing report failed", "path", path, "error", err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logger.Warn("removing report scratch file failed", "path", path, "error", err)
		}
	}()

	caption := fmt.Sprintf("Daily User File Report for '%s' on %s", category, reportDate)
	for _, admin := range r.admins {
		if err := r.sender.SendDocument(admin, path, caption); err != nil {
			logger.Error("sending report failed", "admin", admin, "error", err)
			continue
		}
		logger.Info("sent report", "admin", admin)
	}
}

// merge builds the consolidated grid: one header row taken from the first
// non-empty file, then every data row that has at least one non-empty cell.
func (r *Runner) merge(logger *slog.Logger, inputs []string) ([][]string, bool) {
	var grid [][]string
	headerWritten := false
	hasData := false

	for _, path := range inputs {
		rows, err := readSheet(path)
		if err != nil {
			logger.Error("could not process submission", "path", path, "error", err)
			continue
		}
		if !headerWritten && len(rows) > 0 {
			header := dropEmptyCells(rows[0])
			if len(header) > 0 {
				grid = append(grid, header)
				headerWritten = true
			}
		}
		for i := 1; i < len(rows); i++ {
			if rowHasContent(rows[i]) {
				grid = append(grid, rows[i])
				hasData = true
			}
		}
	}
	return grid, hasData && headerWritten
}

func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	return f.GetRows(sheet)
}

func writeGrid(path, sheet string, grid [][]string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, row := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func dropEmptyCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, cell := range row {
		if cell != "" {
			out = append(out, cell)
		}
	}
	return out
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return true
		}
	}
	return false
}
