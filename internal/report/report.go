// Package report implements the daily append-only CSV report of
// spec.md §4.9/§6: one row per completed packaging run, header written
// exactly once per file. Grounded on lkumar3-iitr-Sensor-Logger's
// views.CSVWriter (buffered writer, mutex held for one row encode);
// Append flushes every row to the file before returning.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

var header = []string{
	"timestamp", "session_id", "part_type", "method", "target", "actual",
	"elapsed_seconds", "rate", "min_area", "max_area", "bg_var_threshold",
	"canny_low", "canny_high",
}

// Row is one completed-run record.
type Row struct {
	Timestamp      time.Time
	PartType       string
	Method         string
	Target         int
	Actual         int
	ElapsedSeconds float64
	MinArea        int
	MaxArea        int
	BGVarThreshold float64
	CannyLow       float64
	CannyHigh      float64
}

func (r Row) rate() float64 {
	if r.ElapsedSeconds <= 0 {
		return 0
	}
	return float64(r.Actual) / r.ElapsedSeconds
}

func (r Row) toCSV(sessionID string) []string {
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		sessionID,
		r.PartType,
		r.Method,
		strconv.Itoa(r.Target),
		strconv.Itoa(r.Actual),
		strconv.FormatFloat(r.ElapsedSeconds, 'f', 3, 64),
		strconv.FormatFloat(r.rate(), 'f', 3, 64),
		strconv.Itoa(r.MinArea),
		strconv.Itoa(r.MaxArea),
		strconv.FormatFloat(r.BGVarThreshold, 'f', 3, 64),
		strconv.FormatFloat(r.CannyLow, 'f', 1, 64),
		strconv.FormatFloat(r.CannyHigh, 'f', 1, 64),
	}
}

// Writer appends Rows to a daily CSV file, writing the header only the
// first time a given day's file is created.
type Writer struct {
	mu        sync.Mutex
	dir       string
	sessionID string

	day  string
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
}

// New creates a report writer rooted at dir, tagging every row with a
// fresh session id.
func New(dir string) *Writer {
	return &Writer{dir: dir, sessionID: uuid.NewString()}
}

// Append writes one row, rolling over to a new day's file (and its
// header) as needed.
func (w *Writer) Append(r Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := r.Timestamp.UTC().Format("2006-01-02")
	if day != w.day {
		if err := w.rollover(day); err != nil {
			return err
		}
	}

	if err := w.csv.Write(r.toCSV(w.sessionID)); err != nil {
		return fmt.Errorf("report: write row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return w.buf.Flush()
}

func (w *Writer) rollover(day string) error {
	if w.file != nil {
		w.buf.Flush()
		w.file.Close()
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("report-%s.csv", day))

	writeHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	cw := csv.NewWriter(bw)
	if writeHeader {
		if err := cw.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("report: write header: %w", err)
		}
		cw.Flush()
	}

	w.day = day
	w.file = f
	w.buf = bw
	w.csv = cw
	return nil
}

// Close flushes and closes the currently open day file, if any.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	w.buf.Flush()
	err := w.file.Close()
	w.file = nil
	return err
}
