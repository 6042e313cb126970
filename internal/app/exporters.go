package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ICS metadata.
const (
	ICSProductID = "-//Workshop Planner//Session Calendar//EN"
	icsTimestamp = "20060102T150405"
)

// writeICSEvent emits one timed VEVENT. The UID is derived from the
// session id so calendar apps can track updates across exports.
func writeICSEvent(w http.ResponseWriter, e CalendarEvent) {
	uid := fmt.Sprintf("session-%d@workshop-planner", e.ID)

	fmt.Fprintln(w, "BEGIN:VEVENT")
	fmt.Fprintf(w, "UID:%s\n", uid)
	fmt.Fprintf(w, "DTSTAMP:%s\n", time.Now().UTC().Format(icsTimestamp+"Z"))
	fmt.Fprintf(w, "DTSTART:%s\n", e.Start.Format(icsTimestamp))
	fmt.Fprintf(w, "DTEND:%s\n", e.End.Format(icsTimestamp))
	fmt.Fprintf(w, "SUMMARY:%s\n", e.Title)
	if e.Session.Notes != "" {
		fmt.Fprintf(w, "DESCRIPTION:%s\n", e.Session.Notes)
	}
	fmt.Fprintln(w, "END:VEVENT")
}

// GenerateICS writes the session calendar as a downloadable ICS file.
func GenerateICS(w http.ResponseWriter, events []CalendarEvent, filename string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintln(w, "X-WR-CALNAME:Workshop Sessions")
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")

	for _, event := range events {
		writeICSEvent(w, event)
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}

// GenerateSubscriptionICS writes the session calendar as a subscription
// feed. Unlike GenerateICS this serves inline content (no attachment
// header) and carries METHOD:PUBLISH plus a refresh hint, which is what
// calendar apps expect from a subscribed URL.
func GenerateSubscriptionICS(w http.ResponseWriter, events []CalendarEvent) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintln(w, "METHOD:PUBLISH")
	fmt.Fprintln(w, "X-WR-CALNAME:Workshop Sessions")
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")
	fmt.Fprintln(w, "X-PUBLISHED-TTL:PT1H")

	for _, event := range events {
		writeICSEvent(w, event)
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}

// GenerateCSV writes the resolved session rows as a CSV download.
func GenerateCSV(w http.ResponseWriter, rows []SessionRow, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Date", "Start", "End", "Workshop", "Educator", "Class", "Notes"})
	for _, row := range rows {
		_ = cw.Write([]string{row.Date, row.StartTime, row.EndTime, row.Workshop, row.Educator, row.Class, row.Notes})
	}
	cw.Flush()
}

// GenerateSessionsJSON writes the resolved session rows as a JSON download.
func GenerateSessionsJSON(w http.ResponseWriter, rows []SessionRow, filename string, log *zap.SugaredLogger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := json.NewEncoder(w).Encode(map[string]any{"sessions": rows}); err != nil {
		log.Errorw("failed to encode json export", "error", err)
	}
}

// GenerateBackupJSON offers the whole planner document as a download,
// suitable for re-import.
func GenerateBackupJSON(w http.ResponseWriter, data Data, filename string, log *zap.SugaredLogger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		log.Errorw("failed to encode backup export", "error", err)
	}
}

// GenerateXLSX writes a two-sheet workbook: the session list and the
// per-educator hour totals.
func GenerateXLSX(w http.ResponseWriter, rows []SessionRow, report []EducatorReportItem, filename string) error {
	f := excelize.NewFile()

	const sessionSheet = "Sessions"
	index, err := f.NewSheet(sessionSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	headers := []string{"Date", "Start", "End", "Workshop", "Educator", "Class", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sessionSheet, cell, header)
	}
	for i, row := range rows {
		line := strconv.Itoa(i + 2)
		_ = f.SetCellValue(sessionSheet, "A"+line, row.Date)
		_ = f.SetCellValue(sessionSheet, "B"+line, row.StartTime)
		_ = f.SetCellValue(sessionSheet, "C"+line, row.EndTime)
		_ = f.SetCellValue(sessionSheet, "D"+line, row.Workshop)
		_ = f.SetCellValue(sessionSheet, "E"+line, row.Educator)
		_ = f.SetCellValue(sessionSheet, "F"+line, row.Class)
		_ = f.SetCellValue(sessionSheet, "G"+line, row.Notes)
	}

	const hoursSheet = "Educator Hours"
	if _, err := f.NewSheet(hoursSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	for i, header := range []string{"Educator", "Hours", "Sessions", "Workshops"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(hoursSheet, cell, header)
	}
	for i, item := range report {
		line := strconv.Itoa(i + 2)
		_ = f.SetCellValue(hoursSheet, "A"+line, item.Educator)
		_ = f.SetCellValue(hoursSheet, "B"+line, item.Hours)
		_ = f.SetCellValue(hoursSheet, "C"+line, item.Sessions)
		_ = f.SetCellValue(hoursSheet, "D"+line, item.Workshops)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
