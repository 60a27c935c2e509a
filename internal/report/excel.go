package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"myclassmate-backend/internal/attendance"
	"myclassmate-backend/internal/thaidate"
)

const (
	sheetAttendance    = "Attendance"
	sheetParticipation = "Participation"
)

// Export renders the course report as a two sheet workbook: an attendance
// matrix (students x sessions plus an absence rate column) and a
// participation matrix (summed scores per student per session).
func (s *Service) Export(ctx context.Context, courseID uint64) ([]byte, string, error) {
	data, err := s.store.Load(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	rep := buildReport(data, s.now())

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetAttendance)
	if _, err := f.NewSheet(sheetParticipation); err != nil {
		return nil, "", errInternal("create participation sheet: " + err.Error())
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, "", errInternal("create header style: " + err.Error())
	}

	if err := writeAttendanceSheet(f, rep, headerStyle); err != nil {
		return nil, "", err
	}
	if err := writeParticipationSheet(f, rep, data, headerStyle); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", &APIError{Code: CodeExportFailed, Message: "write workbook: " + err.Error()}
	}
	filename := fmt.Sprintf("report_%s.xlsx", data.Course.Code)
	return buf.Bytes(), filename, nil
}

func writeAttendanceSheet(f *excelize.File, rep Report, headerStyle int) error {
	headers := []string{"รหัสผู้เรียน", "ชื่อ-สกุล (ไทย)", "ชื่อ-สกุล (อังกฤษ)"}
	for _, sr := range rep.Sessions {
		headers = append(headers, thaidate.SessionHeader(sr.Session.Date))
	}
	headers = append(headers, "อัตราการขาดเรียน (%)")
	if err := writeHeaderRow(f, sheetAttendance, headers, headerStyle); err != nil {
		return err
	}

	if len(rep.Sessions) == 0 {
		return nil
	}

	// rows follow roster order; every session report carries the full roster
	for i, entry := range rep.Sessions[0].Attendances {
		row := i + 2
		values := []interface{}{entry.StudentNo, entry.NameTh, entry.NameEn}
		absent := 0
		for _, sr := range rep.Sessions {
			e := sr.Attendances[i]
			if e.Status == nil {
				values = append(values, "-")
				continue
			}
			values = append(values, string(*e.Status))
			if *e.Status == attendance.StatusAbsent {
				absent++
			}
		}
		// the rate divides by every session in the report, future ones
		// included
		values = append(values, absentRateText(absent, len(rep.Sessions)))
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return errInternal("cell name: " + err.Error())
		}
		if err := f.SetSheetRow(sheetAttendance, cell, &values); err != nil {
			return errInternal("write attendance row: " + err.Error())
		}
	}
	return finishSheet(f, sheetAttendance, len(rep.Sessions)+4)
}

func writeParticipationSheet(f *excelize.File, rep Report, data Data, headerStyle int) error {
	headers := []string{"รหัสผู้เรียน", "ชื่อ-สกุล (ไทย)", "ชื่อ-สกุล (อังกฤษ)"}
	for _, sr := range rep.Sessions {
		headers = append(headers, thaidate.SessionHeader(sr.Session.Date))
	}
	headers = append(headers, "จำนวนครั้ง", "คะแนนรวม")
	if err := writeHeaderRow(f, sheetParticipation, headers, headerStyle); err != nil {
		return err
	}

	// per-(student, session) score sums plus course-wide tallies; unscored
	// bids count with a score of 0
	type key struct {
		student uint64
		session uint64
	}
	sums := make(map[key]int)
	hasBid := make(map[key]bool)
	count := make(map[uint64]int)
	total := make(map[uint64]int)
	for _, row := range data.Participation {
		if row.StudentID == 0 {
			continue
		}
		k := key{row.StudentID, row.SessionID}
		sums[k] += row.Score
		hasBid[k] = true
		count[row.StudentID]++
		total[row.StudentID] += row.Score
	}

	for i, st := range data.Roster {
		row := i + 2
		values := []interface{}{st.StudentNo, st.NameTh, st.NameEn}
		for _, sr := range rep.Sessions {
			k := key{st.StudentID, sr.Session.ID}
			if hasBid[k] {
				values = append(values, sums[k])
			} else {
				values = append(values, "-")
			}
		}
		values = append(values, count[st.StudentID], total[st.StudentID])
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return errInternal("cell name: " + err.Error())
		}
		if err := f.SetSheetRow(sheetParticipation, cell, &values); err != nil {
			return errInternal("write participation row: " + err.Error())
		}
	}
	return finishSheet(f, sheetParticipation, len(rep.Sessions)+5)
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return errInternal("cell name: " + err.Error())
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errInternal("write header: " + err.Error())
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return errInternal("style header: " + err.Error())
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return errInternal("set col width: " + err.Error())
	}
	if err := f.SetColWidth(sheet, "B", "C", 26); err != nil {
		return errInternal("set col width: " + err.Error())
	}
	return nil
}

func finishSheet(f *excelize.File, sheet string, lastCol int) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, XSplit: 3, YSplit: 1, TopLeftCell: "D2", ActivePane: "bottomRight",
	}); err != nil {
		return errInternal("freeze panes: " + err.Error())
	}
	end, err := excelize.CoordinatesToCellName(lastCol, 1)
	if err != nil {
		return errInternal("cell name: " + err.Error())
	}
	if err := f.AutoFilter(sheet, "A1:"+end, nil); err != nil {
		return errInternal("autofilter: " + err.Error())
	}
	return nil
}
