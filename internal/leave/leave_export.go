package leave

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"concord-desk/internal/shared/apperror"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
)

// exportGroup collapses concurrent export requests for the same month into a
// single workbook build.
var exportGroup singleflight.Group

var exportHeaders = []string{
	"Seq", "Employee", "Type", "Reason", "From", "To",
	"Days Off", "Hours", "Resume On", "Status", "Stage", "Description",
}

func (s *service) ExportMonth(ctx context.Context, year int, month time.Month) ([]byte, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	v, err, _ := exportGroup.Do(key, func() (any, error) {
		return s.buildMonthWorkbook(ctx, year, month)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *service) buildMonthWorkbook(ctx context.Context, year int, month time.Month) ([]byte, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	leaves, err := s.repo.FindByMonth(ctx, from, to)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	employees, err := s.employees.FindAll(ctx)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	names := make(map[string]string, len(employees))
	for i := range employees {
		names[employees[i].ID.String()] = employees[i].DisplayName
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := from.Format("Jan 2006")
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, l := range leaves {
		name := names[l.EmployeeID]
		if name == "" {
			name = l.EmployeeID
		}
		days := ""
		if l.DaysOff.Valid {
			days = l.DaysOff.Decimal.String()
		}
		hours := ""
		if l.OffDutyHours.Valid {
			hours = l.OffDutyHours.Decimal.String()
		}
		resume := ""
		if l.ResumeOfficeOn != nil {
			resume = FormatDate(*l.ResumeOfficeOn)
		}

		values := []any{
			l.Seq, name, string(l.LeaveType), string(l.Reason),
			FormatDate(l.DateFrom), FormatDate(l.DateTo),
			days, hours, resume, string(l.Status), string(l.Stage), l.Description,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
