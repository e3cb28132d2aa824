package excel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"droneanalytics/packages/apperrors"
	"droneanalytics/packages/flights"
)

// Заголовки столбцов таблицы выгрузки
const (
	ColumnCenter = "Центр ЕС ОрВД"
	ColumnSHR    = "SHR"
	ColumnDEP    = "DEP"
	ColumnARR    = "ARR"
)

var requiredColumns = []string{ColumnSHR, ColumnDEP, ColumnARR}

// Read читает первый лист книги: первая строка - заголовок, остальные - данные.
// Номер строки в результате совпадает с номером строки в Excel.
func Read(r io.Reader) ([]flights.SourceRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.ErrInvalidFile.WithCause(err)
	}
	if len(data) == 0 {
		return nil, apperrors.ErrEmptyInput
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.ErrInvalidFile.WithCause(err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.ErrEmptyInput
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.ErrInvalidFile.WithCause(err)
	}
	if len(rows) < 2 {
		return nil, apperrors.ErrEmptyInput
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]flights.SourceRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		out = append(out, flights.SourceRow{
			Number: i + 2,
			Center: cell(row, columns[ColumnCenter]),
			SHR:    cell(row, columns[ColumnSHR]),
			DEP:    cell(row, columns[ColumnDEP]),
			ARR:    cell(row, columns[ColumnARR]),
		})
	}
	return out, nil
}

// ReadFile - Read для файла на диске
func ReadFile(path string) ([]flights.SourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}

// mapHeader возвращает индекс столбца по имени; отсутствующий необязательный столбец = -1
func mapHeader(header []string) (map[string]int, error) {
	columns := map[string]int{
		ColumnCenter: -1,
		ColumnSHR:    -1,
		ColumnDEP:    -1,
		ColumnARR:    -1,
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		for column, idx := range columns {
			if idx == -1 && strings.EqualFold(name, column) {
				columns[column] = i
			}
		}
	}

	var missing []string
	for _, column := range requiredColumns {
		if columns[column] == -1 {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.ErrMissingColumns.WithDetails(map[string]any{"missing": missing})
	}
	return columns, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
