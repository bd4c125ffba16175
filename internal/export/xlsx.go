// Package export собирает выгрузку дневника питания в XLSX.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
	"github.com/ElKaStar/CalendarAgent/internal/store"
)

const sheetName = "Дневник питания"

var mealTitles = map[nlu.MealType]string{
	nlu.MealBreakfast: "Завтрак",
	nlu.MealLunch:     "Обед",
	nlu.MealDinner:    "Ужин",
	nlu.MealSnack:     "Перекус",
	nlu.MealUnknown:   "Не указано",
}

// FoodLogsXLSX рендерит записи в книгу: одна строка на продукт, записи без
// продуктов попадают одной строкой с исходным текстом.
func FoodLogsXLSX(rows []store.FoodRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{"Дата", "Приём пищи", "Продукт", "Количество", "Граммы", "Миллилитры", "Исходный текст"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	line := 2
	for _, row := range rows {
		meal := mealTitles[row.MealType]
		if meal == "" {
			meal = string(row.MealType)
		}
		if len(row.Items) == 0 {
			if err := writeLine(f, line, row.EventDate, meal, "", "", nil, nil, row.RawText); err != nil {
				return nil, err
			}
			line++
			continue
		}
		for _, it := range row.Items {
			qty := ""
			if it.QtyText != nil {
				qty = *it.QtyText
			}
			if err := writeLine(f, line, row.EventDate, meal, it.Name, qty, it.Grams, it.Milliliters, row.RawText); err != nil {
				return nil, err
			}
			line++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName строит имя файла выгрузки для диапазона дат.
func FileName(from, to string) string {
	if from == to {
		return fmt.Sprintf("food_%s.xlsx", from)
	}
	return fmt.Sprintf("food_%s_%s.xlsx", from, to)
}

func writeLine(f *excelize.File, line int, values ...any) error {
	col := 1
	for _, v := range values {
		switch t := v.(type) {
		case *int:
			if t == nil {
				col++
				continue
			}
			v = *t
		case string:
			v = strings.TrimSpace(t)
		}
		cell, _ := excelize.CoordinatesToCellName(col, line)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
		col++
	}
	return nil
}
