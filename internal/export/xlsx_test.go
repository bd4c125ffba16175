package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
	"github.com/ElKaStar/CalendarAgent/internal/store"
)

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func TestFoodLogsXLSX(t *testing.T) {
	rows := []store.FoodRow{
		{
			EventDate: "2026-08-31",
			MealType:  nlu.MealBreakfast,
			Items: []nlu.FoodItem{
				{Name: "Овсянка", Grams: intPtr(100), QtyText: strPtr("100 грамм")},
				{Name: "Кофе", Milliliters: intPtr(250), QtyText: strPtr("250 мл")},
			},
			RawText: "завтрак овсянка 100 грамм и кофе 250 мл",
		},
		{
			EventDate: "2026-08-30",
			MealType:  nlu.MealUnknown,
			RawText:   "меню что-то непонятное",
		},
	}

	data, err := FoodLogsXLSX(rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	// заголовок, две строки продуктов и одна строка без продуктов
	require.Len(t, got, 4)

	assert.Equal(t, "Дата", got[0][0])
	assert.Equal(t, "Продукт", got[0][2])

	assert.Equal(t, "2026-08-31", got[1][0])
	assert.Equal(t, "Завтрак", got[1][1])
	assert.Equal(t, "Овсянка", got[1][2])
	assert.Equal(t, "100", got[1][4])

	assert.Equal(t, "Кофе", got[2][2])
	assert.Equal(t, "250", got[2][5])

	// запись без продуктов сохраняет исходный текст
	assert.Equal(t, "Не указано", got[3][1])
	assert.Equal(t, "меню что-то непонятное", got[3][6])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "food_2026-08-31.xlsx", FileName("2026-08-31", "2026-08-31"))
	assert.Equal(t, "food_2026-08-01_2026-08-31.xlsx", FileName("2026-08-01", "2026-08-31"))
}
