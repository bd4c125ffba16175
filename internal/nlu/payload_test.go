package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEventContent(t *testing.T) {
	content := `{"title": "маникюр", "date": "2026-09-01", "time": "15:00",
		"duration_minutes": 120, "duration_hours": null, "confidence_duration": "high",
		"description": "", "location": null}`

	ev, err := DecodeEventContent(content, "запиши меня завтра на маникюр", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "Маникюр", ev.Title)
	assert.Equal(t, "2026-09-01 15:00", ev.Start.Format("2006-01-02 15:04"))
	require.NotNil(t, ev.DurationMinutes)
	assert.Equal(t, 120, *ev.DurationMinutes)
	// часы выводятся из минут
	require.NotNil(t, ev.DurationHours)
	assert.InDelta(t, 2.0, *ev.DurationHours, 0.001)
	assert.Equal(t, ConfidenceHigh, ev.ConfidenceDuration)
	assert.Equal(t, "запиши меня завтра на маникюр", ev.RawText)
}

func TestDecodeEventContent_HoursToMinutes(t *testing.T) {
	content := `{"title": "Встреча", "date": "2026-09-01", "time": "10:00",
		"duration_minutes": null, "duration_hours": 1.5, "confidence_duration": "high",
		"description": "", "location": "online"}`

	ev, err := DecodeEventContent(content, "", time.UTC)
	require.NoError(t, err)
	require.NotNil(t, ev.DurationMinutes)
	assert.Equal(t, 90, *ev.DurationMinutes)
	require.NotNil(t, ev.Location)
	assert.Equal(t, "online", *ev.Location)
}

func TestDecodeEventContent_Fenced(t *testing.T) {
	content := "```json\n{\"title\": \"Врач\", \"date\": \"2026-09-01\", \"time\": \"11:00\", \"confidence_duration\": \"low\", \"description\": \"\"}\n```"
	ev, err := DecodeEventContent(content, "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Врач", ev.Title)
	assert.Equal(t, ConfidenceLow, ev.ConfidenceDuration)
}

func TestDecodeEventContent_SurroundingProse(t *testing.T) {
	content := `Вот результат: {"title": "Созвон", "date": "2026-09-02", "time": "10:00", "confidence_duration": "high", "description": ""} — готово.`
	ev, err := DecodeEventContent(content, "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Созвон", ev.Title)
}

func TestDecodeEventContent_EmptyResponse(t *testing.T) {
	for _, content := range []string{"", "   ", "{}", "```json\n{}\n```"} {
		_, err := DecodeEventContent(content, "", time.UTC)
		assert.ErrorIs(t, err, ErrEmptyResponse, "content=%q", content)
	}
}

func TestDecodeEventContent_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"нет названия", `{"date": "2026-09-01", "time": "15:00"}`, "title"},
		{"нет даты", `{"title": "Встреча", "time": "15:00"}`, "date"},
		{"нет времени", `{"title": "Встреча", "date": "2026-09-01"}`, "time"},
		{"время null", `{"title": "Встреча", "date": "2026-09-01", "time": null}`, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEventContent(tt.content, "", time.UTC)
			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
			assert.NotEmpty(t, missing.Hint)
		})
	}
}

func TestDecodeEventContent_Malformed(t *testing.T) {
	_, err := DecodeEventContent("это вообще не JSON ни разу", "", time.UTC)
	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestDecodeFoodContent(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	content := `{"date": "2026-08-31", "meal_type": "lunch", "items": [
		{"name": "борщ", "quantity": 300, "unit": "грамм"},
		{"name": "хлеб"}
	]}`

	fl, err := DecodeFoodContent(content, "обед борщ 300 грамм и хлеб", now)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-31", fl.EventDate)
	assert.Equal(t, MealLunch, fl.MealType)
	assert.Equal(t, ConfidenceHigh, fl.Confidence)
	assert.Equal(t, "llm", fl.ParseMode)

	require.Len(t, fl.Items, 2)
	assert.Equal(t, "Борщ", fl.Items[0].Name)
	require.NotNil(t, fl.Items[0].Grams)
	assert.Equal(t, 300, *fl.Items[0].Grams)
	require.NotNil(t, fl.Items[0].QtyText)
	assert.Equal(t, "300 грамм", *fl.Items[0].QtyText)
	assert.Equal(t, "Хлеб", fl.Items[1].Name)
	assert.Nil(t, fl.Items[1].Grams)
	assert.Nil(t, fl.Items[1].Milliliters)
}

func TestDecodeFoodContent_Defaults(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	// дата по умолчанию — сегодня, неизвестный приём пищи — unknown
	fl, err := DecodeFoodContent(`{"meal_type": "бранч", "items": [{"name": "кофе"}]}`, "", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", fl.EventDate)
	assert.Equal(t, MealUnknown, fl.MealType)

	// пустой список продуктов — низкая уверенность
	fl, err = DecodeFoodContent(`{"date": "2026-08-31", "meal_type": "unknown", "items": []}`, "", now)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceLow, fl.Confidence)
}

func TestDecodeFoodContent_UnitConversion(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	content := `{"date": "2026-08-31", "meal_type": "unknown", "items": [
		{"name": "молоко", "quantity": 250, "unit": "мл"},
		{"name": "вода", "quantity": 2, "unit": "л"},
		{"name": "овсянка", "grams": 100}
	]}`

	fl, err := DecodeFoodContent(content, "", now)
	require.NoError(t, err)
	require.Len(t, fl.Items, 3)

	require.NotNil(t, fl.Items[0].Milliliters)
	assert.Equal(t, 250, *fl.Items[0].Milliliters)
	assert.Nil(t, fl.Items[0].Grams)

	// литры переводятся в миллилитры
	require.NotNil(t, fl.Items[1].Milliliters)
	assert.Equal(t, 2000, *fl.Items[1].Milliliters)

	// готовые grams без единицы берутся как есть
	require.NotNil(t, fl.Items[2].Grams)
	assert.Equal(t, 100, *fl.Items[2].Grams)
	assert.Nil(t, fl.Items[2].Milliliters)
}

func TestDecodeFoodContent_DropsNamelessItems(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	content := `{"date": "2026-08-31", "meal_type": "unknown", "items": [
		{"name": "  ", "quantity": 100, "unit": "грамм"},
		{"name": "творог", "quantity": 200, "unit": "грамм"}
	]}`

	fl, err := DecodeFoodContent(content, "", now)
	require.NoError(t, err)
	require.Len(t, fl.Items, 1)
	assert.Equal(t, "Творог", fl.Items[0].Name)
}
