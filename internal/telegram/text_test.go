package telegram

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"отказ валидации показывается как есть",
			&nlu.TemporalRejectionError{Message: "❌ Это время уже в прошлом."},
			"❌ Это время уже в прошлом.",
		},
		{
			"подсказка о пропущенном поле",
			&nlu.MissingFieldError{Field: "time", Hint: "Укажите время явно."},
			"❌ Укажите время явно.",
		},
		{
			"пустой текст",
			nlu.ErrEmptyInput,
			"❌ Получен пустой текст.\nНапишите, что записать: встречу или еду.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}

	assert.Contains(t, userMessage(nlu.ErrEmptyResponse), "переформулировать")
	assert.Contains(t, userMessage(&nlu.MalformedResponseError{Err: errors.New("x")}), "разобрать ответ")
	assert.Contains(t, userMessage(&nlu.UpstreamError{Service: "gigachat", Status: 503}), "временно недоступен")
	assert.Contains(t, userMessage(errors.New("что-то пошло не так")), "Не удалось обработать")
}

func TestFormatEventCreated(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	minutes := 120
	hours := 2.0
	location := "клиника на Ленина"

	ev := &nlu.ParsedEvent{
		Title:              "Врач",
		Start:              time.Date(2026, 9, 1, 15, 0, 0, 0, loc),
		DurationMinutes:    &minutes,
		DurationHours:      &hours,
		ConfidenceDuration: nlu.ConfidenceHigh,
		Description:        "взять результаты анализов",
		Location:           &location,
	}

	got := formatEventCreated(ev)
	assert.Contains(t, got, "📌 Врач")
	assert.Contains(t, got, "🕐 01.09.2026 15:00 - 17:00")
	assert.Contains(t, got, "📝 взять результаты анализов")
	assert.Contains(t, got, "📍 клиника на Ленина")
	assert.Contains(t, got, "Напоминания: за 24 часа и за 3 часа")
	assert.NotContains(t, got, "низкой уверенностью")
}

func TestFormatEventCreated_Defaults(t *testing.T) {
	ev := &nlu.ParsedEvent{
		Title:              "Созвон",
		Start:              time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		ConfidenceDuration: nlu.ConfidenceLow,
	}

	got := formatEventCreated(ev)
	// без длительности берётся час по умолчанию
	assert.Contains(t, got, "10:00 - 11:00")
	assert.Contains(t, got, "низкой уверенностью")
}

func TestFormatItems(t *testing.T) {
	g := 200
	ml := 250
	qt := "2 шт"

	items := []nlu.FoodItem{
		{Name: "Творог", Grams: &g},
		{Name: "Молоко", Milliliters: &ml},
		{Name: "Яблоко", QtyText: &qt},
		{Name: "Кофе"},
	}
	assert.Equal(t, "Творог (200г), Молоко (250мл), Яблоко (2 шт), Кофе", formatItems(items))
	assert.Equal(t, "не указано", formatItems(nil))
}
