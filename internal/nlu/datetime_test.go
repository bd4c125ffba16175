package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// опорный момент: понедельник 31 августа 2026, 10:00 UTC
func refMorning() time.Time {
	return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
}

func refEvening() time.Time {
	return time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
}

func TestResolve_RelativeDays(t *testing.T) {
	tests := []struct {
		text     string
		wantDate string
		wantTime string
	}{
		{"завтра в 15:00 встреча", "2026-09-01", "15:00"},
		{"послезавтра в 10:00 созвон", "2026-09-02", "10:00"},
		{"сегодня в 18:30 ужин", "2026-08-31", "18:30"},
		{"через 3 дня в 12:00 отчёт", "2026-09-03", "12:00"},
		{"через неделю планёрка в 9:00", "2026-09-07", "09:00"},
		{"через 2 недели в 14:00", "2026-09-14", "14:00"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Resolve(tt.text, refMorning())
			require.True(t, got.HasTime)
			assert.Equal(t, tt.wantDate, got.Start.Format("2006-01-02"))
			assert.Equal(t, tt.wantTime, got.Start.Format("15:04"))
		})
	}
}

func TestResolve_ExplicitDateWins(t *testing.T) {
	got := Resolve("завтра 2026-12-31 в 10:00", refMorning())
	assert.Equal(t, "2026-12-31", got.Start.Format("2006-01-02"))
}

func TestResolve_Weekday(t *testing.T) {
	// опорный день — понедельник
	got := Resolve("в пятницу в 18:00 ужин с друзьями", refMorning())
	assert.Equal(t, "2026-09-04", got.Start.Format("2006-01-02"))
	assert.Equal(t, "18:00", got.Start.Format("15:04"))

	// сегодняшний день недели с ещё не прошедшим временем остаётся сегодня
	got = Resolve("в понедельник в 15:00", refMorning())
	assert.Equal(t, "2026-08-31", got.Start.Format("2006-01-02"))

	// время уже прошло — переносим на следующую неделю
	got = Resolve("в понедельник в 9:00", refMorning())
	assert.Equal(t, "2026-09-07", got.Start.Format("2006-01-02"))
}

func TestResolve_EveningHeuristic(t *testing.T) {
	// вечером голый час 1-11 означает вечер
	got := Resolve("завтра в 11 часов встреча", refEvening())
	require.True(t, got.HasTime)
	assert.Equal(t, "23:00", got.Start.Format("15:04"))

	// утром тот же текст остаётся утренним
	got = Resolve("завтра в 11 часов встреча", refMorning())
	assert.Equal(t, "11:00", got.Start.Format("15:04"))

	// явное "утра" сильнее вечерней эвристики
	got = Resolve("завтра в 11:00 утра встреча", refEvening())
	assert.Equal(t, "11:00", got.Start.Format("15:04"))

	// явное "вечера" работает и утром
	got = Resolve("в 11 часов вечера встреча", refMorning())
	assert.Equal(t, "23:00", got.Start.Format("15:04"))

	// запись HH.MM — явная 24-часовая, эвристика не применяется
	got = Resolve("сегодня на 11.00 маникюр", refEvening())
	assert.Equal(t, "11:00", got.Start.Format("15:04"))
}

func TestResolve_DayParts(t *testing.T) {
	got := Resolve("завтра на маникюр на 3 часа дня", refMorning())
	require.True(t, got.HasTime)
	assert.Equal(t, "15:00", got.Start.Format("15:04"))
	// "на 3 часа дня" — время начала, не длительность
	assert.Nil(t, got.DurationMinutes)

	got = Resolve("завтра в 3 часа утра рейс", refEvening())
	assert.Equal(t, "03:00", got.Start.Format("15:04"))

	got = Resolve("встреча в полдень", refMorning())
	assert.Equal(t, "12:00", got.Start.Format("15:04"))
}

func TestResolveDuration(t *testing.T) {
	mins, hours, conf := ResolveDuration("завтра на маникюр в 14:00, продолжительность 2 часа")
	require.NotNil(t, mins)
	assert.Equal(t, 120, *mins)
	assert.InDelta(t, 2.0, *hours, 0.001)
	assert.Equal(t, ConfidenceHigh, conf)

	mins, _, conf = ResolveDuration("созвон на 30 минут")
	require.NotNil(t, mins)
	assert.Equal(t, 30, *mins)
	assert.Equal(t, ConfidenceHigh, conf)

	mins, _, conf = ResolveDuration("планёрка с 9:00 до 10:30")
	require.NotNil(t, mins)
	assert.Equal(t, 90, *mins)
	assert.Equal(t, ConfidenceHigh, conf)

	mins, _, _ = ResolveDuration("встреча на полтора часа")
	require.NotNil(t, mins)
	assert.Equal(t, 90, *mins)
}

func TestResolveDuration_LowConfidence(t *testing.T) {
	// слова о длительности есть, числа нет
	mins, hours, conf := ResolveDuration("маникюр, продолжительность начнём всё для кон")
	assert.Nil(t, mins)
	assert.Nil(t, hours)
	assert.Equal(t, ConfidenceLow, conf)

	// противоречивые кандидаты
	mins, _, conf = ResolveDuration("в 13:00, продолжительность 2 часа, на 3 часа")
	require.NotNil(t, mins)
	assert.Equal(t, 120, *mins)
	assert.Equal(t, ConfidenceLow, conf)

	// длительность не упомянута вовсе — high с пустым значением
	mins, _, conf = ResolveDuration("завтра в 15:00 встреча")
	assert.Nil(t, mins)
	assert.Equal(t, ConfidenceHigh, conf)
}

func TestDisambiguateHour(t *testing.T) {
	assert.Equal(t, 15, DisambiguateHour(3, PartDay, 10))
	assert.Equal(t, 3, DisambiguateHour(3, PartMorning, 20))
	assert.Equal(t, 23, DisambiguateHour(11, PartEvening, 10))
	assert.Equal(t, 23, DisambiguateHour(11, PartNight, 10))
	assert.Equal(t, 3, DisambiguateHour(3, PartNight, 10))
	assert.Equal(t, 0, DisambiguateHour(12, PartNight, 10))
	assert.Equal(t, 23, DisambiguateHour(11, PartNone, 20))
	assert.Equal(t, 11, DisambiguateHour(11, PartNone, 10))
	assert.Equal(t, 18, DisambiguateHour(18, PartNone, 20))
}
