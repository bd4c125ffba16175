package nlu

import (
	"fmt"
	"log"
	"time"
)

// Темпоральная валидация двух доменов зеркальна: календарь не пускает в
// прошлое, дневник питания — в будущее. Любая внутренняя ошибка валидатора
// (битая таймзона, кривая дата) разрешает запись: валидация — страховка,
// а не основной механизм корректности. Такой исход помечается отдельным
// вердиктом AllowedInternalError.

// CalendarTolerance — допуск для формулировок «прямо сейчас» и расхождения
// часов.
const CalendarTolerance = 120 * time.Second

// ValidateCalendarTime проверяет, что начало события не в прошлом
// (с допуском). Оба момента нормализуются в таймзону пользователя.
func ValidateCalendarTime(start, now time.Time, tz string) ValidationResult {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("валидация календаря: таймзона %q: %v", tz, err)
		return ValidationResult{Verdict: AllowedInternalError}
	}
	start = start.In(loc)
	now = now.In(loc)

	if now.Sub(start) > CalendarTolerance {
		return ValidationResult{
			Verdict: Rejected,
			Message: fmt.Sprintf(
				"❌ Нельзя создавать встречу в прошлом.\n🕒 Указанное время: %s\n✅ Можно: сейчас или в будущем.",
				start.Format("02.01.2006 15:04")),
		}
	}
	return ValidationResult{Verdict: Allowed}
}

// ValidateCalendarDate — вариант для событий на весь день: сравнивается
// только дата.
func ValidateCalendarDate(eventDate string, now time.Time, tz string) ValidationResult {
	event, today, res := normalizeDates(eventDate, now, tz, "календаря")
	if res != nil {
		return *res
	}
	if event.Before(today) {
		return ValidationResult{
			Verdict: Rejected,
			Message: fmt.Sprintf(
				"❌ Нельзя создавать встречу в прошлом.\n📅 Указанная дата: %s\n✅ Можно: сегодня или в будущем.",
				eventDate),
		}
	}
	return ValidationResult{Verdict: Allowed}
}

// ValidateFoodDate проверяет дату записи дневника: будущее запрещено,
// сегодня и любое прошлое — можно.
func ValidateFoodDate(eventDate string, now time.Time, tz string) ValidationResult {
	event, today, res := normalizeDates(eventDate, now, tz, "дневника питания")
	if res != nil {
		return *res
	}
	if event.After(today) {
		return ValidationResult{
			Verdict: Rejected,
			Message: fmt.Sprintf(
				"❌ Нельзя записывать питание будущим числом.\n📅 Указанная дата: %s\n✅ Можно: сегодня или прошлые даты.",
				eventDate),
		}
	}
	return ValidationResult{Verdict: Allowed}
}

func normalizeDates(eventDate string, now time.Time, tz, domain string) (event, today time.Time, failOpen *ValidationResult) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("валидация даты %s: таймзона %q: %v", domain, tz, err)
		return event, today, &ValidationResult{Verdict: AllowedInternalError}
	}
	event, err = time.ParseInLocation("2006-01-02", eventDate, loc)
	if err != nil {
		log.Printf("валидация даты %s: некорректная дата %q: %v", domain, eventDate, err)
		return event, today, &ValidationResult{Verdict: AllowedInternalError}
	}
	n := now.In(loc)
	today = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return event, today, nil
}
