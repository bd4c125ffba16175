// Package nlu превращает свободный русский текст (в том числе расшифровку
// голосовых сообщений) в структурированные записи: событие календаря или
// запись дневника питания.
package nlu

import "time"

// Intent — категория сообщения после классификации.
type Intent string

const (
	IntentFood     Intent = "food"
	IntentCalendar Intent = "calendar"
	IntentUnknown  Intent = "unknown"
)

// MealType — тип приёма пищи.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealUnknown   MealType = "unknown"
)

// Confidence уверенности извлечённого поля.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// ParsedEvent — распознанное календарное событие. Создаётся один раз за
// обращение к модели и дальше не мутируется.
type ParsedEvent struct {
	Title              string
	Start              time.Time
	DurationMinutes    *int
	DurationHours      *float64
	ConfidenceDuration string // "high" | "low"
	Description        string
	Location           *string
	RawText            string
}

// FoodItem — один продукт из записи дневника.
// Инвариант: Grams и Milliliters не заполняются одновременно.
type FoodItem struct {
	Name        string   `json:"name"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	Grams       *int     `json:"grams"`
	Milliliters *int     `json:"ml"`
	QtyText     *string  `json:"qty_text"`
}

// ParsedFoodLog — распознанная запись дневника питания.
type ParsedFoodLog struct {
	EventDate  string // YYYY-MM-DD
	MealType   MealType
	Items      []FoodItem
	Confidence string // "high" если items непустой
	Notes      string
	RawText    string
	ParseMode  string // "llm" | "rules", кто извлёк запись
}

// Verdict — исход темпоральной валидации. Внутренняя ошибка валидатора
// разрешает запись (fail open), но отражается отдельным вердиктом, чтобы
// этот путь был проверяем в тестах.
type Verdict int

const (
	Allowed Verdict = iota
	AllowedInternalError
	Rejected
)

// ValidationResult — чистый результат валидации, без побочных эффектов.
// Message заполняется только при Rejected и показывается пользователю как есть.
type ValidationResult struct {
	Verdict Verdict
	Message string
}

func (r ValidationResult) OK() bool { return r.Verdict != Rejected }

// Outcome — итог обработки одного сообщения: ровно одно из полей Event/Food.
type Outcome struct {
	Intent Intent
	Event  *ParsedEvent
	Food   *ParsedFoodLog
}
