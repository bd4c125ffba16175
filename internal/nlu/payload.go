package nlu

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ElKaStar/CalendarAgent/internal/util"
)

// Разбор сырого ответа модели общий для всех движков: каждый движок только
// добывает текст ответа, нормализация и валидация схемы живут здесь.

type eventPayload struct {
	Title              string   `json:"title"`
	Date               string   `json:"date"`
	Time               *string  `json:"time"`
	DurationMinutes    *float64 `json:"duration_minutes"`
	DurationHours      *float64 `json:"duration_hours"`
	ConfidenceDuration string   `json:"confidence_duration"`
	Description        string   `json:"description"`
	Location           *string  `json:"location"`
}

type foodPayload struct {
	Date     string            `json:"date"`
	MealType string            `json:"meal_type"`
	Items    []foodItemPayload `json:"items"`
}

type foodItemPayload struct {
	Name        string   `json:"name"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	Grams       *float64 `json:"grams"`
	Milliliters *float64 `json:"ml"`
	QtyText     *string  `json:"qty_text"`
}

// decodeModelJSON чистит и разбирает ответ модели: срезает ограждения,
// при невалидном JSON ищет сбалансированный объект, затем пытается починить.
// Пустой ответ и пустой объект — отдельный исход (ErrEmptyResponse): обычно
// это значит, что вызвали не тот домен.
func decodeModelJSON(content string, v any) error {
	cleaned := util.StripCodeFences(content)
	if cleaned == "" || cleaned == "{}" {
		return ErrEmptyResponse
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		recovered := false
		if obj, ok := util.ExtractJSONObject(cleaned); ok {
			if json.Unmarshal([]byte(obj), &raw) == nil {
				cleaned = obj
				recovered = true
			}
		}
		if !recovered {
			fixed, rerr := util.RepairJSON(cleaned)
			if rerr != nil {
				return &MalformedResponseError{Payload: content, Err: err}
			}
			if err2 := json.Unmarshal([]byte(fixed), &raw); err2 != nil {
				return &MalformedResponseError{Payload: content, Err: err2}
			}
			cleaned = fixed
		}
	}
	if len(raw) == 0 {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &MalformedResponseError{Payload: content, Err: err}
	}
	return nil
}

// DecodeEventContent превращает текст ответа модели в ParsedEvent.
// title, date и time обязательны: отсутствие каждого — отдельная,
// понятная пользователю ошибка.
func DecodeEventContent(content, rawText string, loc *time.Location) (ParsedEvent, error) {
	var p eventPayload
	if err := decodeModelJSON(content, &p); err != nil {
		return ParsedEvent{}, err
	}

	if strings.TrimSpace(p.Title) == "" {
		return ParsedEvent{}, &MissingFieldError{Field: "title",
			Hint: "Не удалось определить название встречи. Сформулируйте, о чём встреча."}
	}
	if strings.TrimSpace(p.Date) == "" {
		return ParsedEvent{}, &MissingFieldError{Field: "date",
			Hint: "Не удалось определить дату встречи. Укажите дату явно (например, «завтра»)."}
	}
	if p.Time == nil || strings.TrimSpace(*p.Time) == "" {
		return ParsedEvent{}, &MissingFieldError{Field: "time",
			Hint: "Не удалось определить время встречи. Укажите время явно (например, «15:00»)."}
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", p.Date+" "+*p.Time, loc)
	if err != nil {
		return ParsedEvent{}, &MalformedResponseError{Payload: content, Err: err}
	}

	ev := ParsedEvent{
		Title:              util.TitleCase(p.Title),
		Start:              start,
		ConfidenceDuration: p.ConfidenceDuration,
		Description:        strings.TrimSpace(p.Description),
		Location:           p.Location,
		RawText:            rawText,
	}

	// часы и минуты всегда взаимовыводимы
	if p.DurationMinutes != nil {
		m := int(*p.DurationMinutes)
		ev.DurationMinutes = &m
	}
	if p.DurationHours != nil {
		ev.DurationHours = p.DurationHours
	}
	if ev.DurationHours == nil && ev.DurationMinutes != nil {
		h := float64(*ev.DurationMinutes) / 60.0
		ev.DurationHours = &h
	}
	if ev.DurationMinutes == nil && ev.DurationHours != nil {
		m := int(*ev.DurationHours*60 + 0.5)
		ev.DurationMinutes = &m
	}

	if ev.ConfidenceDuration != ConfidenceHigh && ev.ConfidenceDuration != ConfidenceLow {
		ev.ConfidenceDuration = ConfidenceHigh
	}
	return ev, nil
}

// DecodeFoodContent превращает текст ответа модели в ParsedFoodLog.
func DecodeFoodContent(content, rawText string, now time.Time) (ParsedFoodLog, error) {
	var p foodPayload
	if err := decodeModelJSON(content, &p); err != nil {
		return ParsedFoodLog{}, err
	}

	log := ParsedFoodLog{
		EventDate: strings.TrimSpace(p.Date),
		MealType:  MealUnknown,
		Notes:     rawText,
		RawText:   rawText,
		ParseMode: "llm",
	}
	if log.EventDate == "" {
		log.EventDate = now.Format("2006-01-02")
	}
	switch MealType(p.MealType) {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		log.MealType = MealType(p.MealType)
	}

	for _, ip := range p.Items {
		item, ok := normalizeFoodItem(ip)
		if !ok {
			continue
		}
		log.Items = append(log.Items, item)
	}

	log.Confidence = ConfidenceLow
	if len(log.Items) > 0 {
		log.Confidence = ConfidenceHigh
	}
	return log, nil
}

// normalizeFoodItem доводит элемент из ответа модели до инварианта:
// ровно одно из grams/ml, название с заглавной буквы, qty_text заполнен
// при наличии количества.
func normalizeFoodItem(ip foodItemPayload) (FoodItem, bool) {
	name := strings.TrimSpace(ip.Name)
	if name == "" {
		return FoodItem{}, false
	}
	item := FoodItem{
		Name:     util.TitleCase(name),
		Quantity: ip.Quantity,
		Unit:     ip.Unit,
		QtyText:  ip.QtyText,
	}

	if ip.Quantity != nil && ip.Unit != nil {
		unit := strings.ToLower(strings.TrimSpace(*ip.Unit))
		switch unitFamily(normalizeUnit(unit)) {
		case "mass":
			g := int(*ip.Quantity)
			item.Grams = &g
		case "volume":
			ml := int(*ip.Quantity)
			item.Milliliters = &ml
		case "liter":
			ml := int(*ip.Quantity * 1000)
			item.Milliliters = &ml
		}
		if item.QtyText == nil && (item.Grams != nil || item.Milliliters != nil) {
			qt := strconv.FormatFloat(*ip.Quantity, 'f', -1, 64) + " " + unit
			item.QtyText = &qt
		}
	}

	// модель могла заполнить grams/ml напрямую; единица важнее, но если её
	// не было — доверяем готовым полям, соблюдая взаимоисключение
	if item.Grams == nil && item.Milliliters == nil {
		if ip.Grams != nil {
			g := int(*ip.Grams)
			item.Grams = &g
		} else if ip.Milliliters != nil {
			ml := int(*ip.Milliliters)
			item.Milliliters = &ml
		}
	}
	return item, true
}
