package nlu

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"
)

// Pipeline связывает нормализацию, маршрутизацию, извлечение и валидацию
// для одного сообщения. Всё состояние — неизменяемые зависимости; обработка
// сообщений полностью независима друг от друга.
type Pipeline struct {
	Service  Service
	Router   *Router
	Rules    *RuleExtractor
	Timezone string
	Location *time.Location
}

func NewPipeline(svc Service, router *Router, rules *RuleExtractor, tz string) (*Pipeline, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Service:  svc,
		Router:   router,
		Rules:    rules,
		Timezone: tz,
		Location: loc,
	}, nil
}

// ClassifyIntent — правиловая классификация нормализованного текста.
func (p *Pipeline) ClassifyIntent(text string) Intent {
	return p.Router.Classify(Normalize(text))
}

// ExtractCalendarEvent извлекает событие через семантический сервис и
// сверяет дату и длительность с детерминированным разбором.
func (p *Pipeline) ExtractCalendarEvent(ctx context.Context, text string, now time.Time) (ParsedEvent, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return ParsedEvent{}, ErrEmptyInput
	}
	ev, err := p.Service.ExtractEvent(ctx, normalized, now.In(p.Location))
	if err != nil {
		return ParsedEvent{}, err
	}
	enrichEvent(&ev, normalized, now.In(p.Location))
	return ev, nil
}

// ExtractFoodLog извлекает запись дневника: сперва семантический сервис,
// при его ошибке — детерминированные правила.
func (p *Pipeline) ExtractFoodLog(ctx context.Context, text string, now time.Time) (ParsedFoodLog, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return ParsedFoodLog{}, ErrEmptyInput
	}
	if looksLikeNoise(normalized) {
		return ParsedFoodLog{}, ErrEmptyInput
	}

	fl, err := p.Service.ExtractFoodLog(ctx, normalized, now.In(p.Location))
	if err != nil {
		log.Printf("извлечение еды через %s не удалось (%v), переходим на правила", p.Service.Name(), err)
		return p.Rules.Parse(normalized, now.In(p.Location))
	}
	return fl, nil
}

// ValidateCalendarTime и ValidateFoodDate — тонкие обёртки с таймзоной
// конвейера.
func (p *Pipeline) ValidateCalendarTime(start, now time.Time) ValidationResult {
	return ValidateCalendarTime(start, now, p.Timezone)
}

func (p *Pipeline) ValidateFoodDate(eventDate string, now time.Time) ValidationResult {
	return ValidateFoodDate(eventDate, now, p.Timezone)
}

// Process обрабатывает сообщение целиком: маршрутизация, извлечение,
// валидация. Пустой ответ модели на календарном пути даёт ровно одну
// попытку перемаршрутизации: повторная классификация через сервис, затем —
// как последнее средство — извлечение еды; при неудаче наружу уходит
// исходная ошибка.
func (p *Pipeline) Process(ctx context.Context, text string, now time.Time) (Outcome, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return Outcome{}, ErrEmptyInput
	}
	now = now.In(p.Location)

	intent := p.Router.Classify(normalized)
	if intent == IntentUnknown {
		// правила не справились: часто это огрехи распознавания речи,
		// даём модели починить текст и пробуем правила ещё раз
		if fixed := Normalize(p.Service.NormalizeSpeech(ctx, normalized)); fixed != "" && fixed != normalized {
			if again := p.Router.Classify(fixed); again != IntentUnknown {
				normalized = fixed
				intent = again
			}
		}
	}
	if intent == IntentUnknown {
		remote, err := p.Service.Classify(ctx, normalized)
		if err != nil {
			log.Printf("семантическая классификация не удалась: %v, по умолчанию календарь", err)
			remote = IntentCalendar
		}
		log.Printf("правила не определили интент, %s решил: %s", p.Service.Name(), remote)
		intent = remote
	}

	if intent == IntentFood {
		return p.foodOutcome(ctx, normalized, now)
	}

	ev, err := p.Service.ExtractEvent(ctx, normalized, now)
	if errors.Is(err, ErrEmptyResponse) {
		log.Printf("пустой ответ модели на календарном пути: %q, перемаршрутизация", normalized)
		reclassified, cerr := p.Service.Classify(ctx, normalized)
		if cerr != nil {
			reclassified = IntentCalendar
		}
		if reclassified == IntentFood {
			return p.foodOutcome(ctx, normalized, now)
		}
		// вердикт снова «календарь», но календарный путь уже дал пустой
		// ответ — последняя попытка через дневник питания
		if out, ferr := p.foodOutcome(ctx, normalized, now); ferr == nil {
			return out, nil
		}
		return Outcome{}, err
	}
	if err != nil {
		return Outcome{}, err
	}
	enrichEvent(&ev, normalized, now)

	if res := p.ValidateCalendarTime(ev.Start, now); !res.OK() {
		return Outcome{}, &TemporalRejectionError{Message: res.Message}
	}
	return Outcome{Intent: IntentCalendar, Event: &ev}, nil
}

func (p *Pipeline) foodOutcome(ctx context.Context, normalized string, now time.Time) (Outcome, error) {
	fl, err := p.ExtractFoodLog(ctx, normalized, now)
	if err != nil {
		return Outcome{}, err
	}
	if res := p.ValidateFoodDate(fl.EventDate, now); !res.OK() {
		return Outcome{}, &TemporalRejectionError{Message: res.Message}
	}
	return Outcome{Intent: IntentFood, Food: &fl}, nil
}

// enrichEvent сверяет ответ модели с детерминированным разбором того же
// текста. Известный сбой: модель возвращает дату из примера промпта вместо
// вычисленной, поэтому при относительном маркере дня дата берётся из правил,
// время остаётся от модели. Правила также заполняют пропущенную длительность
// и понижают уверенность при расхождении.
func enrichEvent(ev *ParsedEvent, normalized string, now time.Time) {
	lower := strings.ToLower(normalized)

	if hasRelativeDay(lower) {
		r := Resolve(lower, now)
		if !sameDate(r.Start, ev.Start) {
			ev.Start = time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(),
				ev.Start.Hour(), ev.Start.Minute(), 0, 0, ev.Start.Location())
		}
	}

	mins, hours, conf := ResolveDuration(lower)
	switch {
	case ev.DurationMinutes == nil && mins != nil:
		ev.DurationMinutes = mins
		ev.DurationHours = hours
		if conf == ConfidenceLow {
			ev.ConfidenceDuration = ConfidenceLow
		}
	case ev.DurationMinutes != nil && mins != nil && *mins != *ev.DurationMinutes:
		ev.ConfidenceDuration = ConfidenceLow
	}
}

var nonWordRx = regexp.MustCompile(`[^\pL\pN\s]+`)

// looksLikeNoise ловит мусор от распознавания речи: длинный текст из одного
// повторяющегося слова.
func looksLikeNoise(text string) bool {
	cleaned := nonWordRx.ReplaceAllString(strings.ToLower(text), " ")
	words := strings.Fields(cleaned)
	if len(words) < 4 {
		return false
	}
	counts := map[string]int{}
	maxCount := 0
	for _, w := range words {
		counts[w]++
		if counts[w] > maxCount {
			maxCount = counts[w]
		}
	}
	return len(counts) <= 2 && maxCount >= 3
}
