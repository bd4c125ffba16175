package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService — управляемый семантический сервис для проверки конвейера.
type stubService struct {
	intent    Intent
	intentErr error
	event     ParsedEvent
	eventErr  error
	food      ParsedFoodLog
	foodErr   error
	speech    string // ответ NormalizeSpeech; пусто — вернуть вход как есть

	classifyCalls int
}

func (s *stubService) Name() string { return "stub" }

func (s *stubService) Classify(_ context.Context, _ string) (Intent, error) {
	s.classifyCalls++
	return s.intent, s.intentErr
}

func (s *stubService) ExtractEvent(_ context.Context, _ string, _ time.Time) (ParsedEvent, error) {
	return s.event, s.eventErr
}

func (s *stubService) ExtractFoodLog(_ context.Context, _ string, _ time.Time) (ParsedFoodLog, error) {
	return s.food, s.foodErr
}

func (s *stubService) NormalizeSpeech(_ context.Context, text string) string {
	if s.speech != "" {
		return s.speech
	}
	return text
}

func testPipeline(t *testing.T, svc Service) *Pipeline {
	t.Helper()
	p, err := NewPipeline(svc, NewRouter([]string{"меню", "еда"}), NewRuleExtractor([]string{"меню", "еда"}), "UTC")
	require.NoError(t, err)
	return p
}

func stubFoodLog(date string) ParsedFoodLog {
	return ParsedFoodLog{
		EventDate:  date,
		MealType:   MealUnknown,
		Items:      []FoodItem{{Name: "Творог"}},
		Confidence: ConfidenceHigh,
		ParseMode:  "llm",
	}
}

func TestProcess_EmptyInput(t *testing.T) {
	p := testPipeline(t, &stubService{})
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := p.Process(context.Background(), text, refMorning())
		assert.ErrorIs(t, err, ErrEmptyInput, "text=%q", text)
	}
}

func TestProcess_FoodByCodeWord(t *testing.T) {
	svc := &stubService{food: stubFoodLog("2026-08-31")}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "меню творог 200 грамм", refMorning())
	require.NoError(t, err)

	assert.Equal(t, IntentFood, out.Intent)
	require.NotNil(t, out.Food)
	assert.Nil(t, out.Event)
	assert.Equal(t, "llm", out.Food.ParseMode)
	// маршрут решили правила, к удалённой классификации не ходили
	assert.Zero(t, svc.classifyCalls)
}

func TestProcess_CalendarSuccess(t *testing.T) {
	svc := &stubService{event: ParsedEvent{
		Title: "Встреча", Start: refMorning().Add(2 * time.Hour), ConfidenceDuration: ConfidenceHigh,
	}}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "завтра в 15:00 встреча", refMorning())
	require.NoError(t, err)

	assert.Equal(t, IntentCalendar, out.Intent)
	require.NotNil(t, out.Event)
	assert.Nil(t, out.Food)
	assert.Equal(t, "Встреча", out.Event.Title)
	// модель вернула сегодняшнюю дату, текст говорит «завтра»: дата чинится
	// по правилам, время модели сохраняется
	assert.Equal(t, "2026-09-01 12:00", out.Event.Start.Format("2006-01-02 15:04"))
}

func TestProcess_CalendarDurationBackfill(t *testing.T) {
	svc := &stubService{event: ParsedEvent{
		Title: "Встреча", Start: refMorning().Add(5 * time.Hour), ConfidenceDuration: ConfidenceHigh,
	}}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "сегодня в 15:00 встреча на 2 часа", refMorning())
	require.NoError(t, err)

	// модель не вернула длительность, правила достают её из текста
	require.NotNil(t, out.Event.DurationMinutes)
	assert.Equal(t, 120, *out.Event.DurationMinutes)
	assert.Equal(t, ConfidenceHigh, out.Event.ConfidenceDuration)
}

func TestProcess_CalendarPastRejected(t *testing.T) {
	svc := &stubService{event: ParsedEvent{Title: "Встреча", Start: refMorning().Add(-time.Hour)}}
	p := testPipeline(t, svc)

	_, err := p.Process(context.Background(), "в 15:00 встреча с Катей", refMorning())
	var rejected *TemporalRejectionError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Message, "в прошлом")
}

func TestProcess_RerouteOnEmptyResponse(t *testing.T) {
	// пустой ответ на календарном пути, повторная классификация говорит «еда»
	svc := &stubService{
		eventErr: ErrEmptyResponse,
		intent:   IntentFood,
		food:     stubFoodLog("2026-08-31"),
	}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "запиши перекус творожок", refMorning())
	require.NoError(t, err)
	assert.Equal(t, IntentFood, out.Intent)
	require.NotNil(t, out.Food)
	assert.Equal(t, 1, svc.classifyCalls)
}

func TestProcess_RerouteLastResort(t *testing.T) {
	// повторная классификация настаивает на календаре, но дневник питания
	// всё же вытаскивает запись
	svc := &stubService{
		eventErr: ErrEmptyResponse,
		intent:   IntentCalendar,
		food:     stubFoodLog("2026-08-31"),
	}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "завтра в 15:00 встреча", refMorning())
	require.NoError(t, err)
	assert.Equal(t, IntentFood, out.Intent)
}

func TestProcess_RerouteSurfacesOriginalError(t *testing.T) {
	// последняя попытка тоже не удалась: наружу уходит исходный пустой ответ
	svc := &stubService{
		eventErr: ErrEmptyResponse,
		intent:   IntentCalendar,
		food:     stubFoodLog("2026-09-05"), // будущая дата не проходит валидацию
	}
	p := testPipeline(t, svc)

	_, err := p.Process(context.Background(), "завтра в 15:00 встреча", refMorning())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestProcess_FoodRulesFallback(t *testing.T) {
	svc := &stubService{foodErr: errors.New("сервис недоступен")}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "меню творог 200 грамм", refMorning())
	require.NoError(t, err)

	require.NotNil(t, out.Food)
	assert.Equal(t, "rules", out.Food.ParseMode)
	require.Len(t, out.Food.Items, 1)
	assert.Equal(t, "Творог", out.Food.Items[0].Name)
	require.NotNil(t, out.Food.Items[0].Grams)
	assert.Equal(t, 200, *out.Food.Items[0].Grams)
}

func TestProcess_NoiseRejected(t *testing.T) {
	svc := &stubService{intent: IntentFood, food: stubFoodLog("2026-08-31")}
	p := testPipeline(t, svc)

	_, err := p.Process(context.Background(), "ам ам ам ам ам", refMorning())
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestProcess_SpeechRepair(t *testing.T) {
	// правила не поняли искажённый текст, модель чинит его, после чего
	// правила справляются сами
	svc := &stubService{
		speech: "меню творог 200 грамм",
		food:   stubFoodLog("2026-08-31"),
	}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "мню тварог двести грам", refMorning())
	require.NoError(t, err)

	assert.Equal(t, IntentFood, out.Intent)
	assert.Equal(t, "llm", out.Food.ParseMode)
	assert.Zero(t, svc.classifyCalls)
}

func TestProcess_UnknownFallsBackToServiceClassify(t *testing.T) {
	// и правила, и починка речи бессильны, классификация сервиса недоступна:
	// по умолчанию календарь
	svc := &stubService{
		intentErr: errors.New("таймаут"),
		event: ParsedEvent{
			Title: "Разобраться", Start: refMorning().Add(time.Hour), ConfidenceDuration: ConfidenceHigh,
		},
	}
	p := testPipeline(t, svc)

	out, err := p.Process(context.Background(), "что-то непонятное совсем", refMorning())
	require.NoError(t, err)
	assert.Equal(t, IntentCalendar, out.Intent)
	assert.Equal(t, 1, svc.classifyCalls)
}

func TestLooksLikeNoise(t *testing.T) {
	assert.True(t, looksLikeNoise("ам ам ам ам"))
	assert.True(t, looksLikeNoise("да да да да да нет"))
	assert.False(t, looksLikeNoise("ам ам ам"))
	assert.False(t, looksLikeNoise("творог кефир хлеб молоко"))
}

func TestExtractFoodLog_NoiseGate(t *testing.T) {
	p := testPipeline(t, &stubService{food: stubFoodLog("2026-08-31")})
	_, err := p.ExtractFoodLog(context.Background(), "ням ням ням ням", refMorning())
	assert.ErrorIs(t, err, ErrEmptyInput)
}
