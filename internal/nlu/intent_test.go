package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRouter() *Router {
	return NewRouter([]string{"меню", "еда"})
}

func TestClassify(t *testing.T) {
	r := testRouter()

	tests := []struct {
		text string
		want Intent
	}{
		// кодовое слово в начале — безусловно еда
		{"меню творог 200 грамм", IntentFood},
		{"еда овсянка и яблоко", IntentFood},
		{"меню", IntentFood},
		{"меню, завтрак омлет", IntentFood},
		// искажённое кодовое слово
		{"миню творог 200 грамм", IntentFood},
		// глагол еды + продукт
		{"съел омлет", IntentFood},
		{"поела борщ и хлеб", IntentFood},
		// календарные маркеры
		{"запиши меня на маникюр", IntentCalendar},
		{"завтра в 15:00 встреча с Катей", IntentCalendar},
		{"созвон с командой", IntentCalendar},
		{"маникюр", IntentCalendar},
		{"через неделю планёрка", IntentCalendar},
		{"через 3 дня отчёт", IntentCalendar},
		// продукты и ключевые слова еды без календарных маркеров
		{"овсянка", IntentFood},
		{"хочу печенье", IntentFood},
		{"творог с мёдом", IntentFood},
		// ничего не распознано
		{"привет", IntentUnknown},
		{"", IntentUnknown},
		{"   ", IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Classify(tt.text))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	r := testRouter()

	// глагол еды с продуктом сильнее календарного существительного
	assert.Equal(t, IntentFood, r.Classify("съел борщ перед встречей"))
	// календарный маркер сильнее одиночного продукта
	assert.Equal(t, IntentCalendar, r.Classify("запиши на ужин с друзьями в ресторане"))
	// кодовое слово перебивает любые календарные маркеры
	assert.Equal(t, IntentFood, r.Classify("меню запиши творог"))
}

func TestClassify_WordBoundaries(t *testing.T) {
	r := testRouter()

	// "менюст" не кодовое слово, "врачебный" без маркеров времени
	assert.Equal(t, IntentUnknown, r.Classify("менюшка сайта"))
	// продукт как подстрока другого слова не срабатывает
	assert.Equal(t, IntentUnknown, r.Classify("рисование"))
	// многоточие в конце не мешает
	assert.Equal(t, IntentFood, r.Classify("съел омлет..."))
}
