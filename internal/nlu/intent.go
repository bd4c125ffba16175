package nlu

import (
	"regexp"
	"strings"
)

// Классификация — строгая лестница приоритетов: правила проверяются по
// порядку, первое совпадение выигрывает. Поздние правила написаны в расчёте
// на то, что их перекрывают ранние, поэтому порядок менять нельзя.

// wordRx собирает регулярку с ручными границами слова: \b в RE2 работает
// только для ASCII и с кириллицей бесполезен.
func wordRx(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^а-яёa-z])(?:` + alternatives + `)(?:$|[^а-яёa-z])`)
}

var (
	trailingEllipsis = regexp.MustCompile(`\.{2,}$`)

	eatVerbs = wordRx(`съел|съела|съели|съесть|поел|поела|поели|поесть`)

	foodProducts = wordRx(`омлет|кофе|чай|салат|борщ|хлеб|рыба|овощи|паста|йогурт|яблоко|овсянка|каша|суп|мясо|курица|говядина|свинина|творог|кефир|сыр|молоко|гречка|рис|манка|пшено|перловка|яйца|блины|вареники|пельмени|котлеты|шашлык|шаурма|цезарь|оливье|винегрет|щи|солянка|рассольник|уха|капучино|латте|эспрессо|американо|раф|гляссе|мокко|фраппе|креатин|протеин`)

	calendarCommands = wordRx(`запиши|запланируй|поставь|создай|добавь|напомни`)
	calendarNouns    = wordRx(`встреча|созвон|звонок|конференция|совещание|планёрка|планерка`)
	calendarServices = wordRx(`маникюр|педикюр|стрижка|врач|доктор|терапевт|стоматолог`)
	clockTime        = regexp.MustCompile(`(?:^|[^а-яёa-z0-9])(?:в|на)\s+\d{1,2}(?::\d{2}|[.]\d{2}|\s+час)`)
	relativeInterval = wordRx(`через неделю|через \d+ (?:день|дня|дней)`)

	foodKeywords = wordRx(`еда|завтрак|обед|ужин|перекус|полдник|ланч|бранч|меню|калории|калорий|питание|диета|блюдо|блюда|фрукты|ягоды|сметана|масло|батон|булка|круассан|булочка|пирог|торт|пирожное|кекс|печенье|вафли|оладьи|конфеты|шоколад|мороженое|пицца|бургер|суши|роллы|спагетти|макароны|яичница`)
)

// Router — классификатор без состояния, кроме набора кодовых слов.
type Router struct {
	codeWords []string
}

func NewRouter(codeWords []string) *Router {
	lowered := make([]string, 0, len(codeWords))
	for _, w := range codeWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}
	return &Router{codeWords: lowered}
}

// Classify относит текст к еде, календарю или "не понял".
// Unknown дальше по конвейеру трактуется как календарь, но различие
// сохраняется для логов и тестов.
func (r *Router) Classify(text string) Intent {
	if strings.TrimSpace(text) == "" {
		return IntentUnknown
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = trailingEllipsis.ReplaceAllString(lower, "")
	lower = strings.TrimSpace(FixLeadingMisrecognition(lower))

	switch {
	case r.startsWithCodeWord(lower):
		return IntentFood
	case eatVerbs.MatchString(lower) && foodProducts.MatchString(lower):
		// глагол + продукт сильнее одиночных календарных слов
		return IntentFood
	case calendarCommands.MatchString(lower),
		calendarNouns.MatchString(lower),
		calendarServices.MatchString(lower),
		clockTime.MatchString(lower),
		relativeInterval.MatchString(lower):
		return IntentCalendar
	case eatVerbs.MatchString(lower), foodProducts.MatchString(lower), foodKeywords.MatchString(lower):
		return IntentFood
	default:
		return IntentUnknown
	}
}

// Кодовое слово в начале сообщения (с точкой/запятой/пробелом после или в
// конце строки) — безусловный маршрут в дневник питания.
func (r *Router) startsWithCodeWord(lower string) bool {
	for _, cw := range r.codeWords {
		if !strings.HasPrefix(lower, cw) {
			continue
		}
		rest := lower[len(cw):]
		if rest == "" || startsWithBoundary(rest) {
			return true
		}
	}
	return false
}
