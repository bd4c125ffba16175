package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ElKaStar/CalendarAgent/internal/util"
)

// RuleFoodExtractor — детерминированный разбор записи о еде без внешних
// вызовов. Используется как основной режим при недоступности модели и как
// страховка после её ошибок.

const unitAlt = `миллилитров|миллилитра|миллилитр|граммов|грамма|грамм|раммов|рамма|рамм|литров|литра|литр|мл|г|л`

var (
	// число + единица, с пробелом или слитно ("120 грамм", "120грамма")
	qtyRx = regexp.MustCompile(`(\d+)\s*(` + unitAlt + `)\.?(?:$|[^а-яёa-z])`)

	// "1,20 грамм" — запятая от распознавания речи, на самом деле 120
	commaNumberRx = regexp.MustCompile(`(?i)(\d+),(\d{2})(\s*(?:` + unitAlt + `))`)

	// "креатин 200, грамм" — запятая разорвала число и единицу на два
	// фрагмента; склеиваем до сегментации
	numberCommaUnitRx = regexp.MustCompile(`(?i)(\d+)\s*,\s*(` + unitAlt + `)`)

	// "грамма2" — прилипшая цифра после единицы
	glueDigitRx = regexp.MustCompile(`(?i)(грамма|граммов|грамм|рамма|раммов|рамм)(\d+)`)

	leadingVerbsRx   = regexp.MustCompile(`(?i)^(еда|меню|съел|съела|съели|поел|поела|поели|перекус|завтрак|обед|ужин)[:\s]+`)
	dayPlusVerbRx    = regexp.MustCompile(`(?i)(сегодня|завтра|вчера|послезавтра)\s+(съел|съела|съели|поел|поела|поели)\s+`)
	bareDayWordsRx   = regexp.MustCompile(`(?i)(^|[^а-яёa-zА-ЯЁA-Z])(сегодня|завтра|вчера|послезавтра|утром|днём|днем|вечером)($|[^а-яёa-zА-ЯЁA-Z])`)
	conjunctionSplit = regexp.MustCompile(`(?i)\s+(?:и|с|плюс)\s+`)
	leadingNumberRx  = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s+`)

	// ошибки распознавания речи в названиях продуктов
	speechFixes = []struct {
		rx  *regexp.Regexp
		sub string
	}{
		{regexp.MustCompile(`(?i)картофельн(?:ая|ый)\s+пирожок`), "картофельное пюре"},
		{regexp.MustCompile(`(?i)отстану\s+кашу`), "овсяную кашу"},
	}

	mealBreakfastRx = wordRx(`завтрак|утром|утренний|утро`)
	mealLunchRx     = wordRx(`обед|днём|днем|дневной|день`)
	mealDinnerRx    = wordRx(`ужин|вечером|вечерний|вечер`)
	mealSnackRx     = wordRx(`перекус|полдник|ланч|бранч|снэк`)
)

type RuleExtractor struct {
	codeWordStrip *regexp.Regexp
}

func NewRuleExtractor(codeWords []string) *RuleExtractor {
	escaped := make([]string, 0, len(codeWords))
	for _, cw := range codeWords {
		if cw = strings.TrimSpace(cw); cw != "" {
			escaped = append(escaped, regexp.QuoteMeta(strings.ToLower(cw)))
		}
	}
	if len(escaped) == 0 {
		escaped = []string{"меню"}
	}
	return &RuleExtractor{
		codeWordStrip: regexp.MustCompile(`(?i)^(?:` + strings.Join(escaped, "|") + `)(?:[.,\s]+|$)`),
	}
}

// Parse разбирает сообщение о еде: дата события, тип приёма пищи и список
// продуктов. Confidence high только при непустом списке.
func (e *RuleExtractor) Parse(text string, ref time.Time) (ParsedFoodLog, error) {
	if strings.TrimSpace(text) == "" {
		return ParsedFoodLog{}, ErrEmptyInput
	}
	clean := strings.TrimSpace(text)
	lower := strings.ToLower(clean)

	log := ParsedFoodLog{
		EventDate: resolveDay(lower, ref).Format("2006-01-02"),
		MealType:  ExtractMealType(lower),
		Items:     e.extractItems(clean),
		Notes:     clean,
		RawText:   clean,
		ParseMode: "rules",
	}
	log.Confidence = ConfidenceLow
	if len(log.Items) > 0 {
		log.Confidence = ConfidenceHigh
	}
	return log, nil
}

// ExtractMealType определяет приём пищи по ключевым словам, независимо от
// извлечения продуктов.
func ExtractMealType(lower string) MealType {
	switch {
	case mealBreakfastRx.MatchString(lower):
		return MealBreakfast
	case mealLunchRx.MatchString(lower):
		return MealLunch
	case mealDinnerRx.MatchString(lower):
		return MealDinner
	case mealSnackRx.MatchString(lower):
		return MealSnack
	default:
		return MealUnknown
	}
}

func (e *RuleExtractor) extractItems(text string) []FoodItem {
	// исправление кодового слова до его удаления: искажённое кодовое слово
	// в самом начале всё равно должно распознаться
	s := FixLeadingMisrecognition(text)
	s = e.codeWordStrip.ReplaceAllString(s, "")

	for _, f := range speechFixes {
		s = f.rx.ReplaceAllString(s, f.sub)
	}
	s = fixCommaNumbers(s)
	s = numberCommaUnitRx.ReplaceAllString(s, "$1 $2")
	s = glueDigitRx.ReplaceAllString(s, "$1")

	s = leadingVerbsRx.ReplaceAllString(s, "")
	s = dayPlusVerbRx.ReplaceAllString(s, "")
	s = bareDayWordsRx.ReplaceAllString(s, "$1$3")
	s = wsRun.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return nil
	}

	var segments []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '；' }) {
		for _, sub := range strings.FieldsFunc(part, func(r rune) bool { return r == ',' || r == '，' }) {
			segments = append(segments, conjunctionSplit.Split(sub, -1)...)
		}
	}

	var items []FoodItem
	for _, seg := range segments {
		seg = wsRun.ReplaceAllString(strings.TrimSpace(seg), " ")
		if seg == "" {
			continue
		}
		item, name := parseSegment(seg)

		if name == "" {
			// сегмент из одного количества ("100 грамм" после запятой) —
			// речь разрезала "продукт, 100 грамм"; цепляем к предыдущему
			if hasQuantity(item) && len(items) > 0 {
				last := &items[len(items)-1]
				if last.Grams == nil && last.Milliliters == nil && last.Quantity == nil {
					last.Quantity = item.Quantity
					last.Unit = item.Unit
					last.Grams = item.Grams
					last.Milliliters = item.Milliliters
					last.QtyText = item.QtyText
				}
			}
			continue
		}

		item.Name = util.TitleCase(name)
		items = append(items, item)
	}
	return items
}

func hasQuantity(it FoodItem) bool {
	return it.Grams != nil || it.Milliliters != nil || it.QtyText != nil
}

// parseSegment извлекает из сегмента количество с единицей и возвращает
// остаток как имя продукта.
func parseSegment(seg string) (FoodItem, string) {
	var item FoodItem
	lower := strings.ToLower(seg)

	if m := qtyRx.FindStringSubmatchIndex(lower); m != nil {
		value, _ := strconv.Atoi(lower[m[2]:m[3]])
		unit := normalizeUnit(lower[m[4]:m[5]])

		q := float64(value)
		item.Quantity = &q
		item.Unit = &unit
		qt := strconv.Itoa(value) + " " + unit
		item.QtyText = &qt

		switch unitFamily(unit) {
		case "mass":
			g := value
			item.Grams = &g
		case "volume":
			ml := value
			item.Milliliters = &ml
		case "liter":
			ml := value * 1000
			item.Milliliters = &ml
		}

		// вырезаем количество из названия по границам совпадения
		name := strings.TrimSpace(seg[:m[2]] + " " + seg[m[5]:])
		name = strings.Trim(name, ".,;: ")
		return item, wsRun.ReplaceAllString(name, " ")
	}

	// количество без единицы ("2 яблока") — фиксируем только текст
	if m := leadingNumberRx.FindStringSubmatch(seg); m != nil {
		qt := m[1]
		item.QtyText = &qt
	}
	return item, strings.Trim(seg, ".,;: ")
}

// normalizeUnit чинит "рамм" → "грамм" и его падежные формы.
func normalizeUnit(unit string) string {
	if strings.HasPrefix(unit, "рамм") {
		return "г" + unit
	}
	return unit
}

func unitFamily(unit string) string {
	switch {
	case unit == "г" || strings.HasPrefix(unit, "грамм"):
		return "mass"
	case unit == "мл" || strings.HasPrefix(unit, "миллилитр"):
		return "volume"
	case unit == "л" || strings.HasPrefix(unit, "литр"):
		return "liter"
	default:
		return ""
	}
}

func fixCommaNumbers(s string) string {
	for {
		m := commaNumberRx.FindStringSubmatchIndex(s)
		if m == nil {
			return s
		}
		hi, _ := strconv.Atoi(s[m[2]:m[3]])
		lo, _ := strconv.Atoi(s[m[4]:m[5]])
		s = s[:m[0]] + strconv.Itoa(hi*100+lo) + s[m[6]:m[7]] + s[m[1]:]
	}
}
