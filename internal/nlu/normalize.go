package nlu

import (
	"regexp"
	"strings"

	"github.com/ElKaStar/CalendarAgent/internal/util"
)

// Частые ошибки распознавания речи для кодовых слов дневника питания.
// Исправляются только в начале сообщения и только перед границей слова,
// чтобы не портить слова с тем же префиксом.
var codeWordFixes = map[string]string{
	"миню": "меню",
	"мену": "меню",
	"мину": "меню",
}

// "завтрак(у)" в начале сообщения перед словом о встрече/враче — это
// искажённое "завтра", а не приём пищи. Перед продуктом не трогаем.
var breakfastAsTomorrow = regexp.MustCompile(`^завтрак[уа]?\s+((?:к\s+)?(?:врач|доктор|стоматолог|терапевт|маникюр|педикюр|стрижк|встреч|запис|созвон))`)

var wsRun = regexp.MustCompile(`\s+`)

// Normalize чистит сырой текст перед классификацией и извлечением:
// срезает markdown-ограждения и метку "json", схлопывает пробелы и
// исправляет известные ошибки распознавания в начале сообщения.
// Нормализация — best effort: смысл остального текста не меняется.
func Normalize(raw string) string {
	s := util.StripCodeFences(raw)
	s = strings.TrimPrefix(s, "json")
	s = wsRun.ReplaceAllString(strings.TrimSpace(s), " ")
	s = FixLeadingMisrecognition(s)
	return s
}

// FixLeadingMisrecognition применяет таблицу исправлений к началу сообщения.
// Регистр остатка текста сохраняется.
func FixLeadingMisrecognition(s string) string {
	lower := strings.ToLower(s)

	for wrong, correct := range codeWordFixes {
		if !strings.HasPrefix(lower, wrong) {
			continue
		}
		rest := s[len(wrong):]
		if rest != "" && !startsWithBoundary(rest) {
			continue
		}
		return correct + rest
	}

	if m := breakfastAsTomorrow.FindStringSubmatchIndex(lower); m != nil {
		return "завтра " + s[m[2]:]
	}
	return s
}

func startsWithBoundary(s string) bool {
	r := []rune(s)[0]
	return r == ' ' || r == '.' || r == ',' || r == ':' || r == ';' || r == '!'
}
