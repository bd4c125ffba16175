package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DayPart — явное указание времени суток в тексте.
type DayPart int

const (
	PartNone DayPart = iota
	PartMorning
	PartDay
	PartEvening
	PartNight
)

// ResolvedTime — итог разрешения даты/времени по тексту и опорному моменту.
type ResolvedTime struct {
	Start              time.Time
	HasTime            bool
	DurationMinutes    *int
	DurationHours      *float64
	DurationConfidence string
}

var (
	explicitDateRx = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	inDaysRx       = regexp.MustCompile(`через\s+(\d+)\s+(день|дня|дней|недел[юи]|недель)`)

	weekdayNames = map[string]time.Weekday{
		"понедельник": time.Monday,
		"вторник":     time.Tuesday,
		"среду":       time.Wednesday,
		"среда":       time.Wednesday,
		"четверг":     time.Thursday,
		"пятницу":     time.Friday,
		"пятница":     time.Friday,
		"субботу":     time.Saturday,
		"суббота":     time.Saturday,
		"воскресенье": time.Sunday,
	}

	clockRx    = regexp.MustCompile(`(?:^|[^0-9])(\d{1,2})[:.](\d{2})(?:$|[^0-9])`)
	bareHourRx = regexp.MustCompile(`(?:^|[^а-яёa-z])(?:в|на)\s+(\d{1,2})(?:\s+час(?:а|ов)?)?(?:$|[^0-9:.])`)

	morningRx = wordRx(`утром|утра|утренний`)
	dayRx     = wordRx(`днём|днем|дня|после полудня`)
	eveningRx = wordRx(`вечером|вечера|вечерний`)
	nightRx   = wordRx(`ночью|ночи`)

	durationIndicatorRx = wordRx(`продолжительность|длительность|длится`)
	durationTaggedRx    = regexp.MustCompile(`(?:продолжительность|длительность|длится)[:\s]+(\d+(?:[.,]\d+)?)\s*(час|минут)`)
	durationForRx       = regexp.MustCompile(`на\s+(\d+(?:[.,]\d+)?)\s*час(?:а|ов)?(\s+(?:дня|утра|вечера|ночи))?`)
	durationMinutesRx   = regexp.MustCompile(`(\d+)\s*минут`)
	durationRangeRx     = regexp.MustCompile(`с\s+(\d{1,2})[:.](\d{2})\s+до\s+(\d{1,2})[:.](\d{2})`)
)

// Resolve — чистая функция: (текст, опорный момент) → разрешённые дата/время.
// Таймзона берётся из location опорного момента. Правила:
//   - явная дата YYYY-MM-DD перекрывает ключевые слова;
//   - вчера/сегодня/завтра/послезавтра — фиксированные сдвиги;
//   - день недели — ближайший будущий; если сегодня этот день и время уже
//     прошло, переносим на +7;
//   - час без явного времени суток после 18:00 трактуется как вечерний.
func Resolve(text string, ref time.Time) ResolvedTime {
	lower := strings.ToLower(text)
	out := ResolvedTime{DurationConfidence: ConfidenceHigh}

	day := resolveDay(lower, ref)

	hour, minute, hasTime := resolveClock(lower, ref)
	if hasTime {
		out.HasTime = true
	}

	// перенос дня недели, если сегодня тот же день, а время уже прошло
	if wd, ok := findWeekday(lower); ok && !hasExplicitDate(lower) && !hasRelativeDay(lower) {
		day = nextWeekday(ref, wd)
		if sameDate(day, ref) && hasTime {
			stated := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, ref.Location())
			if !stated.After(ref) {
				day = day.AddDate(0, 0, 7)
			}
		}
	}

	out.Start = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, ref.Location())

	mins, hours, conf := ResolveDuration(lower)
	out.DurationMinutes, out.DurationHours, out.DurationConfidence = mins, hours, conf
	return out
}

func resolveDay(lower string, ref time.Time) time.Time {
	if m := explicitDateRx.FindStringSubmatch(lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, ref.Location()); t.Month() == time.Month(mo) {
			return t
		}
	}
	switch {
	case strings.Contains(lower, "послезавтра"):
		return ref.AddDate(0, 0, 2)
	case strings.Contains(lower, "завтра"):
		return ref.AddDate(0, 0, 1)
	case strings.Contains(lower, "вчера"):
		return ref.AddDate(0, 0, -1)
	}
	if m := inDaysRx.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		if strings.HasPrefix(m[2], "недел") {
			n *= 7
		}
		return ref.AddDate(0, 0, n)
	}
	if strings.Contains(lower, "через неделю") {
		return ref.AddDate(0, 0, 7)
	}
	if wd, ok := findWeekday(lower); ok {
		return nextWeekday(ref, wd)
	}
	return ref
}

func hasExplicitDate(lower string) bool { return explicitDateRx.MatchString(lower) }

func hasRelativeDay(lower string) bool {
	return strings.Contains(lower, "завтра") || strings.Contains(lower, "вчера") ||
		strings.Contains(lower, "сегодня") || inDaysRx.MatchString(lower) ||
		strings.Contains(lower, "через неделю")
}

func findWeekday(lower string) (time.Weekday, bool) {
	for name, wd := range weekdayNames {
		if strings.Contains(lower, name) {
			return wd, true
		}
	}
	return 0, false
}

// nextWeekday — ближайшее будущее вхождение дня недели; сегодняшний день
// считается подходящим (перенос на +7 решается выше, когда известно время).
func nextWeekday(ref time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(ref.Weekday()) + 7) % 7
	return ref.AddDate(0, 0, days)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func resolveClock(lower string, ref time.Time) (hour, minute int, ok bool) {
	part := findDayPart(lower)

	switch {
	case strings.Contains(lower, "полдень"):
		return 12, 0, true
	case strings.Contains(lower, "полночь"):
		return 0, 0, true
	}

	// HH:MM и HH.MM — явная 24-часовая запись, берём буквально
	if m := clockRx.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h <= 23 && mi <= 59 {
			if part != PartNone {
				h = DisambiguateHour(h, part, ref.Hour())
			}
			return h, mi, true
		}
	}

	// голый час: "в 11", "на 3 часа"
	if m := bareHourRx.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h <= 23 {
			return DisambiguateHour(h, part, ref.Hour()), 0, true
		}
	}
	return 0, 0, false
}

func findDayPart(lower string) DayPart {
	switch {
	case morningRx.MatchString(lower):
		return PartMorning
	case eveningRx.MatchString(lower):
		return PartEvening
	case nightRx.MatchString(lower):
		return PartNight
	case dayRx.MatchString(lower):
		return PartDay
	default:
		return PartNone
	}
}

// DisambiguateHour переводит 12-часовой час в 24-часовой.
// Явное время суток всегда сильнее эвристики: утро [0,12), день [12,18),
// вечер [18,24), ночь [0,6). Без уточнения действует вечернее правило:
// после 18:00 часы 1–11 означают вечер.
func DisambiguateHour(hour int, part DayPart, refHour int) int {
	switch part {
	case PartMorning:
		return hour
	case PartDay:
		if hour >= 1 && hour <= 5 {
			return hour + 12
		}
		return hour
	case PartEvening:
		if hour >= 1 && hour <= 11 {
			return hour + 12
		}
		return hour
	case PartNight:
		// "11 ночи" разговорно означает 23:00, малые часы — после полуночи
		if hour >= 10 && hour <= 11 {
			return hour + 12
		}
		if hour == 12 {
			return 0
		}
		return hour
	default:
		if refHour >= 18 && hour >= 1 && hour <= 11 {
			return hour + 12
		}
		return hour
	}
}

// ResolveDuration извлекает длительность независимо от времени начала.
// Низкая уверенность — когда слова о длительности есть, а однозначного числа
// нет, или найдены два противоречащих кандидата.
func ResolveDuration(lower string) (*int, *float64, string) {
	var candidates []int

	if m := durationRangeRx.FindStringSubmatch(lower); m != nil {
		h1, _ := strconv.Atoi(m[1])
		m1, _ := strconv.Atoi(m[2])
		h2, _ := strconv.Atoi(m[3])
		m2, _ := strconv.Atoi(m[4])
		if d := (h2*60 + m2) - (h1*60 + m1); d > 0 {
			candidates = append(candidates, d)
		}
	}
	if m := durationTaggedRx.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			if strings.HasPrefix(m[2], "час") {
				candidates = append(candidates, int(v*60))
			} else {
				candidates = append(candidates, int(v))
			}
		}
	}
	for _, m := range durationForRx.FindAllStringSubmatch(lower, -1) {
		if m[2] != "" {
			continue // "на 3 часа дня" — это время начала
		}
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			candidates = append(candidates, int(v*60))
		}
	}
	if m := durationMinutesRx.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			candidates = append(candidates, v)
		}
	}
	switch {
	case strings.Contains(lower, "полчаса"):
		candidates = append(candidates, 30)
	case strings.Contains(lower, "полтора часа"):
		candidates = append(candidates, 90)
	}

	uniq := dedupInts(candidates)
	switch len(uniq) {
	case 0:
		if durationIndicatorRx.MatchString(lower) {
			return nil, nil, ConfidenceLow
		}
		return nil, nil, ConfidenceHigh
	case 1:
		mins := uniq[0]
		hours := float64(mins) / 60.0
		return &mins, &hours, ConfidenceHigh
	default:
		// противоречивые числа — берём первое, но помечаем low
		mins := uniq[0]
		hours := float64(mins) / 60.0
		return &mins, &hours, ConfidenceLow
	}
}

func dedupInts(xs []int) []int {
	seen := map[int]bool{}
	out := xs[:0]
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
