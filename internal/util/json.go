package util

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSONObject вырезает первый сбалансированный {...} из ответа модели.
// Модели иногда заворачивают JSON в пояснения — берём только сам объект.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// RepairJSON чинит почти-валидный JSON (лишние запятые, одинарные кавычки и т.п.).
func RepairJSON(s string) (string, error) {
	fixed, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return "", fmt.Errorf("json repair: %w", err)
	}
	return fixed, nil
}
