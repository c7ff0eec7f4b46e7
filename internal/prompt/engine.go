// Package prompt содержит шаблоны запросов к моделям и функцию их заполнения.
package prompt

import "strings"

// Render заменяет каждый плейсхолдер {name}, для которого есть значение в vars.
// Имена чувствительны к регистру. Неизвестные плейсхолдеры остаются как есть.
// Подставленные значения повторно не сканируются.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		if template[i] != '{' {
			next := strings.IndexByte(template[i:], '{')
			if next < 0 {
				b.WriteString(template[i:])
				break
			}
			b.WriteString(template[i : i+next])
			i += next
			continue
		}

		rest := template[i+1:]
		closeIdx := strings.IndexByte(rest, '}')
		openIdx := strings.IndexByte(rest, '{')
		if closeIdx < 0 || (openIdx >= 0 && openIdx < closeIdx) {
			b.WriteByte('{')
			i++
			continue
		}

		name := rest[:closeIdx]
		if value, ok := vars[name]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(template[i : i+closeIdx+2])
		}
		i += closeIdx + 2
	}

	return b.String()
}
