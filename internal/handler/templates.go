package handler

import (
	"html/template"
	"time"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
		// fieldError looks up a field's message in a validation error map.
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"fieldValue": func(values map[string]string, field string) string {
			return values[field]
		},
	}
}
