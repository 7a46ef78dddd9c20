package engine

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Context — контекст разрешения плейсхолдеров шаблона.
//
// Используется в Go templates для доступа к данным:
//   - {{ .Sample.column }}  — колонка из метаданных образца
//   - {{ .Project.name }}   — атрибуты проекта
type Context struct {
	// Sample — метаданные образца (колонки CSV + "_sample").
	Sample map[string]string

	// Project — атрибуты проекта ("name" и имя workflow).
	Project map[string]string
}

// NewContext создаёт контекст для одного образца.
func NewContext(projectName, workflowName, sampleName string, metadata map[string]string) *Context {
	sample := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		sample[k] = v
	}
	sample["_sample"] = sampleName

	return &Context{
		Sample: sample,
		Project: map[string]string{
			"name":     projectName,
			"workflow": workflowName,
		},
	}
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// default — возвращает значение по умолчанию, если аргумент пустой
	"default": func(def, val string) string {
		if val == "" {
			return def
		}
		return val
	},

	// lower — нижний регистр
	"lower": strings.ToLower,

	// upper — верхний регистр
	"upper": strings.ToUpper,
}

// Render разрешает один плейсхолдер-шаблон в строку.
//
// Отсутствующий ключ — ошибка (missingkey=error): молчаливая подстановка
// "<no value>" в путь вывода ломала бы output-truth самым тихим способом.
func Render(tmpl string, ctx *Context) (string, error) {
	t, err := template.New("param").Funcs(templateFuncs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrTemplateParse, tmpl, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrTemplateRender, tmpl, err)
	}
	return buf.String(), nil
}

// RenderMap разрешает маппинг параметров.
func RenderMap(params map[string]string, ctx *Context) (map[string]string, error) {
	resolved := make(map[string]string, len(params))
	for k, v := range params {
		rendered, err := Render(v, ctx)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		resolved[k] = rendered
	}
	return resolved, nil
}

// RenderList разрешает список шаблонов (пути выводов).
func RenderList(items []string, ctx *Context) ([]string, error) {
	resolved := make([]string, 0, len(items))
	for i, item := range items {
		rendered, err := Render(item, ctx)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		resolved = append(resolved, rendered)
	}
	return resolved, nil
}
