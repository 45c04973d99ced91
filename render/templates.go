package render

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"golang.org/x/text/language"

	"mpdom/config"
	"mpdom/dom"
	"mpdom/markup"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Language   string
	SourceFile string
	SourceDir  string
}

// documentLanguage looks for lang attribute on <html> and <body> elements.
func documentLanguage(doc *markup.Document) string {
	if doc == nil || doc.Root == nil {
		return ""
	}
	var lang string
	doc.Root.Walk(func(e *dom.Element) bool {
		if lang != "" {
			return false
		}
		switch e.Tag() {
		case dom.TagRoot:
			return true
		case dom.TagHTML, dom.TagBody:
		default:
			return false
		}
		for _, a := range []dom.Attr{dom.AttrLang, dom.AttrXMLLang} {
			v, ok := e.Attribute(a)
			if v = strings.TrimSpace(v); !ok || v == "" {
				continue
			}
			lang = v
			if tag, err := language.Parse(v); err == nil {
				lang = tag.String()
			}
			return false
		}
		return e.Tag() == dom.TagHTML
	})
	return lang
}

func buildValues(doc *markup.Document, name config.TemplateFieldName, src string) Values {
	values := Values{
		Context:    string(name),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourceDir:  filepath.ToSlash(filepath.Dir(src)),
		Language:   documentLanguage(doc),
	}
	if values.SourceDir == "." {
		values.SourceDir = ""
	}
	if doc != nil {
		values.Title = doc.Title
	}
	return values
}

func expandTemplate(doc *markup.Document, src string, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, buildValues(doc, name, src)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
