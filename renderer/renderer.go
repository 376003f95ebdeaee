// Package renderer turns ledger data into markdown reports.
package renderer

import (
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/fault"
)

// RenderEntries renders a list of entries as a markdown table.
func RenderEntries(entries []kasa.Entry) string {
	return renderTemplate("entries", "entries.md", nil, entries)
}

// RenderSummary renders a month summary to a markdown string.
func RenderSummary(s *kasa.MonthSummary) string {
	partials := map[string]string{
		"summary_title":      "summary_title.md",
		"summary_categories": "summary_categories.md",
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// RenderBudget renders the burn statistics of one budget.
func RenderBudget(s *kasa.BudgetStats) string {
	return renderTemplate("budget", "budget.md", nil, s)
}

// RenderRetries renders the pending retry tickets.
func RenderRetries(tickets []fault.Ticket) string {
	return renderTemplate("retries", "retries.md", nil, tickets)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
