// internal/analysis/classifier.go
package analysis

import (
	"regexp"
	"strings"
	"unicode"

	"cx-agent-builder/internal/models"
)

// DetectDomain returns the first domain whose keyword appears in text, or
// DefaultDomain when none does.
func DetectDomain(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range domainRules {
		if containsAny(lower, rule.keywords) {
			return rule.key
		}
	}
	return DefaultDomain
}

// DetectTasks returns the tasks requested in text. The greeting task is always
// first; when nothing else matches the domain defaults are used.
func DetectTasks(text, domain string) []models.Task {
	lower := strings.ToLower(text)
	tasks := []models.Task{cloneTask(greetingTask)}

	for _, rule := range taskRules {
		if containsAny(lower, rule.keywords) {
			tasks = append(tasks, cloneTask(rule.task))
		}
	}

	if len(tasks) == 1 {
		tasks = append(tasks, defaultTasksFor(domain)...)
	}
	return dedupeTasks(tasks)
}

func defaultTasksFor(domain string) []models.Task {
	for _, d := range domainDefaultTasks {
		if d.domain == domain {
			out := make([]models.Task, len(d.tasks))
			for i, t := range d.tasks {
				out[i] = cloneTask(t)
			}
			return out
		}
	}
	return []models.Task{cloneTask(generalInquiryTask)}
}

func dedupeTasks(tasks []models.Task) []models.Task {
	seen := make(map[string]bool, len(tasks))
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.TaskName] {
			continue
		}
		seen[t.TaskName] = true
		out = append(out, t)
	}
	return out
}

func cloneTask(t models.Task) models.Task {
	t.DataToCollect = append(make([]string, 0, len(t.DataToCollect)), t.DataToCollect...)
	return t
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var nonIdentChars = regexp.MustCompile(`[^a-z0-9_]`)

// TaskKey turns a task name into a snake_case identifier: lower-cased, spaces
// become underscores and anything outside [a-z0-9_] is dropped.
func TaskKey(taskName string) string {
	key := strings.ReplaceAll(strings.ToLower(taskName), " ", "_")
	return nonIdentChars.ReplaceAllString(key, "")
}

// Readable turns a snake_case identifier into space separated words.
func Readable(identifier string) string {
	return strings.ReplaceAll(identifier, "_", " ")
}

// TitleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "e-commerce" becomes "E-Commerce".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
