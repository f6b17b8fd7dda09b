package domain

import (
	"fmt"
	"strings"
)

// LeadingMinutes parses the integer before the first ':' of a free-text
// duration ("10:00" -> 10, "5min" -> 5). Anything unparsable yields 0.
func LeadingMinutes(duration string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(duration), ":")
	head = strings.TrimSpace(head)
	n := 0
	for _, r := range head {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// TotalMinutes sums LeadingMinutes over every video of every module.
func TotalMinutes(modules []Module) int {
	total := 0
	for _, m := range modules {
		for _, v := range m.Videos {
			total += LeadingMinutes(v.Duration)
		}
	}
	return total
}

// FormatMinutes renders a minute count the way course cards show it.
func FormatMinutes(n int) string {
	return fmt.Sprintf("%d minutos", n)
}
