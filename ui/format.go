package ui

import (
	"fmt"
	"mqtt-console/application"
	"strings"
)

const (
	emptyLogText           = "No messages yet"
	emptySubscriptionsText = "No subscriptions yet"

	logTimeLayout = "15:04:05"
)

// formatLogEntries renders entries newest first, at most limit lines.
// An empty log renders a single empty-state line.
func formatLogEntries(entries []application.MessageLogEntry, limit int) []string {
	if len(entries) == 0 {
		return []string{emptyLogText}
	}

	lines := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(lines) == limit {
			break
		}
		lines = append(lines, formatLogEntry(entries[i]))
	}
	return lines
}

func formatLogEntry(e application.MessageLogEntry) string {
	payload := strings.ReplaceAll(e.Payload, "\n", "⏎")
	if e.Time.IsZero() {
		return fmt.Sprintf("%s: %s", e.Topic, payload)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Time.Time().Local().Format(logTimeLayout), e.Topic, payload)
}

func formatSubscriptions(topics []string) string {
	if len(topics) == 0 {
		return emptySubscriptionsText
	}
	return strings.Join(topics, ", ")
}

func formatMode(mode application.PublishMode) string {
	if mode == application.PublishPeriodic {
		return "( ) once  (•) periodic"
	}
	return "(•) once  ( ) periodic"
}

func formatPeriodic(p *application.PeriodicSession) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("sending to %s every %s: %d sent, %d failed", p.Topic, p.Interval, p.Sent, p.Failed)
}
