package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"scribe/internal/api"
	"scribe/internal/language"
	"scribe/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func formatStatusLabel(status string) string {
	parsed, ok := queue.ParseStatus(status)
	if !ok {
		return status
	}
	return parsed.StageLabel()
}

func statusColor(status string) string {
	switch queue.Status(status) {
	case queue.StatusCompleted:
		return ansiGreen
	case queue.StatusFailed:
		return ansiRed
	case queue.StatusPending:
		return ""
	default:
		return ansiYellow
	}
}

func colorizeStatus(status string, colorize bool) string {
	label := formatStatusLabel(status)
	if !colorize {
		return label
	}
	color := statusColor(status)
	if color == "" {
		return label
	}
	return color + label + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	total := int(seconds + 0.5)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

func jobLanguage(job api.JobView) string {
	if job.LanguageDetected != "" {
		return job.LanguageDetected
	}
	return job.LanguageRequested
}

func truncate(value string, max int) string {
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max-1]) + "…"
}

func printJobDetail(out io.Writer, job api.JobView, showRaw bool) {
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Job %d  %s\n", job.ID, colorizeStatus(job.Status, colorize))
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:      %s\n", job.ErrorMessage)
	}
	fmt.Fprintf(out, "URL:        %s\n", job.SourceURL)
	if job.Title != "" {
		fmt.Fprintf(out, "Title:      %s\n", job.Title)
	}
	if job.Channel != "" {
		fmt.Fprintf(out, "Channel:    %s\n", job.Channel)
	}
	if job.DurationSeconds > 0 {
		fmt.Fprintf(out, "Duration:   %s\n", formatDuration(job.DurationSeconds))
	}
	fmt.Fprintf(out, "Language:   %s\n", describeLanguage(job))
	fmt.Fprintf(out, "Progress:   %d%%\n", job.Progress)
	if job.Transcriber != "" {
		model := job.Model
		if model == "" {
			model = "?"
		}
		fmt.Fprintf(out, "Backend:    %s (%s)\n", job.Transcriber, model)
	}
	if job.Confidence > 0 {
		fmt.Fprintf(out, "Confidence: %.0f%%\n", job.Confidence*100)
	}
	if job.WordCount > 0 {
		fmt.Fprintf(out, "Words:      %d\n", job.WordCount)
	}
	if job.ProcessingSeconds > 0 {
		fmt.Fprintf(out, "Processed:  %s\n", formatDuration(job.ProcessingSeconds))
	}
	if job.RetryCount > 0 {
		fmt.Fprintf(out, "Retries:    %d\n", job.RetryCount)
	}

	text := job.RefinedText
	label := "Transcript"
	if showRaw || text == "" {
		text = job.RawText
		label = "Raw transcript"
	}
	if strings.TrimSpace(text) != "" {
		fmt.Fprintf(out, "\n%s:\n\n%s\n", label, text)
	}
}

func describeLanguage(job api.JobView) string {
	requested := job.LanguageRequested
	detected := job.LanguageDetected
	if detected == "" {
		if language.IsAuto(requested) {
			return "auto-detect"
		}
		return languageWithName(requested)
	}
	if detected == requested || language.IsAuto(requested) {
		return languageWithName(detected) + " (detected)"
	}
	return fmt.Sprintf("%s (requested %s)", languageWithName(detected), requested)
}

func languageWithName(code string) string {
	name := language.DisplayName(code)
	if name == "" || strings.EqualFold(name, code) {
		return code
	}
	return fmt.Sprintf("%s (%s)", code, name)
}
