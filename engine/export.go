package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExportData is a ready-to-download rendering of a message batch
type ExportData struct {
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ExportMessages renders messages in the requested format: json, csv or
// excel. Excel exports carry CSV content under an .xlsx name so spreadsheet
// tools open them directly.
func ExportMessages(messages []GeneratedMessage, format string, now time.Time) (ExportData, error) {
	filename := fmt.Sprintf("campaign_%s.%s", now.Format("2006-01-02"), format)

	switch format {
	case "json":
		data, err := json.MarshalIndent(messages, "", "  ")
		if err != nil {
			return ExportData{}, fmt.Errorf("marshal export: %w", err)
		}
		return ExportData{
			Format:      "json",
			Filename:    filename,
			ContentType: "application/json",
			Data:        data,
		}, nil

	case "csv":
		return ExportData{
			Format:      "csv",
			Filename:    filename,
			ContentType: "text/csv",
			Data:        []byte(messagesCSV(messages)),
		}, nil

	case "excel":
		return ExportData{
			Format:      "excel",
			Filename:    strings.TrimSuffix(filename, ".excel") + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        []byte(messagesCSV(messages)),
		}, nil

	default:
		return ExportData{}, fmt.Errorf("unsupported export format: %s", format)
	}
}

// messagesCSV renders every cell quoted, with embedded newlines flattened to
// spaces. No trailing newline: an empty batch yields the header row alone.
func messagesCSV(messages []GeneratedMessage) string {
	rows := make([][]string, 0, len(messages)+1)
	rows = append(rows, []string{"ID", "Patient Name", "Channel", "Subject", "Content", "Estimated Engagement"})

	for _, msg := range messages {
		rows = append(rows, []string{
			msg.ID,
			msg.PatientName,
			msg.Channel,
			msg.Subject,
			strings.ReplaceAll(msg.Content, "\n", " "),
			strconv.Itoa(msg.EstimatedEngagement),
		})
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return b.String()
}
