package engine

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

func exportMessages() []GeneratedMessage {
	return []GeneratedMessage{
		{
			ID:                  "msg_1",
			PatientName:         "Amy",
			Channel:             "email",
			Subject:             `Amy, "exclusive" offer`,
			Content:             "Line one\nLine two",
			EstimatedEngagement: 85,
		},
		{
			ID:                  "msg_2",
			PatientName:         "Beth",
			Channel:             "text",
			Content:             "Short and sweet",
			EstimatedEngagement: 70,
		},
	}
}

func TestExportMessagesJSON(t *testing.T) {
	export, err := ExportMessages(exportMessages(), "json", exportTime)

	require.NoError(t, err)
	assert.Equal(t, "json", export.Format)
	assert.Equal(t, "campaign_2025-11-15.json", export.Filename)
	assert.Equal(t, "application/json", export.ContentType)

	var decoded []GeneratedMessage
	require.NoError(t, json.Unmarshal(export.Data, &decoded))
	assert.Len(t, decoded, 2)
	assert.Equal(t, "Amy", decoded[0].PatientName)
}

func TestExportMessagesCSV(t *testing.T) {
	export, err := ExportMessages(exportMessages(), "csv", exportTime)

	require.NoError(t, err)
	assert.Equal(t, "campaign_2025-11-15.csv", export.Filename)
	assert.Equal(t, "text/csv", export.ContentType)

	lines := strings.Split(string(export.Data), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"ID","Patient Name","Channel","Subject","Content","Estimated Engagement"`, lines[0])
	// Quotes double, newlines flatten to spaces
	assert.Equal(t, `"msg_1","Amy","email","Amy, ""exclusive"" offer","Line one Line two","85"`, lines[1])
	assert.Equal(t, `"msg_2","Beth","text","","Short and sweet","70"`, lines[2])
}

func TestExportMessagesCSVEmptyHasHeaderOnly(t *testing.T) {
	export, err := ExportMessages(nil, "csv", exportTime)

	require.NoError(t, err)
	assert.Equal(t, `"ID","Patient Name","Channel","Subject","Content","Estimated Engagement"`,
		string(export.Data))
}

func TestExportMessagesExcel(t *testing.T) {
	export, err := ExportMessages(exportMessages(), "excel", exportTime)

	require.NoError(t, err)
	assert.Equal(t, "excel", export.Format)
	assert.Equal(t, "campaign_2025-11-15.xlsx", export.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.ContentType)

	// Excel export reuses the CSV rendering
	csv, err := ExportMessages(exportMessages(), "csv", exportTime)
	require.NoError(t, err)
	assert.Equal(t, csv.Data, export.Data)
}

func TestExportMessagesUnknownFormat(t *testing.T) {
	_, err := ExportMessages(exportMessages(), "pdf", exportTime)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}
