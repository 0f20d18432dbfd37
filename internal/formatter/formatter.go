// package formatter provides functions to export alignment transcripts and records to various formats
// (LRC, SRT, CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
)

// Export formats
const (
	FormatLRC      = "lrc"
	FormatSRT      = "srt"
	FormatCSV      = "csv"
	FormatText     = "txt"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// TranscriptFormats lists the formats accepted by [ExportTranscript].
var TranscriptFormats = []string{FormatLRC, FormatSRT, FormatCSV, FormatText, FormatJSON}

// RecordFormats lists the formats accepted by [ExportRecords].
var RecordFormats = []string{FormatCSV, FormatMarkdown, FormatJSON}

// ExportTranscript renders a transcript in the given format.
func ExportTranscript(tr *models.Transcript, format string) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("%w: empty transcript", shared.ErrInvalidInput)
	}
	switch format {
	case FormatLRC:
		return ExportToLRC(tr)
	case FormatSRT:
		return ExportToSRT(tr)
	case FormatCSV:
		return ExportToCSV(tr)
	case FormatText, "text":
		return ExportToText(tr)
	case FormatJSON:
		return json.MarshalIndent(tr, "", "  ")
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToLRC converts a transcript to LRC with one [mm:ss.xx] timestamp per line
func ExportToLRC(tr *models.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	for _, line := range tr.Lines {
		text := line.Text()
		if text == "" {
			continue
		}
		fmt.Fprintf(&buf, "[%s]%s\n", LRCTimestamp(line.Start()), text)
	}
	return buf.Bytes(), nil
}

// ExportToSRT converts a transcript to SubRip with one numbered cue per non-empty line
func ExportToSRT(tr *models.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	cue := 0
	for _, line := range tr.Lines {
		text := line.Text()
		if text == "" {
			continue
		}
		cue++
		if cue > 1 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%d\n%s --> %s\n%s\n", cue, SRTTimestamp(line.Start()), SRTTimestamp(line.End()), text)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts a transcript to CSV with columns: Line, Word, Text, Start, End
func ExportToCSV(tr *models.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Line", "Word", "Text", "Start", "End"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, line := range tr.Lines {
		for j, w := range line.Words {
			record := []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(j + 1),
				w.Text,
				strconv.FormatFloat(w.Start, 'f', 3, 64),
				strconv.FormatFloat(w.End, 'f', 3, 64),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToText converts a transcript to plain text, one lyric line per row
func ExportToText(tr *models.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	for _, line := range tr.Lines {
		if text := line.Text(); text != "" {
			buf.WriteString(text)
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// WriteTranscriptExport writes a transcript export to disk.
//
// Defaults to {taskID}.{format} as the filename.
func WriteTranscriptExport(tr *models.Transcript, taskID, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", taskID, format)
	}

	data, err := ExportTranscript(tr, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// ExportRecords renders alignment records in the given format.
func ExportRecords(records []models.AlignmentRecord, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return RecordsToCSV(records)
	case FormatMarkdown, "md":
		return RecordsToMarkdown(records)
	case FormatJSON:
		return json.MarshalIndent(records, "", "  ")
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// RecordsToCSV converts records to CSV with columns: Task ID, Status, Timestamp, Audio URL, JSON URL, Source URL
func RecordsToCSV(records []models.AlignmentRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Task ID", "Status", "Timestamp", "Audio URL", "JSON URL", "Source URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		record := []string{r.TaskID, r.Status, FormatTimestamp(r.Timestamp), r.AudioURL, r.JSONURL, r.SourceURL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// RecordsToMarkdown converts records to a Markdown table
func RecordsToMarkdown(records []models.AlignmentRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Alignments\n\n")
	fmt.Fprintf(&buf, "**Records**: %d\n\n", len(records))
	if len(records) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| File | Task | Status | Updated | Result |\n")
	buf.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, r := range records {
		result := "-"
		if r.JSONURL != "" {
			result = fmt.Sprintf("[json](%s)", r.JSONURL)
		}
		fmt.Fprintf(&buf, "| %s | `%s` | %s | %s | %s |\n",
			escapeCell(ShortFilename(firstNonEmpty(r.AudioURL, r.SourceURL))),
			r.TaskID,
			StatusLabel(r.Status),
			FormatTimestamp(r.Timestamp),
			result,
		)
	}
	return buf.Bytes(), nil
}

// LRCTimestamp formats seconds as mm:ss.xx
func LRCTimestamp(seconds float64) string {
	cs := int(math.Round(math.Max(seconds, 0) * 100))
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs/100)%60, cs%100)
}

// SRTTimestamp formats seconds as hh:mm:ss,mmm
func SRTTimestamp(seconds float64) string {
	ms := int(math.Round(math.Max(seconds, 0) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, (ms/60000)%60, (ms/1000)%60, ms%1000)
}
