package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/alignx/internal/formatter"
	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) allRecords() ([]models.AlignmentRecord, error) {
	if err := r.openDB(); err != nil {
		return nil, err
	}
	return r.records.GetAll()
}

// RecordsList prints saved records, most recent first.
func (r *Runner) RecordsList(ctx context.Context, cmd *cli.Command) error {
	records, err := r.allRecords()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	if len(records) == 0 {
		return r.writePlain("No saved alignments\n")
	}

	r.writePlainHeader(fmt.Sprintf("Saved Alignments (%d)", len(records)))
	for _, rec := range records {
		r.writePlain("%s | %s | %s | %s\n",
			rec.TaskID,
			formatter.StatusLabel(rec.Status),
			formatter.FormatTimestamp(rec.Timestamp),
			formatter.ShortFilename(rec.SourceURL),
		)
	}
	return nil
}

// RecordsExport renders saved records as CSV, Markdown or JSON.
func (r *Runner) RecordsExport(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	path := cmd.String("output")

	records, err := r.allRecords()
	if err != nil {
		return err
	}

	data, err := formatter.ExportRecords(records, format)
	if err != nil {
		return err
	}

	if path == "" {
		_, err := r.output.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	r.logger.Info("records exported", "count", len(records), "path", path)
	return r.writePlain("✓ Exported %d records to %s\n", len(records), path)
}

// RecordsClear deletes every saved record.
func (r *Runner) RecordsClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.openDB(); err != nil {
		return err
	}
	if err := r.records.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Saved alignments cleared\n")
}

// Export fetches an alignment's transcript and writes it in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	format := strings.ToLower(cmd.String("format"))
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	pb, err := r.workflow().Load(ctx, id, "", nil)
	if err != nil && !errors.Is(err, shared.ErrNoPlayableAudio) {
		return err
	}

	path, err := formatter.WriteTranscriptExport(pb.Transcript, id, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("transcript exported", "id", id, "format", format, "path", path)
	r.writePlain("✓ Exported %d lines (%d words) to %s\n", len(pb.Transcript.Lines), pb.Transcript.WordCount(), path)
	return nil
}
