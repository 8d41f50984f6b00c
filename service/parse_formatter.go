package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/ludo-technologies/pytree/domain"
)

// ParseFormatterImpl renders a ParseResponse as text, JSON, YAML or CSV
type ParseFormatterImpl struct {
	utils *FormatUtils
}

// NewParseFormatter creates a new formatter
func NewParseFormatter() *ParseFormatterImpl {
	return &ParseFormatterImpl{utils: NewFormatUtils()}
}

// Write formats response in the requested format
func (f *ParseFormatterImpl) Write(response *domain.ParseResponse, format domain.OutputFormat, writer io.Writer) error {
	if response == nil {
		return domain.NewOutputError("no response to format", nil)
	}

	switch format {
	case domain.OutputFormatText, "":
		_, err := io.WriteString(writer, f.formatText(response))
		if err != nil {
			return domain.NewOutputError("failed to write text output", err)
		}
		return nil
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeCSV(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *ParseFormatterImpl) formatText(response *domain.ParseResponse) string {
	var b strings.Builder
	s := response.Summary

	b.WriteString(f.utils.FormatSectionHeader("Summary"))
	b.WriteString(f.utils.FormatLabelWithIndent(SectionPadding, "Total files processed", s.TotalFiles))
	b.WriteString(f.utils.FormatLabelWithIndent(SectionPadding, "Successful", s.SuccessCount))
	b.WriteString(f.utils.FormatLabelWithIndent(SectionPadding, "Failed", s.FailureCount))
	b.WriteString(f.utils.FormatLabelWithIndent(SectionPadding, "Syntax diagnostics", s.DiagnosticCount))
	if response.Mode == domain.ModeImages {
		b.WriteString(f.utils.FormatLabelWithIndent(SectionPadding, "Images written", s.ImagesWritten))
		b.WriteString(f.utils.FormatLabelWithIndent(SectionPadding, "Output directory", response.OutputDir))
	}

	failed := response.FailedFiles()
	if len(failed) == 0 {
		return b.String()
	}

	b.WriteString(f.utils.FormatSectionSeparator())
	b.WriteString(f.utils.FormatSectionHeader("Failed files"))
	for _, file := range failed {
		switch {
		case file.Error != "":
			fmt.Fprintf(&b, "%s%s: %s\n", strings.Repeat(" ", SectionPadding), file.Path, file.Error)
		default:
			fmt.Fprintf(&b, "%s%s (%d %s)\n", strings.Repeat(" ", SectionPadding), file.Path,
				len(file.Diagnostics), plural(len(file.Diagnostics), "diagnostic", "diagnostics"))
		}
		for _, d := range file.Diagnostics {
			fmt.Fprintf(&b, "%sERROR at line %d:%d - %s\n", strings.Repeat(" ", ItemPadding), d.Line, d.Column, d.Message)
		}
	}
	return b.String()
}

// fileRow is one CSV record
type fileRow struct {
	Path            string `csv:"path"`
	Success         bool   `csv:"success"`
	Diagnostics     int    `csv:"diagnostics"`
	FirstDiagnostic string `csv:"first_diagnostic"`
	Error           string `csv:"error"`
	ImagePath       string `csv:"image_path"`
	NodeCount       int    `csv:"node_count"`
	DurationMs      int64  `csv:"duration_ms"`
}

func (f *ParseFormatterImpl) writeCSV(response *domain.ParseResponse, writer io.Writer) error {
	rows := make([]fileRow, 0, len(response.Files))
	for _, file := range response.Files {
		row := fileRow{
			Path:        file.Path,
			Success:     file.Success,
			Diagnostics: len(file.Diagnostics),
			Error:       file.Error,
			ImagePath:   file.ImagePath,
			NodeCount:   file.NodeCount,
			DurationMs:  file.Duration.Milliseconds(),
		}
		if len(file.Diagnostics) > 0 {
			d := file.Diagnostics[0]
			row.FirstDiagnostic = fmt.Sprintf("%d:%d %s", d.Line, d.Column, d.Message)
		}
		rows = append(rows, row)
	}

	w := csv.NewWriter(writer)
	enc := csvutil.NewEncoder(w)
	var err error
	if len(rows) == 0 {
		err = enc.EncodeHeader(fileRow{})
	} else {
		err = enc.Encode(rows)
	}
	if err != nil {
		return domain.NewOutputError("failed to encode CSV", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return domain.NewOutputError("failed to write CSV", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
