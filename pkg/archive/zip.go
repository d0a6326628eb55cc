// Package archive unpacks the planner's transport payload: a base64-encoded
// zip archive of calendar files.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// CalendarFile is one .ics entry extracted from the archive.
type CalendarFile struct {
	Name string
	Data []byte
}

// ExtractCalendars decodes a base64 zip payload and returns its .ics entries.
// Directories and non-calendar files are ignored.
func ExtractCalendars(zipB64 string) ([]CalendarFile, error) {
	raw, err := base64.StdEncoding.DecodeString(zipB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode zip payload: %w", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	var files []CalendarFile
	for _, entry := range reader.File {
		if !strings.HasSuffix(entry.Name, ".ics") || strings.HasSuffix(entry.Name, "/") {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in archive: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from archive: %w", entry.Name, err)
		}

		files = append(files, CalendarFile{Name: entry.Name, Data: data})
	}

	return files, nil
}
