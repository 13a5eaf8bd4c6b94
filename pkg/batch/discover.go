package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dcmtojpeg/pkg/metadata"
)

// dicomExtensions are matched case-insensitively
var dicomExtensions = map[string]bool{
	".dcm":   true,
	".dicom": true,
	".dic":   true,
}

// HeaderReader is the part of Decoder discovery needs
type HeaderReader interface {
	DecodeHeaders(path string) (*metadata.ImageMetadata, error)
}

// Discover lists the DICOM files directly inside dir, sorted by name.
// Files with a DICOM extension are taken as is; files without an extension
// are included when their header parses. The entry named skip (the output
// folder) is ignored.
func Discover(dir, skip string, probe HeaderReader) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == skip {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ext := filepath.Ext(e.Name())

		switch {
		case dicomExtensions[strings.ToLower(ext)]:
			files = append(files, path)
		case ext == "" && probe != nil:
			if _, err := probe.DecodeHeaders(path); err == nil {
				files = append(files, path)
			}
		}
	}
	return files, nil
}
