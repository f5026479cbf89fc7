package message

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned when a file attachment has no path
var ErrEmptyPath = errors.New("empty file path")

// ByteSource is file content read into memory together with its detected type
type ByteSource struct {
	Name     string
	MimeType string
	Data     []byte
}

// ReadFile reads the whole file at path. The returned source is named after
// the file's base name and typed by extension, falling back to content
// sniffing.
func ReadFile(path string) (*ByteSource, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	name := filepath.Base(path)
	return &ByteSource{
		Name:     name,
		MimeType: DetectMimeType(name, data),
		Data:     data,
	}, nil
}

// extensionTypes takes precedence over the host's mime.types, which differs
// between systems for these extensions
var extensionTypes = map[string]string{
	".pdf": "application/pdf",
	".php": "application/x-php",
	".js":  "text/javascript",
	".zip": "application/zip",
	".txt": "text/plain",
}

// DetectMimeType returns the MIME type for a file name and its content
func DetectMimeType(name string, data []byte) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if t, ok := extensionTypes[ext]; ok {
			return t
		}
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return http.DetectContentType(data)
}

// Inline returns the source as an attachment
func (s *ByteSource) Inline() InlineBytes {
	return InlineBytes{Name: s.Name, MimeType: s.MimeType, Data: s.Data}
}
