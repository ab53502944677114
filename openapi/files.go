package openapi

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"reflect"
	"strings"
)

// File holds a single uploaded file from a multipart/form-data request.
// In generated documents a File field is rendered as a binary string
// property, never as a component schema.
//
// See: https://spec.openapis.org/oas/v3.0.3#considerations-for-file-uploads
type File struct {
	Filename    string
	Size        int64
	ContentType string
	Header      *multipart.FileHeader
}

// Open opens the uploaded file for reading.
func (f *File) Open() (multipart.File, error) {
	if f.Header == nil {
		return nil, fmt.Errorf("file %q has no multipart header", f.Filename)
	}
	return f.Header.Open()
}

// FileAccepter can be implemented by file field types to restrict what
// uploads they admit. Bind rejects uploads that do not satisfy the
// returned FileAccept.
type FileAccepter interface {
	Accept() FileAccept
}

// FileAccept describes accepted uploads by filename extension and content
// type. Empty slices accept everything for that dimension. Content types
// may use a trailing wildcard, such as "image/*".
type FileAccept struct {
	Extensions   []string
	ContentTypes []string
}

// Validate checks a filename and content type against the accept rules.
func (a FileAccept) Validate(filename, contentType string) error {
	if len(a.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(filename))
		ok := false
		for _, allowed := range a.Extensions {
			if ext == strings.ToLower(allowed) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("file extension %q not allowed (want one of %s)", ext, strings.Join(a.Extensions, ", "))
		}
	}

	if len(a.ContentTypes) > 0 && contentType != "" {
		ok := false
		for _, allowed := range a.ContentTypes {
			if matchContentType(allowed, contentType) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("content type %q not allowed (want one of %s)", contentType, strings.Join(a.ContentTypes, ", "))
		}
	}

	return nil
}

func matchContentType(pattern, contentType string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(contentType, prefix+"/")
	}
	return strings.EqualFold(pattern, contentType)
}

// ImageFile accepts common raster image uploads.
type ImageFile struct {
	File
}

func (ImageFile) Accept() FileAccept {
	return FileAccept{
		Extensions:   []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"},
		ContentTypes: []string{"image/*"},
	}
}

// AudioFile accepts common audio uploads.
type AudioFile struct {
	File
}

func (AudioFile) Accept() FileAccept {
	return FileAccept{
		Extensions:   []string{".mp3", ".wav", ".ogg", ".flac", ".m4a"},
		ContentTypes: []string{"audio/*"},
	}
}

// VideoFile accepts common video uploads.
type VideoFile struct {
	File
}

func (VideoFile) Accept() FileAccept {
	return FileAccept{
		Extensions:   []string{".mp4", ".webm", ".mov", ".avi", ".mkv"},
		ContentTypes: []string{"video/*"},
	}
}

// ArchiveFile accepts common archive uploads.
type ArchiveFile struct {
	File
}

func (ArchiveFile) Accept() FileAccept {
	return FileAccept{
		Extensions:   []string{".zip", ".tar", ".gz", ".bz2", ".7z", ".rar"},
		ContentTypes: []string{"application/zip", "application/x-tar", "application/gzip", "application/x-7z-compressed", "application/vnd.rar"},
	}
}

var fileType = reflect.TypeOf(File{})

// isFileType reports whether t is File or a struct embedding File.
func isFileType(t reflect.Type) bool {
	if t == fileType {
		return true
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		field := t.Field(i)
		if field.Anonymous && field.Type == fileType {
			return true
		}
	}
	return false
}
