package validator

import (
	"bytes"
	"mime"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
)

func Init() {
	validate = validator.New()

	sanitizer = bluemonday.UGCPolicy()

	registerCustomValidations(validate)

	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustomValidations(engine)
	}
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("username", validateUsername)
	v.RegisterValidation("page_title", validatePageTitle)
	v.RegisterValidation("no_html", validateNoHTML)
}

func Validate(s interface{}) error {
	return validate.Struct(s)
}

func SanitizeHTML(html string) string {
	return sanitizer.Sanitize(html)
}

func SanitizeString(s string) string {
	return bluemonday.StrictPolicy().Sanitize(s)
}

func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_]+$`, username)
	return matched && len(username) >= 3 && len(username) <= 30
}

// validatePageTitle rejects characters that collide with link and tag
// syntax; full normalization happens in the title package.
func validatePageTitle(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.TrimSpace(value) == "" {
		return false
	}
	return !strings.ContainsAny(value, "#<>[]|{}")
}

func validateNoHTML(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return !strings.Contains(value, "<") && !strings.Contains(value, ">")
}

func TrimSpaces(s string) string {
	return strings.TrimSpace(s)
}

func SanitizeFilename(filename string) string {
	reg := regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	return reg.ReplaceAllString(filename, "_")
}

func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}

// MIME Type Validation

// ValidateContentType validates that the provided MIME type is in the allowed list
func ValidateContentType(contentType string, allowedMimeTypes []string) bool {
	if contentType == "" || len(allowedMimeTypes) == 0 {
		return false
	}

	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	for _, allowed := range allowedMimeTypes {
		allowed = strings.ToLower(strings.TrimSpace(allowed))

		if mimeType == allowed {
			return true
		}

		// Wildcard match (e.g., "image/*" matches "image/png")
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "/*")
			if strings.HasPrefix(mimeType, prefix+"/") {
				return true
			}
		}
	}

	return false
}

// MajorType extracts the media type before the slash: "image/png" yields
// "image". Unparseable input yields "".
func MajorType(contentType string) string {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	major, _, ok := strings.Cut(mimeType, "/")
	if !ok {
		return ""
	}
	return strings.ToLower(major)
}

// DetectFileType attempts to detect the actual MIME type from file content
// Returns the detected MIME type or empty string if detection fails
func DetectFileType(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	// Image formats
	if bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}) {
		return "image/png"
	}
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		return "image/jpeg"
	}
	if bytes.HasPrefix(data, []byte{0x47, 0x49, 0x46, 0x38}) {
		return "image/gif"
	}
	if bytes.HasPrefix(data, []byte{0x52, 0x49, 0x46, 0x46}) && len(data) > 12 &&
		bytes.HasPrefix(data[8:], []byte{0x57, 0x45, 0x42, 0x50}) {
		return "image/webp"
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.HasPrefix(data, []byte{0x3C, 0x3F, 0x78, 0x6D, 0x6C}) || bytes.HasPrefix(data, []byte("<svg")) {
		if bytes.Contains(head, []byte("<svg")) {
			return "image/svg+xml"
		}
		return "text/xml"
	}

	// PDF
	if bytes.HasPrefix(data, []byte{0x25, 0x50, 0x44, 0x46}) {
		return "application/pdf"
	}

	// MP4
	if len(data) > 12 && bytes.HasPrefix(data[4:], []byte{0x66, 0x74, 0x79, 0x70}) {
		return "video/mp4"
	}

	// OGG audio
	if bytes.HasPrefix(data, []byte("OggS")) {
		return "audio/ogg"
	}

	if isProbablyText(data) {
		return "text/plain"
	}

	return ""
}

// isProbablyText checks if data looks like text by checking for null bytes
func isProbablyText(data []byte) bool {
	checkSize := 512
	if len(data) < checkSize {
		checkSize = len(data)
	}

	for i := 0; i < checkSize; i++ {
		if data[i] == 0 {
			return false
		}
	}
	return true
}

// ValidateImageContentType validates image MIME types
func ValidateImageContentType(contentType string) bool {
	allowedMimeTypes := []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/svg+xml",
	}
	return ValidateContentType(contentType, allowedMimeTypes)
}

// ValidateUploadContentType validates the types a File page may carry.
func ValidateUploadContentType(contentType string) bool {
	allowedMimeTypes := []string{
		"image/*",
		"video/mp4",
		"audio/ogg",
		"application/pdf",
		"text/plain",
	}
	return ValidateContentType(contentType, allowedMimeTypes)
}
