// internal/models/common.go
package models

// DefaultRole is assigned to accounts created without an explicit role.
// Roles are free-form display labels; nothing authorizes on them.
const DefaultRole = "Viewer"

// AllowedDocumentExtensions lists the upload extensions the document manager
// accepts, lower-cased and without the dot.
var AllowedDocumentExtensions = []string{"pdf", "doc", "docx", "jpg", "jpeg", "png"}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
