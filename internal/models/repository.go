package models

// Storage backends
const (
	BackendS3   = "s3"
	BackendGCS  = "gcs"
	BackendFile = "file"
)

// Config contains the resolved configuration for a wheelhouse invocation
type Config struct {
	// Registry and index locations
	RegistryPath string
	IndexDir     string

	// Index page metadata
	Title       string
	Description string
	Gzip        bool // Also write index.html.gz next to every page

	// Object storage
	Backend  string // s3, gcs or file
	Bucket   string
	Prefix   string
	Region   string // For S3
	Endpoint string // For S3-compatible services
	BaseURL  string // Public URL prefix for uploaded artifacts; required for the file backend
	Root     string // Destination directory for the file backend

	// Signing
	GPGKeyPath    string
	GPGPassphrase string

	// Upload policy
	RequireRegistered bool // Abort uploads for packages missing from the registry
}
