package models

// DefaultBranch is the source branch recorded when none is given at registration
const DefaultBranch = "main"

// Registry is the persisted mapping from package display name to package metadata
type Registry struct {
	Packages map[string]*PackageEntry `json:"packages"`
}

// PackageEntry holds the metadata and uploaded wheels of one registered package
type PackageEntry struct {
	SourceRepo   string        `json:"source_repo"`
	UpstreamRepo string        `json:"upstream_repo"`
	SourceBranch string        `json:"source_branch"`
	Description  string        `json:"description"`
	Wheels       []WheelRecord `json:"wheels"`
}

// WheelRecord describes one uploaded wheel artifact
type WheelRecord struct {
	Filename      string `json:"filename"`
	URL           string `json:"url"`
	PythonVersion string `json:"python_version"`
	Platform      string `json:"platform"`
	UploadDate    string `json:"upload_date"`
	SHA256        string `json:"sha256"`

	// Optional index attributes
	RequiresPython string `json:"requires_python,omitempty"`
	MetadataSHA256 string `json:"metadata_sha256,omitempty"`
	GPGSig         bool   `json:"gpg_sig,omitempty"`
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{Packages: make(map[string]*PackageEntry)}
}
