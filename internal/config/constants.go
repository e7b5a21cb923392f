package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./librarian.db"

	// DefaultCoverUploadDir is where the file cover strategy stores uploads
	DefaultCoverUploadDir = "./public/uploads/bookCovers"
)

// DefaultCoverAllowedTypes are the cover MIME types accepted unless overridden.
var DefaultCoverAllowedTypes = []string{"image/jpeg", "image/png", "image/gif"}
