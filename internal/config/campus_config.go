package config

const (
	// Complaints
	DefaultCategory = "Other"

	// Listings
	AdminPageSize = 10
	TrendingSize  = 5

	// Export
	ExportDescriptionRunes = 140

	// Ceiling for inline (data URL) images. External URLs are not fetched, so
	// no size limit applies to them.
	MaxInlineImageBytes = 1 << 20
)

// Categories are the complaint categories offered by the submission form.
var Categories = []string{"Infrastructure", "Academics", "Facility", "Other"}

// IsCategory reports whether name is one of Categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
