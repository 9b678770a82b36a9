package datastore

// MediaFile represents one captured media file with its enrichment columns.
// The enrichment columns are denormalized on ingest so that the analytics
// queries can group and filter without date arithmetic in SQL.
type MediaFile struct {
	ID       uint   `gorm:"primaryKey"`
	FileName string `gorm:"column:file_name;index:idx_mediafiles_filename"`
	FileType string `gorm:"column:file_type;index:idx_mediafiles_filetype"` // MP3 or JPG
	SizeMB   float64 `gorm:"column:size_mb"`
	Duration float64 `gorm:"column:duration"` // seconds, audio only

	// Capture timestamp split into the representations the report needs.
	Date        string `gorm:"column:date;index:idx_mediafiles_date"` // ISO date, YYYY-MM-DD
	Time        string `gorm:"column:time"`                           // HH:MM:SS
	ISOYear     int    `gorm:"column:iso_year"`
	ISOWeek     int    `gorm:"column:iso_week"`
	ISOYearWeek string `gorm:"column:iso_year_week;index:idx_mediafiles_yearweek"` // YYYY-Www
	Month       string `gorm:"column:month"`                                       // YYYY-MM
	DayOfWeek   string `gorm:"column:day_of_week"`

	// Calendar attribution.
	SchoolYear        string `gorm:"column:school_year;index:idx_mediafiles_schoolyear"` // N/A when outside every school year
	CollectionPeriod  string `gorm:"column:collection_period"`
	IsCollectionDay   bool   `gorm:"column:is_collection_day"`
	ScheduledActivity string `gorm:"column:scheduled_activity"`

	// Outlier flag assigned during data cleaning.
	OutlierStatus string `gorm:"column:outlier_status;index:idx_mediafiles_outlier"` // Normal or Outlier
}

// Outlier status values.
const (
	StatusNormal  = "Normal"
	StatusOutlier = "Outlier"
)

// NotApplicable marks rows that fall outside every configured school year.
const NotApplicable = "N/A"
