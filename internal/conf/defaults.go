// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "CaptureReport")
	viper.SetDefault("main.timeas24h", true)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "capture-report.log")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "capture.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "capture")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "capture")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("output.report.path", "reports/capture_report.xlsx")
	viper.SetDefault("output.report.title", "Media Capture Analysis")
	viper.SetDefault("output.report.timezone", "Local")

	viper.SetDefault("ingest.filetypes", []string{"MP3", "JPG"})
}
