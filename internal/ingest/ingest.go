package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundfield/capture-report/internal/calendar"
	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/datastore"
	"github.com/soundfield/capture-report/internal/errors"
	"github.com/soundfield/capture-report/internal/logging"
)

// Ingestor runs the full ingest pipeline: scan, enrich, flag outliers,
// replace the datastore contents.
type Ingestor struct {
	settings *conf.Settings
	store    datastore.Interface
	logger   *slog.Logger
}

// New creates an ingestor.
func New(settings *conf.Settings, store datastore.Interface) *Ingestor {
	return &Ingestor{
		settings: settings,
		store:    store,
		logger:   logging.ForService("ingest", settings.Main.Log.Path),
	}
}

// Run ingests every matching media file under root. Existing records are
// replaced, so repeated runs converge on the state of the directory.
func (in *Ingestor) Run(ctx context.Context, root string) (int, error) {
	loc, err := time.LoadLocation(in.settings.Output.Report.Timezone)
	if err != nil {
		in.logger.Warn("invalid timezone, using local",
			"timezone", in.settings.Output.Report.Timezone, "error", err)
		loc = time.Local
	}

	raw, err := Scan(ctx, root, in.settings.Ingest.FileTypes, loc)
	if err != nil {
		return 0, err
	}

	cal := calendar.New(&in.settings.Calendar)
	dayMap := cal.BuildCollectionDayMap()

	files := make([]datastore.MediaFile, 0, len(raw))
	for _, r := range raw {
		files = append(files, Enrich(r, cal, dayMap))
	}

	flagged := FlagOutliers(files)

	if err := in.store.DeleteAll(); err != nil {
		return 0, err
	}
	if err := in.store.SaveBatch(files); err != nil {
		return 0, errors.New(err).
			Component("ingest").
			Category(errors.CategoryDatabase).
			Context("operation", "save_ingested").
			Build()
	}

	in.logger.Info("ingest complete",
		"root", root,
		"files", len(files),
		"outliers", flagged)
	return len(files), nil
}
