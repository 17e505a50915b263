// Package output writes snapshots and change reports to disk in the
// configured formats and renders human-readable summaries.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// Manager fans a report out to every configured format.
type Manager struct {
	directory string
	formats   []string
	logger    utils.Logger
}

// NewManager creates the output directory if needed.
func NewManager(cfg config.OutputConfig, logger utils.Logger) (*Manager, error) {
	directory := cfg.Directory
	if directory == "" {
		directory = "data"
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to create output directory")
	}
	formats := cfg.Formats
	if len(formats) == 0 {
		formats = []string{"json"}
	}
	if logger == nil {
		logger = utils.NewComponentLogger("output")
	}
	return &Manager{directory: directory, formats: formats, logger: logger}, nil
}

// WriteReport writes the change report in every configured format and
// returns the paths written.
func (m *Manager) WriteReport(report *types.ChangeReport) ([]string, error) {
	stamp := report.Timestamp
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	base := fmt.Sprintf("report_%s_%s", sanitizeName(report.Category), stamp.Format("20060102_150405"))

	var paths []string
	for _, format := range m.formats {
		path := filepath.Join(m.directory, base+extensionFor(format))
		var err error
		switch format {
		case "json":
			err = writeJSONFile(path, report)
		case "csv":
			err = writeReportCSV(path, report)
		case "excel":
			err = writeReportExcel(path, report)
		default:
			err = utils.NewError(utils.ErrCodeOutputFailed, "unsupported output format: "+format)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
		m.logger.WithFields(map[string]interface{}{
			"category": report.Category,
			"format":   format,
			"path":     path,
		}).Info("report written")
	}
	return paths, nil
}

// WriteSnapshot writes the current catalog snapshot as JSON, plus CSV
// when CSV output is configured.
func (m *Manager) WriteSnapshot(snapshot types.Snapshot) ([]string, error) {
	base := fmt.Sprintf("snapshot_%s_%s", sanitizeName(snapshot.Category),
		time.Now().UTC().Format("20060102_150405"))

	paths := []string{filepath.Join(m.directory, base+".json")}
	if err := writeJSONFile(paths[0], snapshot.Records); err != nil {
		return nil, err
	}
	for _, format := range m.formats {
		if format != "csv" {
			continue
		}
		path := filepath.Join(m.directory, base+".csv")
		if err := writeSnapshotCSV(path, snapshot); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func extensionFor(format string) string {
	switch format {
	case "csv":
		return ".csv"
	case "excel":
		return ".xlsx"
	default:
		return ".json"
	}
}

func sanitizeName(name string) string {
	if name == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-")
	return strings.ToLower(replacer.Replace(name))
}
