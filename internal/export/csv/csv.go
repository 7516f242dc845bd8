package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robalyx/antiraid/internal/export/types"
)

// Exporter handles exporting ledger entries to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes sting and punishment records to separate csv files.
func (e *Exporter) Export(stingRecords, punishmentRecords []*types.ExportRecord) error {
	if err := e.writeFile("stings.csv", stingRecords); err != nil {
		return fmt.Errorf("failed to export stings: %w", err)
	}

	if err := e.writeFile("punishments.csv", punishmentRecords); err != nil {
		return fmt.Errorf("failed to export punishments: %w", err)
	}

	return nil
}

// writeFile writes records to a csv file, replacing any previous file.
func (e *Exporter) writeFile(filename string, records []*types.ExportRecord) error {
	file, err := os.Create(filepath.Join(e.outDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(types.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range records {
		if err := writer.Write([]string{
			record.ID,
			record.Src,
			record.Kind,
			strconv.FormatInt(int64(record.Stings), 10),
			record.Target,
			record.Creator,
			record.State,
			record.Reason,
			strconv.FormatInt(record.Duration, 10),
			strconv.FormatInt(record.CreatedAt, 10),
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}
