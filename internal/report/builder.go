package report

import (
	"fmt"

	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/pkg/export"
)

// Builder renders an Improvement record into the export package's
// CSV/PDF formats, reusing the teacher's exporters nearly verbatim.
type Builder struct {
	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewBuilder constructs a Builder with the given exporters. Either may be
// nil if the caller only needs the other format.
func NewBuilder(csv *export.CSVExporter, pdf *export.PDFExporter) *Builder {
	return &Builder{csv: csv, pdf: pdf}
}

func (b *Builder) dataset(i Improvement) export.Dataset {
	row := func(label string, before, after, delta string) map[string]string {
		return map[string]string{"metric": label, "before": before, "after": after, "delta": delta}
	}
	return export.Dataset{
		Headers: []string{"metric", "before", "after", "delta"},
		Rows: []map[string]string{
			row("conflicts", fmt.Sprint(i.Before.Conflicts), fmt.Sprint(i.After.Conflicts), fmt.Sprint(i.ConflictsDelta)),
			row("gaps", fmt.Sprint(i.Before.Gaps), fmt.Sprint(i.After.Gaps), fmt.Sprint(i.GapsDelta)),
			row("variance", fmt.Sprintf("%.2f", i.Before.Variance), fmt.Sprintf("%.2f", i.After.Variance), fmt.Sprintf("%.2f", i.VarianceDelta)),
			row("clustering", fmt.Sprintf("%.2f", i.Before.Clustering), fmt.Sprintf("%.2f", i.After.Clustering), fmt.Sprintf("%.2f", i.ClusteringDelta)),
			row("score", fmt.Sprintf("%.1f", i.Before.Score), fmt.Sprintf("%.1f", i.After.Score), fmt.Sprintf("%.1f", i.ScoreDelta)),
		},
	}
}

// RenderCSV renders the improvement record as CSV bytes.
func (b *Builder) RenderCSV(i Improvement) ([]byte, error) {
	if b.csv == nil {
		return nil, fmt.Errorf("report: no CSV exporter configured")
	}
	return b.csv.Render(b.dataset(i))
}

// RenderPDF renders the improvement record as a titled PDF.
func (b *Builder) RenderPDF(i Improvement) ([]byte, error) {
	if b.pdf == nil {
		return nil, fmt.Errorf("report: no PDF exporter configured")
	}
	return b.pdf.Render(b.dataset(i), "Optimization Report")
}

// AllocationDataset converts exam room allocations into an exportable
// Dataset for the allocator's own CSV/PDF output.
func AllocationDataset(examID string, rooms []domain.RoomAllocation) export.Dataset {
	rows := make([]map[string]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, map[string]string{
			"exam":     examID,
			"room":     r.Room,
			"capacity": fmt.Sprint(r.Capacity),
			"assigned": fmt.Sprint(r.Assigned),
		})
	}
	return export.Dataset{
		Headers: []string{"exam", "room", "capacity", "assigned"},
		Rows:    rows,
	}
}
