package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskhub/internal/models"
)

// Generator is the report renderer used by the task handler; tests swap in
// a fake.
type Generator interface {
	StatisticsReport(w io.Writer, data StatisticsData) error
}

// DocumentGenerator renders reports with gofpdf.
type DocumentGenerator struct {
	FontPath string // optional TTF, e.g. "assets/fonts/DejaVuSans.ttf"
	fontName string
}

type StatisticsData struct {
	Scope       string // "all tasks" or the account's display name
	Stats       *models.TaskStatistics
	GeneratedAt time.Time
}

func NewDocumentGenerator(fontPath string) *DocumentGenerator {
	g := &DocumentGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

func (g *DocumentGenerator) StatisticsReport(w io.Writer, data StatisticsData) error {
	if data.Stats == nil {
		return fmt.Errorf("statistics report: no data")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task statistics", false)
	pdf.SetAuthor("TaskHub", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "Task statistics", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s, generated %s",
		data.Scope, data.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")), "", 1, "C", false, 0, "")
	g.hr(pdf)

	total := 0
	g.sectionTitle(pdf, "By status")
	byStatus := map[models.TaskStatus]int{}
	for _, c := range data.Stats.Status {
		byStatus[c.Status] = c.Count
		total += c.Count
	}
	for _, s := range models.TaskStatuses {
		g.kvLine(pdf, label(string(s)), fmt.Sprint(byStatus[s]))
	}
	g.hr(pdf)

	g.sectionTitle(pdf, "By priority")
	byPriority := map[models.TaskPriority]int{}
	for _, c := range data.Stats.Priority {
		byPriority[c.Priority] = c.Count
	}
	for _, p := range models.TaskPriorities {
		g.kvLine(pdf, label(string(p)), fmt.Sprint(byPriority[p]))
	}
	g.hr(pdf)

	g.sectionTitle(pdf, "Summary")
	g.kvLine(pdf, "Total", fmt.Sprint(total))
	g.kvLine(pdf, "Overdue", fmt.Sprint(data.Stats.Overdue))

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	return pdf.Output(w)
}

// label turns "in_progress" into "In progress".
func label(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *DocumentGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

// addUTF8Font registers the TTF when one is configured; otherwise the core
// Helvetica font is used.
func (g *DocumentGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
