package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Template selects the rapor layout. The choice is a two-way branch on the
// classroom's curriculum track; nothing else influences it.
type Template string

const (
	TemplateConventional Template = "rapor_konvensional"
	TemplateMerdeka      Template = "rapor_merdeka"
)

// SubjectLine is one subject/score row on the conventional layout.
type SubjectLine struct {
	SubjectName string
	Score       float64
}

// CompetencyLine is one competency row on the merdeka layout.
type CompetencyLine struct {
	SubjectName string
	Level       string
	Description string
}

// P5Line is one project assessment row on the merdeka layout.
type P5Line struct {
	ProjectName string
	Dimension   string
	Level       string
	Description string
}

// ExtracurricularLine is one activity row on the merdeka layout.
type ExtracurricularLine struct {
	ActivityName string
	Level        string
	Description  string
}

// AttendanceLine is the absence recap block.
type AttendanceLine struct {
	Sick       int
	Permission int
	Absent     int
}

// Data is the flat bag a template consumes. The renderer performs no
// computation; every value arrives ready to print.
type Data struct {
	StudentName      string
	NIS              string
	NISN             string
	ClassroomName    string
	LevelName        string
	AcademicYearName string
	Semester         string
	TeacherName      string

	Subjects []SubjectLine
	GPA      float64

	Competencies    []CompetencyLine
	P5              []P5Line
	Extracurricular []ExtracurricularLine
	Attendance      AttendanceLine

	TeacherNote   string
	PrincipalNote string
	CharacterNote string
}

// RaporRenderer produces print-ready report card PDFs.
type RaporRenderer struct{}

// NewRaporRenderer constructs a renderer.
func NewRaporRenderer() *RaporRenderer {
	return &RaporRenderer{}
}

// Render builds the PDF for the selected template.
func (r *RaporRenderer) Render(template Template, data Data) ([]byte, error) {
	switch template {
	case TemplateConventional:
		return r.renderConventional(data)
	case TemplateMerdeka:
		return r.renderMerdeka(data)
	default:
		return nil, fmt.Errorf("unknown rapor template %q", template)
	}
}

func (r *RaporRenderer) renderConventional(data Data) ([]byte, error) {
	pdf := newPage(data, "LAPORAN HASIL BELAJAR")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 8, "No", "1", 0, "C", false, 0, "")
	pdf.CellFormat(115, 8, "Mata Pelajaran", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 8, "Nilai", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for i, subject := range data.Subjects {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(115, 7, subject.SubjectName, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, fmt.Sprintf("%.2f", subject.Score), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Rata-rata", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 8, fmt.Sprintf("%.2f", data.GPA), "1", 1, "C", false, 0, "")

	writeNotes(pdf, data)
	return output(pdf)
}

func (r *RaporRenderer) renderMerdeka(data Data) ([]byte, error) {
	pdf := newPage(data, "LAPORAN CAPAIAN HASIL BELAJAR")

	section(pdf, "Capaian Kompetensi")
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(60, 8, "Mata Pelajaran", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 8, "Capaian", "1", 0, "C", false, 0, "")
	pdf.CellFormat(105, 8, "Deskripsi", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Competencies {
		pdf.CellFormat(60, 7, row.SubjectName, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 7, row.Level, "1", 0, "C", false, 0, "")
		pdf.CellFormat(105, 7, clip(row.Description, 80), "1", 1, "", false, 0, "")
	}

	section(pdf, "Projek Penguatan Profil Pelajar Pancasila")
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(50, 8, "Projek", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 8, "Dimensi", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, "Capaian", "1", 0, "C", false, 0, "")
	pdf.CellFormat(75, 8, "Deskripsi", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, row := range data.P5 {
		pdf.CellFormat(50, 7, row.ProjectName, "1", 0, "", false, 0, "")
		pdf.CellFormat(45, 7, row.Dimension, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 7, row.Level, "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 7, clip(row.Description, 55), "1", 1, "", false, 0, "")
	}

	if len(data.Extracurricular) > 0 {
		section(pdf, "Ekstrakurikuler")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(60, 8, "Kegiatan", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 8, "Capaian", "1", 0, "C", false, 0, "")
		pdf.CellFormat(105, 8, "Keterangan", "1", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, row := range data.Extracurricular {
			pdf.CellFormat(60, 7, row.ActivityName, "1", 0, "", false, 0, "")
			pdf.CellFormat(25, 7, row.Level, "1", 0, "C", false, 0, "")
			pdf.CellFormat(105, 7, clip(row.Description, 80), "1", 1, "", false, 0, "")
		}
	}

	section(pdf, "Ketidakhadiran")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, "Sakit", "1", 0, "", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("%d hari", data.Attendance.Sick), "1", 1, "C", false, 0, "")
	pdf.CellFormat(95, 7, "Izin", "1", 0, "", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("%d hari", data.Attendance.Permission), "1", 1, "C", false, 0, "")
	pdf.CellFormat(95, 7, "Tanpa Keterangan", "1", 0, "", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("%d hari", data.Attendance.Absent), "1", 1, "C", false, 0, "")

	writeNotes(pdf, data)
	return output(pdf)
}

func newPage(data Data, title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	identity := [][2]string{
		{"Nama Peserta Didik", data.StudentName},
		{"NIS / NISN", fmt.Sprintf("%s / %s", data.NIS, data.NISN)},
		{"Kelas", fmt.Sprintf("%s (%s)", data.ClassroomName, data.LevelName)},
		{"Tahun Ajaran", data.AcademicYearName},
		{"Semester", data.Semester},
	}
	for _, pair := range identity {
		pdf.CellFormat(50, 6, pair[0], "", 0, "", false, 0, "")
		pdf.CellFormat(5, 6, ":", "", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, pair[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)
	return pdf
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, title, "", 1, "", false, 0, "")
}

func writeNotes(pdf *gofpdf.Fpdf, data Data) {
	notes := [][2]string{
		{"Catatan Wali Kelas", data.TeacherNote},
		{"Catatan Kepala Sekolah", data.PrincipalNote},
		{"Catatan Sikap", data.CharacterNote},
	}
	for _, pair := range notes {
		if pair[1] == "" {
			continue
		}
		section(pdf, pair[0])
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, pair[1], "1", "", false)
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 6, "Orang Tua / Wali", "", 0, "C", false, 0, "")
	pdf.CellFormat(95, 6, "Wali Kelas", "", 1, "C", false, 0, "")
	pdf.Ln(16)
	pdf.CellFormat(95, 6, "(............................)", "", 0, "C", false, 0, "")
	pdf.CellFormat(95, 6, data.TeacherName, "", 1, "C", false, 0, "")
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render rapor pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
