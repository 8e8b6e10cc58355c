package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries the fields printed on a completion certificate.
type CertificateDocument struct {
	Number         string
	StudentName    string
	CourseTitle    string
	InstructorName string
	IssuedAt       time.Time
}

// CertificateRenderer draws completion certificates as single page landscape PDFs.
type CertificateRenderer struct {
	platform string
}

// NewCertificateRenderer constructs a renderer branded with the platform name.
func NewCertificateRenderer(platform string) *CertificateRenderer {
	if platform == "" {
		platform = "Cosmos Learn"
	}
	return &CertificateRenderer{platform: platform}
}

// Render produces the PDF bytes for doc.
func (r *CertificateRenderer) Render(doc CertificateDocument) ([]byte, error) {
	if doc.Number == "" || doc.StudentName == "" || doc.CourseTitle == "" {
		return nil, fmt.Errorf("certificate requires number, student and course")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Certificate %s", doc.Number), true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(14, 14, 269, 182, "D")

	pdf.SetY(35)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 14, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 10, tr(r.platform), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 14, tr(doc.StudentName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "has successfully completed", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 10, tr(doc.CourseTitle), "", "C", false)

	if doc.InstructorName != "" {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.CellFormat(0, 8, tr("Instructor: "+doc.InstructorName), "", 1, "C", false, 0, "")
	}

	pdf.SetY(170)
	pdf.SetFont("Helvetica", "", 10)
	issued := doc.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	pdf.CellFormat(130, 6, "Issued "+issued.UTC().Format("January 2, 2006"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Certificate No. "+doc.Number, "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
