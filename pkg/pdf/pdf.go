// Package pdf renders schedule and patient summary exports.
package pdf

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Alijeyrad/carevisit_backend/config"
)

const ContentType = "application/pdf"

const (
	fontFamily = "body"
	lineHeight = 6.0
)

// Renderer holds the font and time zone shared by every export.
type Renderer struct {
	fontPath string
	loc      *time.Location
	appName  string
}

func New(fontPath string, loc *time.Location, appName string) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	if appName == "" {
		appName = "CareVisit"
	}
	return &Renderer{fontPath: fontPath, loc: loc, appName: appName}
}

func FromCentralConfig(c *config.Config) *Renderer {
	return New(c.Export.FontPath, c.Scheduling.Location(), c.Email.AppName)
}

// document wraps fpdf with the text translation needed when no UTF-8 font is available.
type document struct {
	*fpdf.Fpdf
	family string
	tr     func(string) string
}

func (r *Renderer) newDocument(title string, orientation string) *document {
	p := fpdf.New(orientation, "mm", "A4", "")
	p.SetTitle(title, true)
	p.SetCreator(r.appName, true)
	p.SetAutoPageBreak(true, 15)
	p.AliasNbPages("")

	d := &document{Fpdf: p, family: "Helvetica", tr: latin1}
	if r.fontPath != "" {
		if _, err := os.Stat(r.fontPath); err == nil {
			p.AddUTF8Font(fontFamily, "", r.fontPath)
			p.AddUTF8Font(fontFamily, "B", r.fontPath)
			d.family = fontFamily
			d.tr = func(s string) string { return s }
		}
	}

	generated := time.Now().In(r.loc).Format("2006-01-02 15:04")
	p.SetFooterFunc(func() {
		p.SetY(-12)
		d.font("", 8)
		p.CellFormat(0, 5, d.tr(fmt.Sprintf("%s  |  %s  |  %d/{nb}", r.appName, generated, p.PageNo())), "", 0, "C", false, 0, "")
	})
	return d
}

func (d *document) font(style string, size float64) {
	d.SetFont(d.family, style, size)
}

func (d *document) heading(text string) {
	d.font("B", 14)
	d.CellFormat(0, 9, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) finish(w io.Writer) error {
	if err := d.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := d.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// latin1 maps text to the core font encoding; runes outside it become '?'.
func latin1(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > 0xFF {
			r = '?'
		}
		b.WriteByte(byte(r))
	}
	return b.String()
}
