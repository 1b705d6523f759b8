package render

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jung-kurt/gofpdf"

	"github.com/albertcolmenero/invoicehub/apperr"
)

const (
	maxLogoBytes = 5 << 20
	logoWidth    = 35.0
	lineHeight   = 5.0
	rowHeight    = 7.0
	maxRedirects = 5
)

// table columns in mm, summing to the printable width of an A4 page with
// 20 mm margins
const (
	colDescription = 80.0
	colQty         = 20.0
	colPrice       = 25.0
	colTax         = 20.0
	colTotal       = 25.0
)

// PDFRenderer lays invoices out as a single A4 PDF.
type PDFRenderer struct {
	http        *retryablehttp.Client
	logoOrigins []*url.URL
	logger      *slog.Logger
}

// NewPDFRenderer returns a renderer whose logo downloads give up after
// logoTimeout per attempt. Logos are only fetched from URLs under one of
// logoOrigins, redirects included; with no origins no logo is fetched.
func NewPDFRenderer(logoTimeout time.Duration, logoOrigins []string, logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &PDFRenderer{logger: logger}
	for _, o := range logoOrigins {
		u, err := url.Parse(strings.TrimSpace(o))
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			logger.Warn("ignoring logo origin", "origin", o)
			continue
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		r.logoOrigins = append(r.logoOrigins, u)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = logoTimeout
	client.HTTPClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return apperr.New("too many logo redirects").Mark(apperr.ErrValidation)
		}
		if !r.logoAllowed(req.URL) {
			return apperr.Newf("logo redirect to %s outside allowed origins", req.URL.Redacted()).Mark(apperr.ErrValidation)
		}
		return nil
	}
	client.Logger = logger
	r.http = client
	return r
}

// logoAllowed reports whether u lies under a configured origin.
func (r *PDFRenderer) logoAllowed(u *url.URL) bool {
	if u == nil || u.User != nil || u.Host == "" {
		return false
	}
	if strings.Contains(u.Path, "..") || strings.Contains(u.RawPath, "%2e") || strings.Contains(u.RawPath, "%2E") {
		return false
	}
	for _, o := range r.logoOrigins {
		if strings.EqualFold(o.Scheme, u.Scheme) && strings.EqualFold(o.Host, u.Host) &&
			strings.HasPrefix(u.Path, o.Path) {
			return true
		}
	}
	return false
}

// RenderInvoice returns the complete PDF or an error; never partial output.
// A logo that cannot be fetched or decoded is left out.
func (r *PDFRenderer) RenderInvoice(ctx context.Context, in Input) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetTitle("Invoice "+in.Invoice.Number, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-20)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, lineHeight, "Thank you for your business!", "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if in.Letterhead.LogoURL != "" {
		r.placeLogo(ctx, pdf, in.Letterhead.LogoURL)
	}

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	text := func(style string, size float64, s string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.MultiCell(0, lineHeight, tr(s), "", "L", false)
	}

	if lh := in.Letterhead; lh.CompanyName != "" {
		text("B", 11, lh.CompanyName)
		for _, l := range lh.AddressLines {
			text("", 10, l)
		}
		if lh.Phone != "" {
			text("", 10, "Phone: "+lh.Phone)
		}
		pdf.Ln(3)
	}

	text("", 10, "Invoice Number: "+in.Invoice.Number)
	text("", 10, "Date: "+in.Invoice.Date)
	text("", 10, "Due Date: "+in.Invoice.DueDate)
	pdf.Ln(6)

	text("B", 13, "Bill To:")
	text("", 10, in.BillTo.Name)
	for _, l := range in.BillTo.AddressLines {
		text("", 10, l)
	}
	if in.BillTo.Email != "" {
		text("", 10, in.BillTo.Email)
	}
	pdf.Ln(6)

	r.itemTable(pdf, tr, in.Items)
	pdf.Ln(4)

	total := func(style, label, value string) {
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(colDescription+colQty+colPrice, rowHeight, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(colTax+colTotal, rowHeight, value, "", 1, "R", false, 0, "")
	}
	total("", "Subtotal:", in.Totals.Subtotal)
	total("", "Tax Amount:", in.Totals.TaxAmount)
	total("B", "Total:", in.Totals.Total)

	if in.Invoice.PaymentTerms != "" {
		pdf.Ln(6)
		text("B", 10, "Payment Terms:")
		text("", 10, in.Invoice.PaymentTerms)
	}
	if in.Invoice.Notes != "" {
		pdf.Ln(4)
		text("B", 10, "Notes:")
		text("", 10, in.Invoice.Notes)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.Wrap(err).
			WithMessagef("rendering invoice %s", in.Invoice.Number).
			WithHint("failed to render invoice").
			Mark(apperr.ErrRender)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) itemTable(pdf *gofpdf.Fpdf, tr func(string) string, items []LineItemView) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(colDescription, rowHeight, "Description", "B", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, rowHeight, "Qty", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colPrice, rowHeight, "Price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colTax, rowHeight, "Tax", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colTotal, rowHeight, "Total", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range items {
		lines := pdf.SplitText(tr(it.Description), colDescription-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		h := float64(len(lines)) * rowHeight
		if _, pageH := pdf.GetPageSize(); pdf.GetY()+h > pageH-25 {
			pdf.AddPage()
		}

		x, y := pdf.GetXY()
		pdf.MultiCell(colDescription, rowHeight, strings.Join(lines, "\n"), "B", "L", false)
		pdf.SetXY(x+colDescription, y)
		pdf.CellFormat(colQty, h, it.Quantity, "B", 0, "R", false, 0, "")
		pdf.CellFormat(colPrice, h, it.UnitPrice, "B", 0, "R", false, 0, "")
		pdf.CellFormat(colTax, h, it.TaxPercent, "B", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, h, it.Amount, "B", 1, "R", false, 0, "")
	}
}

// placeLogo draws the logo in the top right corner. The image is decoded in
// a scratch document first because a failed decode poisons the real one.
func (r *PDFRenderer) placeLogo(ctx context.Context, pdf *gofpdf.Fpdf, logoURL string) {
	data, imageType, ok := r.fetchLogo(ctx, logoURL)
	if !ok {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}

	probe := gofpdf.New("P", "mm", "A4", "")
	probe.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	if err := probe.Error(); err != nil {
		r.logger.Warn("logo could not be decoded", "url", logoURL, "error", err)
		return
	}

	pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	pageW, _ := pdf.GetPageSize()
	_, _, right, _ := pdf.GetMargins()
	pdf.ImageOptions("logo", pageW-right-logoWidth, 15, logoWidth, 0, false, opts, 0, "")
}

func (r *PDFRenderer) fetchLogo(ctx context.Context, logoURL string) ([]byte, string, bool) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		r.logger.Warn("invalid logo url", "url", logoURL, "error", err)
		return nil, "", false
	}
	if !r.logoAllowed(req.URL) {
		r.logger.Warn("logo url outside allowed origins", "url", logoURL)
		return nil, "", false
	}
	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Warn("failed to fetch logo", "url", logoURL, "error", err)
		return nil, "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("failed to fetch logo", "url", logoURL, "status", resp.StatusCode)
		return nil, "", false
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil || len(data) > maxLogoBytes {
		r.logger.Warn("logo unreadable or too large", "url", logoURL, "bytes", len(data), "error", err)
		return nil, "", false
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, "", false
	}
	switch kind.Extension {
	case "png":
		return data, "PNG", true
	case "jpg":
		return data, "JPG", true
	case "gif":
		return data, "GIF", true
	}
	r.logger.Warn("unsupported logo format", "url", logoURL, "mime", kind.MIME.Value)
	return nil, "", false
}

var _ Renderer = (*PDFRenderer)(nil)
