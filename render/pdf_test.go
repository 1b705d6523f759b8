package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertcolmenero/invoicehub/models"
)

func newTestRenderer(logoOrigins ...string) *PDFRenderer {
	return NewPDFRenderer(2*time.Second, logoOrigins, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertPDF(t *testing.T, doc []byte) {
	t.Helper()
	require.NotEmpty(t, doc)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")), "missing PDF header")
}

func TestRenderInvoice(t *testing.T) {
	inv := sampleInvoice()
	inv.Notes = lo.ToPtr("Thanks for the café order.\nSecond line.")
	inv.Items[0].Description = strings.Repeat("Long description that wraps. ", 8)

	doc, err := newTestRenderer().RenderInvoice(context.Background(), NewInput(inv, models.User{CompanyName: lo.ToPtr("Studio")}))
	require.NoError(t, err)
	assertPDF(t, doc)
}

func TestRenderInvoiceWithoutItemsOrClient(t *testing.T) {
	inv := sampleInvoice()
	inv.Items = nil
	inv.Client = nil

	doc, err := newTestRenderer().RenderInvoice(context.Background(), NewInput(inv, models.User{}))
	require.NoError(t, err)
	assertPDF(t, doc)
}

func TestRenderInvoiceLogo(t *testing.T) {
	logo := pngBytes(t)
	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0xff}, 64)...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(logo)
		case "/corrupt.png":
			w.Write(corrupt)
		case "/page.html":
			w.Write([]byte("<html><body>not a logo</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := newTestRenderer(srv.URL)
	var withLogo []byte
	for _, path := range []string{"/logo.png", "/corrupt.png", "/page.html", "/missing.png"} {
		t.Run(path, func(t *testing.T) {
			owner := models.User{CompanyName: lo.ToPtr("Studio"), Logo: lo.ToPtr(srv.URL + path)}
			doc, err := r.RenderInvoice(context.Background(), NewInput(sampleInvoice(), owner))
			require.NoError(t, err, "a bad logo never fails the render")
			assertPDF(t, doc)
			if path == "/logo.png" {
				withLogo = doc
			}
		})
	}

	plain, err := r.RenderInvoice(context.Background(), NewInput(sampleInvoice(), models.User{CompanyName: lo.ToPtr("Studio")}))
	require.NoError(t, err)
	assert.Greater(t, len(withLogo), len(plain), "logo is embedded")
}

func TestRenderInvoiceUnreachableLogo(t *testing.T) {
	owner := models.User{Logo: lo.ToPtr("http://127.0.0.1:1/logo.png")}
	r := newTestRenderer("http://127.0.0.1:1")
	r.http.RetryMax = 0

	doc, err := r.RenderInvoice(context.Background(), NewInput(sampleInvoice(), owner))
	require.NoError(t, err)
	assertPDF(t, doc)
}

func TestLogoAllowed(t *testing.T) {
	r := newTestRenderer("https://cdn.example.test/logos", "http://127.0.0.1:8080/", "ftp://files.example.test/", "::bad")
	require.Len(t, r.logoOrigins, 2)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.test/logos/owner-1/a.png", true},
		{"https://CDN.example.test/logos/a.png", true},
		{"http://127.0.0.1:8080/a.png", true},
		{"https://cdn.example.test/logos", false},
		{"https://cdn.example.test/logosx/a.png", false},
		{"https://cdn.example.test/other/a.png", false},
		{"http://cdn.example.test/logos/a.png", false},
		{"https://cdn.example.test.evil.test/logos/a.png", false},
		{"https://cdn.example.test@169.254.169.254/logos/a.png", false},
		{"https://user@cdn.example.test/logos/a.png", false},
		{"https://cdn.example.test/logos/../admin", false},
		{"https://cdn.example.test/logos/%2e%2e/admin", false},
		{"http://127.0.0.1:9090/a.png", false},
		{"http://169.254.169.254/latest/meta-data/", false},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, r.logoAllowed(u), tt.url)
	}

	assert.False(t, newTestRenderer().logoAllowed(&url.URL{Scheme: "https", Host: "cdn.example.test", Path: "/a.png"}),
		"no origins allows nothing")
}

func TestRenderInvoiceSkipsForeignLogo(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		w.Write(pngBytes(t))
	}))
	defer internal.Close()

	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/secret.png", http.StatusFound)
	}))
	defer cdn.Close()

	r := newTestRenderer(cdn.URL + "/logos/")
	r.http.RetryMax = 0
	for _, logo := range []string{internal.URL + "/secret.png", cdn.URL + "/logos/bounce.png"} {
		owner := models.User{Logo: lo.ToPtr(logo)}
		doc, err := r.RenderInvoice(context.Background(), NewInput(sampleInvoice(), owner))
		require.NoError(t, err)
		assertPDF(t, doc)
	}
	assert.Zero(t, internalHits.Load(), "nothing outside the allowed origins is requested")
}
