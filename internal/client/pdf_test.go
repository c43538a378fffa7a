package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paper-scout/scout/internal/config"
)

// minimalPDF builds a one-page PDF showing text in Helvetica
func minimalPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func newPDFTestClient(maxSize int64) *PDFClient {
	return NewPDFClient(config.PdfSummarizeServerConfig{DownloadTimeout: 2 * time.Second, MaxDownloadSize: maxSize})
}

func pdfServer(contentType string, status int, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
}

func TestPDFClient_Download(t *testing.T) {
	doc := minimalPDF("Attention Is All You Need")
	srv := pdfServer("application/pdf", http.StatusOK, doc)
	defer srv.Close()

	data, err := newPDFTestClient(0).Download(context.Background(), srv.URL+"/paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, doc, data)
}

func TestPDFClient_DownloadErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		maxSize     int64
		wantErr     error
	}{
		{name: "html page", contentType: "text/html; charset=utf-8", status: http.StatusOK, wantErr: ErrNotPDF},
		{name: "missing file", contentType: "application/pdf", status: http.StatusNotFound, wantErr: ErrPDFDownload},
		{name: "too large", contentType: "application/pdf", status: http.StatusOK, maxSize: 16, wantErr: ErrPDFTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := pdfServer(tt.contentType, tt.status, minimalPDF("x"))
			defer srv.Close()

			_, err := newPDFTestClient(tt.maxSize).Download(context.Background(), srv.URL)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPDFClient_DownloadNotFoundMentionsURL(t *testing.T) {
	srv := pdfServer("text/plain", http.StatusNotFound, nil)
	defer srv.Close()

	_, err := newPDFTestClient(0).Download(context.Background(), srv.URL+"/missing.pdf")
	require.ErrorIs(t, err, ErrPDFDownload)
	assert.Contains(t, err.Error(), srv.URL+"/missing.pdf")
	assert.Contains(t, err.Error(), "404 Not Found")
}

func TestPDFClient_ExtractText(t *testing.T) {
	text, err := newPDFTestClient(0).ExtractText(minimalPDF("Attention Is All You Need"))
	require.NoError(t, err)
	assert.Contains(t, text, "Attention")
}

func TestPDFClient_ExtractTextErrors(t *testing.T) {
	c := newPDFTestClient(0)

	_, err := c.ExtractText([]byte("definitely not a pdf"))
	assert.ErrorIs(t, err, ErrPDFExtract)

	_, err = c.ExtractText(minimalPDF("   "))
	assert.ErrorIs(t, err, ErrPDFEmptyText)
}
