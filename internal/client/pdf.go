package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/config"
	"github.com/paper-scout/scout/internal/logger"
)

const pdfContentType = "application/pdf"

var (
	ErrNotPDF       = errors.New("provided URL does not point to a PDF")
	ErrPDFDownload  = errors.New("failed to download PDF")
	ErrPDFTooLarge  = errors.New("PDF exceeds the download size limit")
	ErrPDFExtract   = errors.New("failed to extract text from PDF")
	ErrPDFEmptyText = errors.New("no readable text found in the PDF")
)

// PDFInterface fetches papers and turns them into plain text
type PDFInterface interface {
	Download(ctx context.Context, url string) ([]byte, error)
	ExtractText(data []byte) (string, error)
}

// PDFClient downloads PDFs over HTTP
type PDFClient struct {
	httpClient *HTTPClient
	maxSize    int64
}

func NewPDFClient(c config.PdfSummarizeServerConfig) *PDFClient {
	return &PDFClient{
		httpClient: NewHTTPClient("", HTTPClientConfig{Timeout: c.DownloadTimeout}),
		maxSize:    c.MaxDownloadSize,
	}
}

// Download fetches url and checks that it is served as a PDF
func (c *PDFClient) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.httpClient.DoRequest(ctx, Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrPDFDownload, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w from %s: %s", ErrPDFDownload, url, resp.Status)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), pdfContentType) {
		return nil, ErrNotPDF
	}

	var body io.Reader = resp.Body
	if c.maxSize > 0 {
		body = io.LimitReader(resp.Body, c.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrPDFDownload, url, err)
	}
	if c.maxSize > 0 && int64(len(data)) > c.maxSize {
		return nil, fmt.Errorf("%w of %d bytes", ErrPDFTooLarge, c.maxSize)
	}

	logger.Info("downloaded PDF", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}

// ExtractText concatenates the plain text of every page. Pages without
// extractable text contribute nothing.
func (c *PDFClient) ExtractText(data []byte) (text string, err error) {
	// the reader panics on some corrupt cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrPDFExtract, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDFExtract, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("skipping unreadable PDF page", zap.Int("page", i), zap.Error(err))
			continue
		}
		sb.WriteString(pageText)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrPDFEmptyText
	}
	return sb.String(), nil
}
