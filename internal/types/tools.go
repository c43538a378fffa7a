package types

// Paper is one search hit returned by the paper_search server
type Paper struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Published string   `json:"published"`
	Summary   string   `json:"summary"`
	PdfURL    string   `json:"pdf_url"`
}

type PaperSearchRequest struct {
	Query      string `json:"query" binding:"required"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type PaperSearchResponse struct {
	Status string  `json:"status"`
	Papers []Paper `json:"papers"`
}

type PdfSummarizeRequest struct {
	PdfURL string `json:"pdf_url" binding:"required"`
}

type PdfSummarizeResponse struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// ErrorResponse is the body of every failed tool server request
type ErrorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// ToolResponse is the union of all tool server bodies, as read by the executor
type ToolResponse struct {
	Status  string  `json:"status"`
	Detail  string  `json:"detail"`
	Papers  []Paper `json:"papers"`
	Summary string  `json:"summary"`
}
