package types

// OutcomeStatus tags the result of one tool invocation
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// Tool server response status values
const (
	ToolStatusSuccess = "success"
	ToolStatusError   = "error"
)

// Request Headers
const (
	HeaderRequestId = "x-request-id"
)

const (
	DefaultSystemPrompt = "You are a helpful AI assistant that helps users discover and summarize recent research papers using the available tools. When searching, try to be specific about the query and number of results. For summarization, request a PDF URL."

	SummarizeSystemPrompt = "You are a helpful assistant specialized in summarizing scientific papers. Summarize the provided text from a PDF succinctly and accurately."
)
