package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrorCode classifies a failed tool call for programmatic handling.
type ErrorCode string

const (
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeCategoryNotFound   ErrorCode = "CATEGORY_NOT_FOUND"
	CodeInvalidCategory    ErrorCode = "INVALID_CATEGORY"
	CodeUnknownTool        ErrorCode = "UNKNOWN_TOOL"
	CodeToolExecutionError ErrorCode = "TOOL_EXECUTION_ERROR"
	CodeFileNotFound       ErrorCode = "FILE_NOT_FOUND"
	CodeFileAccessError    ErrorCode = "FILE_ACCESS_ERROR"
	CodeConfigError        ErrorCode = "CONFIG_ERROR"
	CodeMissingConfig      ErrorCode = "MISSING_CONFIG"
	CodePatternError       ErrorCode = "PATTERN_ERROR"
	CodeInvalidPattern     ErrorCode = "INVALID_PATTERN"
)

const statusFailed = "failed"

// ErrorResponse is the structured body of a failed tool call. It doubles as a Go error.
type ErrorResponse struct {
	Message    string         `json:"error"`
	Code       ErrorCode      `json:"error_code"`
	Status     string         `json:"status"`
	Suggestion string         `json:"suggestion,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewErrorResponse(code ErrorCode, message, suggestion string, details map[string]any) *ErrorResponse {
	return &ErrorResponse{
		Message:    message,
		Code:       code,
		Status:     statusFailed,
		Suggestion: suggestion,
		Details:    details,
	}
}

func CategoryNotFound(category string, available []string) *ErrorResponse {
	suggestion := "Please check the spelling or use one of the supported categories."
	if len(available) > 0 {
		suggestion += " Available categories: " + strings.Join(available, ", ")
	}
	return NewErrorResponse(CodeCategoryNotFound,
		fmt.Sprintf("Category '%s' is not supported.", category),
		suggestion,
		map[string]any{"requested_category": category, "available_categories": available})
}

func InvalidInput(message, field string) *ErrorResponse {
	var details map[string]any
	if field != "" {
		details = map[string]any{"field": field}
	}
	return NewErrorResponse(CodeInvalidInput, message, "Please check the input values and try again.", details)
}

func InternalError(err error) *ErrorResponse {
	return NewErrorResponse(CodeInternalError,
		fmt.Sprintf("An internal error occurred: %v", err),
		"Please report this issue to the maintainers.",
		map[string]any{"exception_type": fmt.Sprintf("%T", err)})
}

// asErrorResponse keeps structured errors as they are and wraps anything else as internal.
func asErrorResponse(err error) *ErrorResponse {
	var resp *ErrorResponse
	if errors.As(err, &resp) {
		return resp
	}
	return InternalError(err)
}

// errorResult renders resp as a tool result flagged with isError.
func errorResult(resp *ErrorResponse) *mcpsdk.CallToolResult {
	body, err := json.Marshal(resp)
	if err != nil {
		body = []byte(fmt.Sprintf(`{"error":%q,"error_code":%q,"status":"failed"}`, resp.Message, resp.Code))
	}
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(body)}},
	}
}
