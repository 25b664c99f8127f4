package jsengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// httpModule returns the http object with get, post, put, delete methods
func (e *Engine) httpModule() *goja.Object {
	obj := e.runtime.NewObject()

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		method := method
		name := strings.ToLower(method)
		if err := obj.Set(name, func(call goja.FunctionCall) goja.Value {
			return e.doHTTPRequest(method, call.Arguments)
		}); err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set http.%s: %v", name, err)))
		}
	}

	// http.request(method, url, [options])
	if err := obj.Set("request", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(e.runtime.NewTypeError("http.request requires method and url"))
		}
		method := strings.ToUpper(call.Arguments[0].String())
		return e.doHTTPRequest(method, call.Arguments[1:])
	}); err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set http.request: %v", err)))
	}

	return obj
}

// HTTPResponse represents the response from an HTTP request
type HTTPResponse struct {
	Status  int                    `json:"status"`
	Body    string                 `json:"body"`
	Headers map[string]string      `json:"headers"`
	Ok      bool                   `json:"ok"`
	JSON    map[string]interface{} `json:"json,omitempty"`
}

// requestOptions is the parsed second argument of the http builtins.
type requestOptions struct {
	body    io.Reader
	headers map[string]string
	timeout time.Duration
}

func (e *Engine) parseRequestOptions(v goja.Value) requestOptions {
	opts := requestOptions{
		headers: make(map[string]string),
		timeout: DefaultHTTPTimeout,
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return opts
	}
	optsMap, ok := v.Export().(map[string]interface{})
	if !ok {
		return opts
	}

	if h, ok := optsMap["headers"].(map[string]interface{}); ok {
		for k, hv := range h {
			opts.headers[k] = fmt.Sprintf("%v", hv)
		}
	}

	switch b := optsMap["body"].(type) {
	case nil:
	case string:
		opts.body = strings.NewReader(b)
	default:
		jsonBytes, err := json.Marshal(b)
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("failed to encode body: %v", err)))
		}
		opts.body = bytes.NewReader(jsonBytes)
		if !hasHeader(opts.headers, "Content-Type") {
			opts.headers["Content-Type"] = "application/json"
		}
	}

	switch t := optsMap["timeout"].(type) {
	case int64:
		opts.timeout = time.Duration(t) * time.Millisecond
	case float64:
		opts.timeout = time.Duration(t * float64(time.Millisecond))
	}

	return opts
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// doHTTPRequest performs an HTTP request and returns the response
func (e *Engine) doHTTPRequest(method string, args []goja.Value) goja.Value {
	if len(args) < 1 {
		panic(e.runtime.NewTypeError(fmt.Sprintf("http.%s requires url", strings.ToLower(method))))
	}

	url := args[0].String()
	var optsArg goja.Value
	if len(args) > 1 {
		optsArg = args[1]
	}
	opts := e.parseRequestOptions(optsArg)

	ctx, cancel := context.WithTimeout(e.ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, opts.body)
	if err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to create request: %v", err)))
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		panic(e.runtime.NewGoError(fmt.Errorf("HTTP request failed: %w", err)))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(e.runtime.NewGoError(fmt.Errorf("failed to read response: %w", err)))
	}
	logger.Debug("script %s %s [%v] %d", method, req.URL.Path, time.Since(start), resp.StatusCode)

	response := HTTPResponse{
		Status:  resp.StatusCode,
		Body:    string(bodyBytes),
		Headers: make(map[string]string, len(resp.Header)),
		Ok:      resp.StatusCode >= 200 && resp.StatusCode < 300,
	}

	// Header names are lowercase and multi-value headers are joined, as
	// fetch-style APIs expose them
	for k, v := range resp.Header {
		response.Headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}

	var jsonBody map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &jsonBody); err == nil {
		response.JSON = jsonBody
	}

	responseObj := e.runtime.NewObject()
	for _, kv := range []struct {
		key string
		val interface{}
	}{
		{"status", response.Status},
		{"body", response.Body},
		{"headers", response.Headers},
		{"ok", response.Ok},
	} {
		if err := responseObj.Set(kv.key, kv.val); err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set response.%s: %v", kv.key, err)))
		}
	}

	// json is the parsed body, or null if the body is not a JSON object
	var jsonVal goja.Value = goja.Null()
	if response.JSON != nil {
		jsonVal = e.runtime.ToValue(response.JSON)
	}
	if err := responseObj.Set("json", jsonVal); err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set response.json: %v", err)))
	}

	return responseObj
}
