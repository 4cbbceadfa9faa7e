// Package http exposes the tracker operations as a JSON API.
//
// This file implements request body parsing. Bodies may be JSON objects or
// form-encoded; JSON numbers are kept as their literal text so amounts never
// pass through float64.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"freshlife/internal/services"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles JSON and form-encoded request bodies.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}
	if trimmed[0] == '[' {
		p.err = errors.New("request body must be a JSON object")
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetAmount returns an amount in the user-typed form. JSON numbers use a
// dot as the decimal point, which amount parsing would read as a thousand
// separator, so the dot is rewritten to a comma.
func (p *RequestBodyParser) GetAmount(key string) string {
	if p.jsonData != nil {
		if n, ok := p.jsonData[key].(json.Number); ok {
			return strings.Replace(n.String(), ".", ",", 1)
		}
	}
	return p.Get(key)
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody runs the parser and reports a 400 builder on failure.
func parseBody(r *http.Request) (*RequestBodyParser, *JSONResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return nil, ErrorResponse(http.StatusRequestEntityTooLarge, CodeBadRequest, err.Error())
		}
		return nil, BadRequestError(err.Error())
	}
	return p, nil
}

// Amounts are accepted as JSON strings or numbers.
func newBudgetPeriodFrom(p *RequestBodyParser) services.NewBudgetPeriod {
	return services.NewBudgetPeriod{
		Title:        p.Get("title"),
		DateFrom:     p.Get("dateFrom"),
		DateTo:       p.Get("dateTo"),
		BudgetAmount: p.GetAmount("budgetAmount"),
	}
}

func newExpenseFrom(p *RequestBodyParser) services.NewExpense {
	return services.NewExpense{
		Title:  p.Get("title"),
		Tag:    p.Get("tag"),
		Amount: p.GetAmount("amount"),
		Reason: p.Get("reason"),
	}
}

func newTaskFrom(p *RequestBodyParser) services.NewTask {
	return services.NewTask{
		Title:       p.Get("title"),
		Description: p.Get("description"),
		DueDate:     p.Get("dueDate"),
		Priority:    p.Get("priority"),
		Tag:         p.Get("tags"),
	}
}
