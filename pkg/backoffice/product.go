package backoffice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/cases"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// maxCandidates bounds the names listed when no product matches.
const maxCandidates = 5

// ProductRow is one row of the inventory search table.
type ProductRow struct {
	ID   string // DT_RowId
	Name string // column "1"
}

// SearchProducts runs the inventory search for name. An HTML body means the
// session was not accepted and is reported as an authentication failure.
func (s *Session) SearchProducts(ctx context.Context, name string) ([]ProductRow, error) {
	form := url.Values{"sSearch": {name}}

	logger.Info("Searching for product: %s", name)
	resp, err := s.request(ctx, http.MethodPost, "products/ajaxInventoryWithCount", "product_search", formHeaders(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, core.ErrRequestFailure.WithMessage("search request failed").WithCause(err)
	}

	if resp.status != http.StatusOK {
		return nil, core.ErrRequestFailure.
			WithMessagef("search failed with status %d: %s", resp.status, resp.preview()).
			WithDetails(map[string]interface{}{"status": resp.status})
	}

	body := Classify(resp.body)
	switch body.Kind {
	case KindHTML:
		logger.Error("Received HTML response instead of JSON (%s) - likely authentication failed", body.MIME)
		return nil, core.ErrAuthenticationFailure.
			WithMessagef("authentication failed - received HTML instead of JSON response: %s", resp.preview())
	case KindUnparseable:
		return nil, core.ErrParseFailure.
			WithMessagef("invalid JSON response from search API (%s): %s", body.MIME, resp.preview())
	}

	return productRows(body.Value), nil
}

// productRows extracts aaData rows. A missing or malformed aaData yields no rows.
func productRows(v interface{}) []ProductRow {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := obj["aaData"].([]interface{})
	if !ok {
		return nil
	}

	rows := make([]ProductRow, 0, len(raw))
	for _, r := range raw {
		fields, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		rows = append(rows, ProductRow{
			ID:   fieldString(fields["DT_RowId"]),
			Name: fieldString(fields["1"]),
		})
	}
	return rows
}

func fieldString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// FindProduct returns the first row whose name equals name after trimming
// whitespace and case folding. Without a match it fails with NotFound listing
// up to five candidate names.
func FindProduct(rows []ProductRow, name string) (ProductRow, error) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))

	var matches []ProductRow
	for _, r := range rows {
		if fold.String(strings.TrimSpace(r.Name)) == want {
			matches = append(matches, r)
		}
	}

	if len(matches) == 0 {
		candidates := make([]string, 0, maxCandidates)
		for _, r := range rows {
			if len(candidates) == maxCandidates {
				break
			}
			candidates = append(candidates, r.Name)
		}
		logger.Error("Product not found by exact name. Candidates: %v", candidates)
		return ProductRow{}, core.ErrNotFound.
			WithMessagef("product '%s' not found. Available: %s", name, strings.Join(candidates, ", ")).
			WithDetails(map[string]interface{}{"candidates": candidates})
	}

	if len(matches) > 1 {
		logger.Warn("%d products named %q, using the first (id %s)", len(matches), name, matches[0].ID)
	}
	return matches[0], nil
}

// DeleteProducts deletes products by id. Only HTTP 200 counts as success.
func (s *Session) DeleteProducts(ctx context.Context, ids ...string) error {
	form := url.Values{"products[]": ids}

	logger.Info("Deleting product ID: %s", strings.Join(ids, ", "))
	resp, err := s.request(ctx, http.MethodPost, "products/ajaxDeleteProducts", "product_delete", formHeaders(), strings.NewReader(form.Encode()))
	if err != nil {
		return core.ErrRequestFailure.WithMessage("delete request failed").WithCause(err)
	}

	if resp.status != http.StatusOK {
		return core.ErrRequestFailure.
			WithMessagef("delete failed with status %d: %s", resp.status, resp.preview()).
			WithDetails(map[string]interface{}{"status": resp.status})
	}

	logger.Info("Product deleted successfully. HTTP %d", resp.status)
	return nil
}
