// Package fetch retrieves carrier bytes from HTTP(S) URLs and data URIs.
package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
	"github.com/Skryldev/steg-extractor/utils"
)

// HTTP fetches carrier images over HTTP(S) and decodes inline data URIs.
// Safe for concurrent use.
type HTTP struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTP returns a fetcher with the given per-request timeout and size
// ceiling (0 = no limit).
func NewHTTP(timeout time.Duration, maxBytes int64) *HTTP {
	return &HTTP{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

var _ core.Fetcher = (*HTTP)(nil)

// Fetch returns the raw carrier bytes and the reported content type.
// Network failures are transient; a non-image content type is an input error.
func (h *HTTP) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURI(url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", apperrors.New(apperrors.CategoryInput, "fetch.request", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", apperrors.Transient("fetch.get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode >= 500 {
			return nil, "", apperrors.Transient("fetch.get", err)
		}
		return nil, "", apperrors.New(apperrors.CategoryFetch, "fetch.get", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", apperrors.New(apperrors.CategoryInput, "fetch.get",
			fmt.Errorf("%w: content type %q", apperrors.ErrNotAnImage, contentType))
	}

	body := resp.Body
	reader := &utils.LimitedReader{R: body, Max: h.maxBytes}
	buf, err := utils.DrainReader(ctx, reader, 32*1024)
	if err != nil {
		return nil, "", apperrors.Transient("fetch.read", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	return raw, contentType, nil
}

// decodeDataURI extracts the base64 payload of an image data URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	header, data, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, "", apperrors.New(apperrors.CategoryInput, "fetch.datauri",
			fmt.Errorf("malformed data URI"))
	}
	if !strings.Contains(header, "image/") {
		return nil, "", apperrors.New(apperrors.CategoryInput, "fetch.datauri",
			fmt.Errorf("%w: data URI header %q", apperrors.ErrNotAnImage, header))
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", apperrors.New(apperrors.CategoryInput, "fetch.datauri", err)
	}

	contentType := strings.TrimPrefix(header, "data:")
	if semi := strings.Index(contentType, ";"); semi >= 0 {
		contentType = contentType[:semi]
	}
	return raw, contentType, nil
}
