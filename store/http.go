package store

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/oid"
)

// HTTP is an object store backed by a content-addressed HTTP server,
// addressed as "<base>/objects/<algo>/<hex>". It uses an in-process
// net/http client rather than shelling out to an external program, per
// the spec's preference (see DESIGN.md).
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTP returns an HTTP store against baseURL, using client if given or
// http.DefaultClient otherwise.
func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{BaseURL: baseURL, Client: client}
}

func (h *HTTP) StoreType() string { return "http" }

func (h *HTTP) objectURL(o oid.OID) string {
	return fmt.Sprintf("%s/objects/%s/%s", h.BaseURL, o.Algo, o.Hex)
}

func (h *HTTP) Has(ctx context.Context, o oid.OID) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.objectURL(o), nil)
	if err != nil {
		return false, dvserr.Wrap(dvserr.StorageError, "building HEAD request", err).WithPath(h.objectURL(o))
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return false, dvserr.Wrap(dvserr.StorageError, "HEAD request failed", err).WithPath(h.objectURL(o))
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, dvserr.New(dvserr.StorageError, fmt.Sprintf("unexpected HEAD status %d", resp.StatusCode)).WithPath(h.objectURL(o))
	}
}

func (h *HTTP) Get(ctx context.Context, o oid.OID, destPath string) error {
	url := h.objectURL(o)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dvserr.Wrap(dvserr.StorageError, "building GET request", err).WithPath(url)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return dvserr.Wrap(dvserr.StorageError, "GET request failed", err).WithPath(url)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return dvserr.New(dvserr.StorageError, "object not found on remote").WithPath(url)
	default:
		return dvserr.New(dvserr.StorageError, fmt.Sprintf("unexpected GET status %d", resp.StatusCode)).WithPath(url)
	}

	if err := atomicfile.WriteFrom(destPath, resp.Body, 0o644); err != nil {
		return dvserr.Wrap(dvserr.StorageError, "writing downloaded object", err).WithPath(destPath)
	}
	return nil
}

func (h *HTTP) Put(ctx context.Context, o oid.OID, srcPath string) error {
	url := h.objectURL(o)
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return dvserr.New(dvserr.FileNotFound, "put source does not exist").WithPath(srcPath)
		}
		return dvserr.Wrap(dvserr.StorageError, "opening put source", err).WithPath(srcPath)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return dvserr.Wrap(dvserr.StorageError, "building PUT request", err).WithPath(url)
	}
	if fi, statErr := f.Stat(); statErr == nil {
		req.ContentLength = fi.Size()
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return dvserr.Wrap(dvserr.StorageError, "PUT request failed", err).WithPath(url)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return dvserr.New(dvserr.StorageError, fmt.Sprintf("unexpected PUT status %d", resp.StatusCode)).WithPath(url)
	}
	return nil
}
