package static

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzhttp"

	apperrors "stripdemo/internal/errors"
)

// DotfilePolicy decides what happens to paths with a segment starting with "."
type DotfilePolicy string

const (
	// DotfilesIgnore answers 404 as if the file did not exist
	DotfilesIgnore DotfilePolicy = "ignore"
	// DotfilesAllow serves dotfiles like any other file
	DotfilesAllow DotfilePolicy = "allow"
	// DotfilesDeny answers 403
	DotfilesDeny DotfilePolicy = "deny"
)

// HandlerOptions configures asset resolution
type HandlerOptions struct {
	// IndexFile is served for directory requests; "" disables it
	IndexFile string
	Dotfiles  DotfilePolicy
	// ETag enables content-hash ETags
	ETag bool
	// GzipMinSize is the compression middleware's threshold; 0 when
	// responses are never compressed
	GzipMinSize int64
}

// Handler serves files from a root directory. It never lists directories
// and never redirects.
type Handler struct {
	root   http.FileSystem
	opts   HandlerOptions
	etags  *etagCache
	logger *slog.Logger
}

// NewHandler creates an asset handler over root
func NewHandler(root http.FileSystem, opts HandlerOptions, logger *slog.Logger) *Handler {
	if opts.Dotfiles == "" {
		opts.Dotfiles = DotfilesIgnore
	}
	h := &Handler{root: root, opts: opts, logger: logger}
	if opts.ETag {
		h.etags = newETagCache()
	}
	return h
}

// ServeHTTP answers GET and HEAD with the file at the request path, or 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.NotFound(w, r)
		return
	}

	name := cleanPath(r.URL.Path)
	if err := h.checkDotfiles(name); err != nil {
		h.fail(w, r, err)
		return
	}

	f, info, err := h.open(name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	if h.etags != nil {
		tag, err := h.etags.get(name, info, f)
		if err != nil {
			h.fail(w, r, apperrors.Wrap(apperrors.AssetUnreadable, name, err))
			return
		}
		if h.gzipped(r, info) {
			tag = gzipETag(tag)
		}
		w.Header().Set("ETag", tag)
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// NotFound writes the plain 404 response used for every unresolvable path
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, apperrors.New(apperrors.AssetNotFound, r.URL.Path))
}

// open resolves name to a regular file, substituting the index file for
// directories.
func (h *Handler) open(name string) (http.File, fs.FileInfo, error) {
	f, info, err := h.openFile(name)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return f, info, nil
	}

	_ = f.Close()
	if h.opts.IndexFile == "" {
		return nil, nil, apperrors.New(apperrors.AssetNotFound, name)
	}
	index := path.Join(name, h.opts.IndexFile)
	f, info, err = h.openFile(index)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, apperrors.New(apperrors.AssetNotFound, index)
	}
	return f, info, nil
}

func (h *Handler) openFile(name string) (http.File, fs.FileInfo, error) {
	f, err := h.root.Open(name)
	if err != nil {
		return nil, nil, classify(name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, classify(name, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, apperrors.New(apperrors.AssetNotFound, name)
	}
	return f, info, nil
}

func (h *Handler) checkDotfiles(name string) error {
	if h.opts.Dotfiles == DotfilesAllow {
		return nil
	}
	for _, seg := range strings.Split(name, "/") {
		if !strings.HasPrefix(seg, ".") {
			continue
		}
		if h.opts.Dotfiles == DotfilesDeny {
			return apperrors.New(apperrors.AssetForbidden, name)
		}
		return apperrors.New(apperrors.AssetNotFound, name)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := StatusFor(code)

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"requestID", GetRequestID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Failed to serve asset", append(attrs, "error", err.Error())...)
	} else {
		h.logger.Debug("Asset not served", attrs...)
	}

	writeError(w, status)
}

// gzipped reports whether the compression middleware will encode this
// response, using the same size, Accept-Encoding and content-type rules.
func (h *Handler) gzipped(r *http.Request, info fs.FileInfo) bool {
	if h.opts.GzipMinSize <= 0 || info.Size() < h.opts.GzipMinSize {
		return false
	}
	if r.Method == http.MethodHead || gzipQuality(r.Header.Get("Accept-Encoding")) <= 0 {
		return false
	}
	return gzhttp.DefaultContentTypeFilter(mime.TypeByExtension(path.Ext(info.Name())))
}

// gzipETag marks a strong ETag as belonging to the gzip coding: "abc" -> "abc-gzip"
func gzipETag(tag string) string {
	return strings.TrimSuffix(tag, `"`) + gzipETagSuffix + `"`
}

// gzipQuality returns the q-value of gzip in an Accept-Encoding header
func gzipQuality(header string) float64 {
	for _, part := range strings.Split(header, ",") {
		params := strings.Split(part, ";")
		if strings.ToLower(strings.TrimSpace(params[0])) != "gzip" {
			continue
		}
		q := 1.0
		for _, p := range params[1:] {
			if v, ok := strings.CutPrefix(strings.TrimSpace(p), "q="); ok {
				parsed, err := strconv.ParseFloat(v, 64)
				if err != nil || parsed < 0 {
					parsed = 0
				}
				q = parsed
			}
		}
		return q
	}
	return 0
}

// cleanPath returns the slash-rooted, dot-free form of p
func cleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func classify(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return apperrors.Wrap(apperrors.AssetNotFound, name, err)
	default:
		return apperrors.Wrap(apperrors.AssetUnreadable, name, err)
	}
}
