package http

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"billed/internal/middleware/security"
)

// ReceiptsPrefix is the URL prefix receipts are served under.
const ReceiptsPrefix = "/receipts/"

// receiptStore keeps uploaded receipts on disk under random names.
type receiptStore struct {
	dir string
}

func newReceiptStore(dir string) (*receiptStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return &receiptStore{dir: dir}, nil
}

// Save copies src to a new file keeping the extension of name, and returns
// the stored file name and its public URL.
func (s *receiptStore) Save(src io.Reader, name string) (stored, url string, err error) {
	stored = uuid.NewString() + strings.ToLower(filepath.Ext(name))
	dst, err := os.OpenFile(filepath.Join(s.dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("create receipt: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", "", fmt.Errorf("write receipt: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", "", fmt.Errorf("close receipt: %w", err)
	}
	return stored, path.Join(ReceiptsPrefix, stored), nil
}

// Remove deletes a stored receipt, ignoring missing files.
func (s *receiptStore) Remove(stored string) {
	if stored == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.dir, filepath.Base(stored)))
}

// Handler serves the stored receipts without directory listings.
func (s *receiptStore) Handler() http.Handler {
	files := http.StripPrefix(ReceiptsPrefix, http.FileServer(http.Dir(s.dir)))
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}
