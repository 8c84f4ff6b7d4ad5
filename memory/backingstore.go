package memory

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/memsim/vm"
)

// ErrBackingStoreUnavailable is matched by every error raised when the backing
// store cannot supply a page.
var ErrBackingStoreUnavailable = errors.New("backing store unavailable")

// BackingStoreError reports a page that could not be read.
type BackingStoreError struct {
	Page   vm.PageNumber
	Offset int64
	Err    error
}

func (e *BackingStoreError) Error() string {
	return fmt.Sprintf("backing store: cannot read page %d at offset %d: %v",
		e.Page, e.Offset, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *BackingStoreError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrBackingStoreUnavailable) succeed.
func (e *BackingStoreError) Is(target error) bool {
	return target == ErrBackingStoreUnavailable
}

// A BackingStore is the read-only origin of every page.
type BackingStore interface {
	// FetchPage returns a fresh copy of the content of a page.
	FetchPage(page vm.PageNumber) ([]byte, error)
}

// FileBackingStore reads pages from a flat image, page n starting at byte
// n * pageSize.
type FileBackingStore struct {
	r        io.ReaderAt
	pageSize int
	closer   io.Closer
}

// NewFileBackingStore creates a backing store that reads from r.
func NewFileBackingStore(r io.ReaderAt, pageSize int) *FileBackingStore {
	if pageSize <= 0 {
		panic("page size must be positive")
	}

	return &FileBackingStore{r: r, pageSize: pageSize}
}

// OpenFileBackingStore opens the image at path.
func OpenFileBackingStore(path string, pageSize int) (*FileBackingStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &BackingStoreError{Page: 0, Offset: 0, Err: err}
	}

	s := NewFileBackingStore(f, pageSize)
	s.closer = f

	return s, nil
}

// FetchPage reads the page from the image. A short image is reported as an
// error rather than padded.
func (s *FileBackingStore) FetchPage(page vm.PageNumber) ([]byte, error) {
	offset := int64(page) * int64(s.pageSize)
	buf := make([]byte, s.pageSize)

	n, err := s.r.ReadAt(buf, offset)
	if n == s.pageSize {
		return buf, nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return nil, &BackingStoreError{Page: page, Offset: offset, Err: err}
}

// Close releases the file opened by OpenFileBackingStore.
func (s *FileBackingStore) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}

// BytesBackingStore serves pages out of an in-memory image.
type BytesBackingStore struct {
	data     []byte
	pageSize int
}

// NewBytesBackingStore creates a backing store over data.
func NewBytesBackingStore(data []byte, pageSize int) *BytesBackingStore {
	if pageSize <= 0 {
		panic("page size must be positive")
	}

	return &BytesBackingStore{data: data, pageSize: pageSize}
}

// FetchPage copies the page out of the image.
func (s *BytesBackingStore) FetchPage(page vm.PageNumber) ([]byte, error) {
	offset := int64(page) * int64(s.pageSize)
	end := offset + int64(s.pageSize)

	if end > int64(len(s.data)) {
		return nil, &BackingStoreError{
			Page:   page,
			Offset: offset,
			Err:    io.ErrUnexpectedEOF,
		}
	}

	buf := make([]byte, s.pageSize)
	copy(buf, s.data[offset:end])

	return buf, nil
}

// SyntheticByte is the content of the generated image at a flat index.
func SyntheticByte(index int, pageSize int) byte {
	return byte(index/pageSize) ^ byte(index%pageSize)
}

// GenerateBackingStore writes a deterministic image of numPages pages.
func GenerateBackingStore(w io.Writer, numPages int, pageSize int) error {
	page := make([]byte, pageSize)

	for p := 0; p < numPages; p++ {
		for i := range page {
			page[i] = SyntheticByte(p*pageSize+i, pageSize)
		}

		if _, err := w.Write(page); err != nil {
			return fmt.Errorf("writing page %d: %w", p, err)
		}
	}

	return nil
}
