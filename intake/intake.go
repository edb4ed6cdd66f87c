package intake

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// MaxFileSize caps a single staged image at 10 MB.
const MaxFileSize = 10 << 20

// allowedMIME is the fixed allow-list for staged images. The type is
// sniffed from content bytes, never trusted from the client.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// File is one staged image waiting for analysis.
type File struct {
	Name string
	MIME string
	Data []byte
}

// ValidationError aggregates every rejected file from one batch into a
// single user-facing message. Accepted files from the same batch are
// still staged.
type ValidationError struct {
	Rejected []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"Some files couldn't be added: %s. Please use JPG, PNG, or WebP images under 10MB. iPhone users: convert HEIC photos to JPG first.",
		strings.Join(e.Rejected, ", "))
}

// Staging accumulates validated files across multiple add calls until
// an analysis run consumes and clears them.
type Staging struct {
	mu    sync.Mutex
	files []File
}

func NewStaging() *Staging {
	return &Staging{}
}

// Add validates and stages a batch. Files failing the MIME allow-list
// or the size cap are skipped and reported together in one
// *ValidationError; every passing file is staged regardless.
func (s *Staging) Add(files ...File) error {
	var rejected []string
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		sniffed := http.DetectContentType(f.Data)
		if !allowedMIME[sniffed] || len(f.Data) > MaxFileSize {
			rejected = append(rejected, f.Name)
			continue
		}
		f.MIME = sniffed
		s.files = append(s.files, f)
	}
	if len(rejected) > 0 {
		return &ValidationError{Rejected: rejected}
	}
	return nil
}

// Remove drops the staged file at index i.
func (s *Staging) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.files) {
		return fmt.Errorf("intake: no staged file at index %d", i)
	}
	s.files = append(s.files[:i], s.files[i+1:]...)
	return nil
}

// Clear empties the staging list. Called after a successful analysis.
func (s *Staging) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
}

// Files returns a snapshot of the staged files in staging order.
func (s *Staging) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

// Len reports how many files are currently staged.
func (s *Staging) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Registry hands out one Staging per account.
type Registry struct {
	mu       sync.Mutex
	stagings map[int64]*Staging
}

func NewRegistry() *Registry {
	return &Registry{stagings: make(map[int64]*Staging)}
}

// For returns the staging list for the given account, creating it on
// first use.
func (r *Registry) For(accountID int64) *Staging {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stagings[accountID]
	if !ok {
		s = NewStaging()
		r.stagings[accountID] = s
	}
	return s
}
