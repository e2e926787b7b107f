package usecase

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxPhotoBytes caps uploaded photos at 2 MiB.
const DefaultMaxPhotoBytes = 2 << 20

// PhotoUploads turns image uploads into data URLs on the personal info.
// Uploads may finish out of order; only the most recently started one is
// applied.
type PhotoUploads struct {
	doc      *Document
	maxBytes int64

	mu      sync.Mutex
	started uint64
}

func NewPhotoUploads(doc *Document, maxBytes int64) *PhotoUploads {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPhotoBytes
	}
	return &PhotoUploads{doc: doc, maxBytes: maxBytes}
}

// Begin reserves a sequence number for a new upload.
func (p *PhotoUploads) Begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started++
	return p.started
}

// Complete reads the image, checks it and applies it if seq is still the
// latest started upload. A superseded upload returns ErrStalePhoto.
func (p *PhotoUploads) Complete(seq uint64, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return "", domain.ErrPhotoTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedPhoto, mt.String())
	}
	url := "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.started {
		return "", domain.ErrStalePhoto
	}
	p.doc.UpdatePersonalInfo(model.PersonalInfoPatch{Photo: &url})
	return url, nil
}

// Upload is Begin followed by Complete.
func (p *PhotoUploads) Upload(r io.Reader) (string, error) {
	return p.Complete(p.Begin(), r)
}
