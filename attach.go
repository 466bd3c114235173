package agencykit

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"

	ownerProject  = "project"
	ownerBlogPost = "blog_post"

	fieldImage         = "image"
	fieldFeaturedImage = "featured_image"
)

// Attachment records a stored file slot on an entity. Each (owner,
// field) pair holds at most one attachment; re-attaching replaces it.
type Attachment struct {
	ID          string    `db:"id" json:"id"`
	OwnerType   string    `db:"owner_type" json:"owner_type"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	Field       string    `db:"field" json:"field"`
	Filename    string    `db:"filename" json:"filename"`
	ContentType string    `db:"content_type" json:"content_type"`
	Width       int       `db:"width" json:"width"`
	Height      int       `db:"height" json:"height"`
	Size        int       `db:"size" json:"size"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// processImage decodes an image from src, resizes it down to
// maxImageWidth if wider, and re-encodes it as JPEG. The stored filename
// is the attachment id, so uploads never collide or leak client names.
func processImage(src io.Reader) (Attachment, []byte, error) {
	raw, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return Attachment{}, nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(raw) > maxUploadSize {
		return Attachment{}, nil, fmt.Errorf("upload exceeds %d bytes", maxUploadSize)
	}
	// Sniff the real content type; the client-supplied one is not trusted.
	mtype := mimetype.Detect(raw)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return Attachment{}, nil, fmt.Errorf("unsupported upload type %s", mtype.String())
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Attachment{}, nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Attachment{}, nil, fmt.Errorf("encoding jpeg: %w", err)
	}

	id := uuid.NewString()
	att := Attachment{
		ID:          id,
		Filename:    id + ".jpg",
		ContentType: "image/jpeg",
		Width:       w,
		Height:      h,
		Size:        buf.Len(),
		CreatedAt:   time.Now().UTC(),
	}
	return att, buf.Bytes(), nil
}

// Attach processes an uploaded image and binds it to (ownerType,
// ownerID, field), replacing any previous attachment in that slot and
// removing its file from disk.
func (a *App) Attach(ownerType string, ownerID int64, field string, src io.Reader) (Attachment, error) {
	att, data, err := processImage(src)
	if err != nil {
		return Attachment{}, err
	}
	att.OwnerType = ownerType
	att.OwnerID = ownerID
	att.Field = field

	dir := filepath.Join(a.staticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Attachment{}, fmt.Errorf("creating uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, att.Filename), data, 0o644); err != nil {
		return Attachment{}, fmt.Errorf("writing upload: %w", err)
	}

	prior, err := a.Store.SaveAttachment(att)
	if err != nil {
		_ = os.Remove(filepath.Join(dir, att.Filename))
		return Attachment{}, err
	}
	if prior != nil {
		_ = os.Remove(filepath.Join(dir, prior.Filename))
	}
	return att, nil
}

// Detach removes the attachment in the given slot, if any.
func (a *App) Detach(ownerType string, ownerID int64, field string) error {
	att, err := a.Store.GetAttachment(ownerType, ownerID, field)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	if err := a.Store.DeleteAttachment(att.ID); err != nil {
		return err
	}
	_ = os.Remove(filepath.Join(a.staticDir, uploadsSubdir, att.Filename))
	return nil
}

// AttachmentURL returns the public URL for the attachment in the given
// slot, or nil when the slot is empty.
func (a *App) AttachmentURL(ownerType string, ownerID int64, field string) *string {
	att, err := a.Store.GetAttachment(ownerType, ownerID, field)
	if err != nil {
		return nil
	}
	u := "/public/" + uploadsSubdir + "/" + att.Filename
	return &u
}

// SaveAttachment upserts the attachment row for its (owner, field) slot
// and returns the replaced attachment, if one existed.
func (s *Store) SaveAttachment(att Attachment) (*Attachment, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	var prior Attachment
	var replaced *Attachment
	err = tx.Get(&prior, `SELECT * FROM attachments WHERE owner_type = ? AND owner_id = ? AND field = ?`,
		att.OwnerType, att.OwnerID, att.Field)
	switch err {
	case nil:
		if _, err := tx.Exec(`DELETE FROM attachments WHERE id = ?`, prior.ID); err != nil {
			return nil, fmt.Errorf("replacing attachment: %w", err)
		}
		replaced = &prior
	case ErrNotFound:
	default:
		return nil, fmt.Errorf("checking attachment slot: %w", err)
	}

	_, err = tx.NamedExec(`
		INSERT INTO attachments (id, owner_type, owner_id, field, filename, content_type, width, height, size, created_at)
		VALUES (:id, :owner_type, :owner_id, :field, :filename, :content_type, :width, :height, :size, :created_at)`, att)
	if err != nil {
		return nil, fmt.Errorf("inserting attachment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing attachment: %w", err)
	}
	return replaced, nil
}

// GetAttachment returns the attachment occupying a slot.
func (s *Store) GetAttachment(ownerType string, ownerID int64, field string) (Attachment, error) {
	var att Attachment
	err := s.db.Get(&att, `SELECT * FROM attachments WHERE owner_type = ? AND owner_id = ? AND field = ?`,
		ownerType, ownerID, field)
	return att, err
}

// DeleteAttachment removes an attachment row by id.
func (s *Store) DeleteAttachment(id string) error {
	res, err := s.db.Exec(`DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting attachment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}
