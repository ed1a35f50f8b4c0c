package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PhotoSource records how a photo arrived.
type PhotoSource string

const (
	PhotoSourceUpload PhotoSource = "upload"
	PhotoSourceImport PhotoSource = "import"
)

// Photo is one stored image. Slots refer to it by ID, so several slots can
// share one image.
type Photo struct {
	ID        string
	MimeType  string
	Data      []byte
	Source    PhotoSource
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PhotoRepository provides access to stored images.
type PhotoRepository struct {
	db *sql.DB
}

// Photos returns the photo repository for this store.
func (s *Store) Photos() *PhotoRepository {
	return &PhotoRepository{db: s.db}
}

// Put stores p, replacing any image with the same ID.
func (r *PhotoRepository) Put(p *Photo) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Source == "" {
		p.Source = PhotoSourceUpload
	}

	_, err := r.db.Exec(
		`INSERT INTO photos (id, mime_type, data, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			mime_type = excluded.mime_type,
			data = excluded.data,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		p.ID, p.MimeType, p.Data, string(p.Source), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// Get retrieves an image by ID.
func (r *PhotoRepository) Get(id string) (*Photo, error) {
	p := &Photo{}
	var source string

	err := r.db.QueryRow(
		`SELECT id, mime_type, data, source, created_at, updated_at
		 FROM photos WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.MimeType, &p.Data, &source, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Source = PhotoSource(source)
	return p, nil
}

// List returns every stored photo without its data, ordered by id.
func (r *PhotoRepository) List() ([]*Photo, error) {
	rows, err := r.db.Query(
		`SELECT id, mime_type, source, created_at, updated_at
		 FROM photos ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		p := &Photo{}
		var source string
		if err := rows.Scan(&p.ID, &p.MimeType, &source, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Source = PhotoSource(source)
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return photos, nil
}

// Delete removes an image.
func (r *PhotoRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Clear removes all stored photos.
func (r *PhotoRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM photos`)
	return err
}

// Retain deletes every image whose ID is not in keep and returns how many
// were removed.
func (r *PhotoRepository) Retain(keep []string) (int64, error) {
	if len(keep) == 0 {
		result, err := r.db.Exec(`DELETE FROM photos`)
		if err != nil {
			return 0, err
		}
		return result.RowsAffected()
	}

	args := make([]any, len(keep))
	for i, id := range keep {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")

	result, err := r.db.Exec(`DELETE FROM photos WHERE id NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
