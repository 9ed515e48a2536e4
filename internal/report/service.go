package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/MiguelCarapaz/mingafixbackend/internal/storage"
)

// Bucket is the fixed object-storage bucket holding report images.
const Bucket = "reports-images"

// signedURLTTL is how long signed image URLs stay valid.
const signedURLTTL = time.Hour

// ErrNoImage is returned when a signed URL is requested for a report
// that has no image attached.
var ErrNoImage = errors.New("report has no image")

// Service contains business logic for report management: it orchestrates
// uploads against object storage and row persistence against the repository.
type Service struct {
	repo  Repository
	store storage.Storage
}

// NewService creates a new report Service.
func NewService(repo Repository, store storage.Storage) *Service {
	return &Service{repo: repo, store: store}
}

// Input holds the validated form fields of a create or replace request.
type Input struct {
	Category    string
	Longitude   *float64
	Latitude    *float64
	Description *string
	Status      string
}

// Upload is a fully read multipart file ready for object storage.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Create uploads the optional image first, then persists the row. If the
// upload fails no row is written, so a stored image_url always pointed at
// an existing object when it was created. A row-write failure after a
// successful upload leaves an orphaned blob; that leak is accepted.
func (s *Service) Create(ctx context.Context, in Input, file *Upload) (*Report, error) {
	var imageURL *string
	if file != nil {
		url, err := s.uploadImage(ctx, file)
		if err != nil {
			return nil, err
		}
		if url != "" {
			imageURL = &url
		}
	}

	rep, err := s.repo.Insert(ctx, NewReport{
		ImageURL:    imageURL,
		Category:    in.Category,
		Longitude:   in.Longitude,
		Latitude:    in.Latitude,
		Description: in.Description,
		Status:      in.Status,
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// List returns all reports, newest first.
func (s *Service) List(ctx context.Context) ([]Report, error) {
	return s.repo.List(ctx)
}

// Get returns one report by id.
func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

// Replace uploads the new image first, then either updates the report
// identified by reportID (removing its previous image best-effort) or, when
// reportID is empty, creates a new report.
func (s *Service) Replace(ctx context.Context, reportID string, in Input, file Upload) (*Report, error) {
	url, err := s.uploadImage(ctx, &file)
	if err != nil {
		return nil, err
	}

	if reportID == "" {
		var imageURL *string
		if url != "" {
			imageURL = &url
		}
		return s.repo.Insert(ctx, NewReport{
			ImageURL:    imageURL,
			Category:    in.Category,
			Longitude:   in.Longitude,
			Latitude:    in.Latitude,
			Description: in.Description,
			Status:      in.Status,
		})
	}

	existing, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if existing.ImageURL != nil {
		s.removeImage(ctx, *existing.ImageURL)
	}

	if in.Status == "" {
		in.Status = "pending"
	}
	rep, err := s.repo.Update(ctx, reportID, Fields{
		"image_url":   url,
		"category":    in.Category,
		"longitude":   in.Longitude,
		"latitude":    in.Latitude,
		"description": in.Description,
		"status":      in.Status,
	})
	if errors.Is(err, ErrNotFound) {
		// The row existed moments ago; surface as a server error, not a 404.
		return nil, fmt.Errorf("report %s vanished during update", reportID)
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// Delete removes a report row after attempting, best-effort, to delete its
// stored image. A storage failure never blocks the row deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing.ImageURL != nil {
		s.removeImage(ctx, *existing.ImageURL)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("report %s vanished during delete", id)
	}
	return nil
}

// SignedImageURL returns a time-limited URL for the report's image.
func (s *Service) SignedImageURL(ctx context.Context, id string) (string, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rep.ImageURL == nil {
		return "", ErrNoImage
	}
	key, ok := storage.ExtractPath(*rep.ImageURL, Bucket)
	if !ok {
		return "", fmt.Errorf("cannot resolve object key from %q", *rep.ImageURL)
	}
	return s.store.SignedURL(ctx, Bucket, key, signedURLTTL)
}

// uploadImage stores the file under a fresh images/<uuid><ext> key and
// returns its public URL.
func (s *Service) uploadImage(ctx context.Context, file *Upload) (string, error) {
	key := objectKey(file.Filename)
	err := s.store.Upload(ctx, Bucket, key, bytes.NewReader(file.Data), int64(len(file.Data)), file.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return s.store.PublicURL(Bucket, key), nil
}

// removeImage attempts to delete the object behind a public URL and
// discards any failure except for a log line. Callers rely on this never
// blocking the primary row operation.
func (s *Service) removeImage(ctx context.Context, publicURL string) {
	key, ok := storage.ExtractPath(publicURL, Bucket)
	if !ok {
		log.Printf("storage: cannot resolve object key from %q, skipping delete", publicURL)
		return
	}
	if err := s.store.Remove(ctx, Bucket, key); err != nil {
		log.Printf("storage: best-effort delete of %q failed: %v", key, err)
	}
}

// IsNotFound returns true when the error indicates a report was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func objectKey(filename string) string {
	return "images/" + uuid.NewString() + filepath.Ext(filename)
}
