package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// MaxIntakeContentLen caps a single text intake, in grapheme clusters.
const MaxIntakeContentLen = 2000

// ImageUpload is one uploaded file, already read into memory.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type IntakeRecordDTO struct {
	ID        uint      `json:"id"`
	User      uint      `json:"user"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
}

func IntakeRecordResponse(r *models.IntakeRecord) IntakeRecordDTO {
	return IntakeRecordDTO{ID: r.ID, User: r.UserID, Content: r.Content, Timestamp: r.Timestamp, Date: r.Date}
}

type IntakeImageDTO struct {
	ID        uint      `json:"id"`
	Image     string    `json:"image"`
	Note      string    `json:"note"`
	Labels    []string  `json:"labels,omitempty"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageIntakeResult is what an image or hybrid upload produced.
type ImageIntakeResult struct {
	Images []IntakeImageDTO
	Record *models.IntakeRecord
}

type IntakeService struct {
	db       *gorm.DB
	cal      *Calendar
	store    ImageStore
	labeler  ImageLabeler
	notifier Notifier
}

// NewIntakeService wires intake logging. labeler and notifier may be nil.
func NewIntakeService(db *gorm.DB, cal *Calendar, store ImageStore, labeler ImageLabeler, notifier Notifier) *IntakeService {
	return &IntakeService{db: db, cal: cal, store: store, labeler: labeler, notifier: notifier}
}

// LogText records a free-text intake under the current business date.
func (s *IntakeService) LogText(ctx context.Context, userID uint, content string) (*models.IntakeRecord, error) {
	content = strings.TrimSpace(content)
	verr := &ValidationError{}
	switch {
	case content == "":
		verr.Add("content", "This field may not be blank.")
	case utils.GraphemeLen(content) > MaxIntakeContentLen:
		verr.Add("content", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxIntakeContentLen))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.cal.Now()
	return s.createRecord(ctx, userID, content, now)
}

// LogImages stores one or more images and a single marker record describing
// the upload.
func (s *IntakeService) LogImages(ctx context.Context, userID uint, files []ImageUpload, note string) (*ImageIntakeResult, error) {
	if len(files) == 0 {
		return nil, &ValidationError{Fields: map[string][]string{"images": {"No images uploaded."}}}
	}
	note = strings.TrimSpace(note)
	now := s.cal.Now()

	images, labels, err := s.saveImages(ctx, userID, files, note, now)
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("[Image] %d image(s) uploaded.", len(images))
	if note != "" {
		text += " Note: " + note
	}
	if len(labels) > 0 {
		text += " Labels: " + strings.Join(labels, ", ")
	}
	rec, err := s.createRecord(ctx, userID, text, now)
	if err != nil {
		return nil, err
	}
	return &ImageIntakeResult{Images: images, Record: rec}, nil
}

// LogHybrid stores zero or more images together with optional text.
func (s *IntakeService) LogHybrid(ctx context.Context, userID uint, files []ImageUpload, text string) (*ImageIntakeResult, error) {
	text = strings.TrimSpace(text)
	if utils.GraphemeLen(text) > MaxIntakeContentLen {
		return nil, &ValidationError{Fields: map[string][]string{
			"text": {fmt.Sprintf("Ensure this field has no more than %d characters.", MaxIntakeContentLen)},
		}}
	}
	now := s.cal.Now()

	images, labels, err := s.saveImages(ctx, userID, files, text, now)
	if err != nil {
		return nil, err
	}

	var parts []string
	if text != "" {
		parts = append(parts, "Text: "+text)
	}
	if len(images) > 0 {
		p := fmt.Sprintf("Images: %d uploaded", len(images))
		if len(labels) > 0 {
			p += " (" + strings.Join(labels, ", ") + ")"
		}
		parts = append(parts, p)
	}
	content := "[Hybrid] (no content)"
	if len(parts) > 0 {
		content = "[Hybrid] " + strings.Join(parts, " | ")
	}

	rec, err := s.createRecord(ctx, userID, content, now)
	if err != nil {
		return nil, err
	}
	return &ImageIntakeResult{Images: images, Record: rec}, nil
}

// ListForDate returns the records of one business date, oldest first.
func (s *IntakeService) ListForDate(ctx context.Context, userID uint, date string) ([]models.IntakeRecord, error) {
	var records []models.IntakeRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("timestamp ASC, id ASC").
		Find(&records).Error
	return records, err
}

// Aggregate joins the day's records with newlines. A day without records is
// a *NoIntakeError.
func (s *IntakeService) Aggregate(ctx context.Context, userID uint, date string) (string, error) {
	records, err := s.ListForDate(ctx, userID, date)
	if err != nil {
		return "", fmt.Errorf("load intake records: %w", err)
	}
	if len(records) == 0 {
		return "", &NoIntakeError{Date: date}
	}
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.Content
	}
	return strings.Join(lines, "\n"), nil
}

func (s *IntakeService) createRecord(ctx context.Context, userID uint, content string, now time.Time) (*models.IntakeRecord, error) {
	rec := &models.IntakeRecord{
		UserID:    userID,
		Content:   content,
		Timestamp: now,
		Date:      s.cal.DateOf(now),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("save intake record: %w", err)
	}
	if s.notifier != nil {
		s.notifier.IntakeCreated(userID, rec)
	}
	return rec, nil
}

// saveImages uploads every file and stores its row. Labels from all images
// are merged without duplicates.
func (s *IntakeService) saveImages(ctx context.Context, userID uint, files []ImageUpload, note string, now time.Time) ([]IntakeImageDTO, []string, error) {
	date := s.cal.DateOf(now)
	out := make([]IntakeImageDTO, 0, len(files))
	var allLabels []string

	exts := make([]string, len(files))
	for i, f := range files {
		ext, ok := imageExtension(f.ContentType)
		if !ok {
			return nil, nil, &ValidationError{Fields: map[string][]string{
				"images": {fmt.Sprintf("Unsupported image type %q. Upload a JPEG, PNG, WebP or GIF image.", f.ContentType)},
			}}
		}
		exts[i] = ext
	}

	for i, f := range files {
		key := fmt.Sprintf("intake_images/user_%d/%s/%s%s", userID, date, uuid.NewString(), exts[i])
		url, err := s.store.Put(ctx, key, f.ContentType, f.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("store image %q: %w", f.Filename, err)
		}

		labels := s.detectLabels(ctx, f)
		allLabels = append(allLabels, labels...)

		img := &models.IntakeImage{
			UserID:    userID,
			ObjectKey: key,
			URL:       url,
			Note:      note,
			Labels:    strings.Join(labels, ","),
			Date:      date,
			CreatedAt: now,
		}
		if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
			return nil, nil, fmt.Errorf("save intake image: %w", err)
		}
		out = append(out, IntakeImageDTO{
			ID:        img.ID,
			Image:     img.URL,
			Note:      img.Note,
			Labels:    labels,
			Date:      img.Date,
			CreatedAt: img.CreatedAt,
		})
	}
	return out, lo.Uniq(allLabels), nil
}

func (s *IntakeService) detectLabels(ctx context.Context, f ImageUpload) []string {
	if s.labeler == nil {
		return nil
	}
	labels, err := s.labeler.DetectLabels(ctx, f.Data)
	if err != nil {
		log.Printf("image labelling failed for %q: %v", f.Filename, err)
		return nil
	}
	return labels
}
