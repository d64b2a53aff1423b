package controllers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"nutrilens/services"
	"nutrilens/utils"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

type IntakeController struct {
	Intake *services.IntakeService
	Cal    *services.Calendar
}

func NewIntakeController(intake *services.IntakeService, cal *services.Calendar) *IntakeController {
	return &IntakeController{Intake: intake, Cal: cal}
}

// POST /api/accounts/chat/
func (h *IntakeController) Chat(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var input struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rec, err := h.Intake.LogText(c.Request.Context(), uid, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("intake %d for user %d on %s: %s", rec.ID, uid, rec.Date, utils.Preview(rec.Content, 40))
	c.JSON(http.StatusCreated, services.IntakeRecordResponse(rec))
}

// POST /api/accounts/image-analyze/
func (h *IntakeController) ImageAnalyze(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	files, err := readUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Intake.LogImages(c.Request.Context(), uid, files, c.PostForm("note"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%d image(s) uploaded", len(res.Images)),
		"images":  res.Images,
		"record":  services.IntakeRecordResponse(res.Record),
	})
}

// POST /api/accounts/hybrid-analyze/
func (h *IntakeController) HybridAnalyze(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	files, err := readUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Intake.LogHybrid(c.Request.Context(), uid, files, c.PostForm("text"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"images": res.Images,
		"record": services.IntakeRecordResponse(res.Record),
	})
}

// GET /api/accounts/intake/?date=YYYY-MM-DD
func (h *IntakeController) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	date := h.Cal.Today()
	if q := c.Query("date"); q != "" {
		d, err := h.Cal.ParseDate(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
			return
		}
		date = d
	}

	records, err := h.Intake.ListForDate(c.Request.Context(), uid, date)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]services.IntakeRecordDTO, len(records))
	for i := range records {
		out[i] = services.IntakeRecordResponse(&records[i])
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "records": out})
}

// readUploads collects the "images" parts of a multipart request. A request
// that is not multipart yields no files.
func readUploads(c *gin.Context) ([]services.ImageUpload, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	headers := form.File["images"]
	out := make([]services.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, nil
}

func readUpload(fh *multipart.FileHeader) (services.ImageUpload, error) {
	if fh.Size > maxImageBytes {
		return services.ImageUpload{}, fmt.Errorf("%s: file too large", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	if len(data) > maxImageBytes {
		return services.ImageUpload{}, fmt.Errorf("%s: file too large", fh.Filename)
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return services.ImageUpload{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}
