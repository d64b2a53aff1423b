package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nutrilens/models"
)

func newIntakeFixture(t *testing.T, at time.Time) (*IntakeService, *fakeClock, *memoryStore, *recordingNotifier) {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock(at)
	store := &memoryStore{}
	notes := &recordingNotifier{}
	svc := NewIntakeService(db, NewCalendar(clock.Now, seoul), store, nil, notes)
	return svc, clock, store, notes
}

func TestLogTextStampsBusinessDate(t *testing.T) {
	ctx := context.Background()
	svc, clock, _, notes := newIntakeFixture(t, time.Date(2024, 5, 10, 2, 59, 0, 0, seoul))

	late, err := svc.LogText(ctx, 1, "  ramen  ")
	if err != nil {
		t.Fatalf("LogText: %v", err)
	}
	if late.Date != "2024-05-09" || late.Content != "ramen" {
		t.Fatalf("record = %+v", late)
	}

	clock.Set(time.Date(2024, 5, 10, 3, 0, 0, 0, seoul))
	early, err := svc.LogText(ctx, 1, "coffee")
	if err != nil {
		t.Fatalf("LogText: %v", err)
	}
	if early.Date != "2024-05-10" {
		t.Fatalf("date = %s, want 2024-05-10", early.Date)
	}
	if len(notes.intakes) != 2 {
		t.Fatalf("notified %d times", len(notes.intakes))
	}
}

func TestLogTextValidation(t *testing.T) {
	svc, _, _, _ := newIntakeFixture(t, time.Date(2024, 5, 10, 12, 0, 0, 0, seoul))

	var verr *ValidationError
	if _, err := svc.LogText(context.Background(), 1, "   "); !errors.As(err, &verr) {
		t.Fatalf("blank content: err = %v", err)
	}
	if _, err := svc.LogText(context.Background(), 1, strings.Repeat("밥", MaxIntakeContentLen+1)); !errors.As(err, &verr) {
		t.Fatalf("long content: err = %v", err)
	}
	if _, err := svc.LogText(context.Background(), 1, strings.Repeat("밥", MaxIntakeContentLen)); err != nil {
		t.Fatalf("content at limit: %v", err)
	}
}

func TestAggregateOrdersByTime(t *testing.T) {
	ctx := context.Background()
	svc, clock, _, _ := newIntakeFixture(t, time.Date(2024, 5, 10, 8, 0, 0, 0, seoul))

	for i, item := range []string{"toast", "kimchi stew", "apple"} {
		clock.Set(time.Date(2024, 5, 10, 8+i*4, 0, 0, 0, seoul))
		if _, err := svc.LogText(ctx, 7, item); err != nil {
			t.Fatalf("LogText: %v", err)
		}
	}
	// after midnight, still the same diet day
	clock.Set(time.Date(2024, 5, 11, 1, 0, 0, 0, seoul))
	if _, err := svc.LogText(ctx, 7, "late snack"); err != nil {
		t.Fatalf("LogText: %v", err)
	}
	// other user
	if _, err := svc.LogText(ctx, 8, "not mine"); err != nil {
		t.Fatalf("LogText: %v", err)
	}

	got, err := svc.Aggregate(ctx, 7, "2024-05-10")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if want := "toast\nkimchi stew\napple\nlate snack"; got != want {
		t.Fatalf("Aggregate = %q, want %q", got, want)
	}
}

func TestAggregateNoIntake(t *testing.T) {
	svc, _, _, _ := newIntakeFixture(t, time.Date(2024, 5, 10, 8, 0, 0, 0, seoul))

	_, err := svc.Aggregate(context.Background(), 1, "2024-05-10")
	if !errors.Is(err, ErrNoIntakeForDate) {
		t.Fatalf("err = %v, want ErrNoIntakeForDate", err)
	}
	var nerr *NoIntakeError
	if !errors.As(err, &nerr) || nerr.Date != "2024-05-10" {
		t.Fatalf("err = %#v", err)
	}
}

func TestLogImages(t *testing.T) {
	ctx := context.Background()
	svc, _, store, _ := newIntakeFixture(t, time.Date(2024, 5, 10, 1, 0, 0, 0, seoul))

	files := []ImageUpload{
		{Filename: "lunch.PNG", ContentType: "image/png", Data: []byte("a")},
		{Filename: "blob", ContentType: "image/jpeg", Data: []byte("b")},
	}
	res, err := svc.LogImages(ctx, 3, files, " after gym ")
	if err != nil {
		t.Fatalf("LogImages: %v", err)
	}
	if len(res.Images) != 2 {
		t.Fatalf("images = %d", len(res.Images))
	}
	if want := "[Image] 2 image(s) uploaded. Note: after gym"; res.Record.Content != want {
		t.Fatalf("marker = %q, want %q", res.Record.Content, want)
	}
	if res.Record.Date != "2024-05-09" {
		t.Fatalf("date = %s", res.Record.Date)
	}

	if !strings.HasPrefix(store.keys[0], "intake_images/user_3/2024-05-09/") || !strings.HasSuffix(store.keys[0], ".png") {
		t.Fatalf("key = %s", store.keys[0])
	}
	if !strings.HasSuffix(store.keys[1], ".jpg") {
		t.Fatalf("key = %s", store.keys[1])
	}
	if !strings.HasPrefix(res.Images[0].Image, "https://cdn.test/") {
		t.Fatalf("url = %s", res.Images[0].Image)
	}

	var count int64
	svc.db.Model(&models.IntakeImage{}).Where("user_id = ?", 3).Count(&count)
	if count != 2 {
		t.Fatalf("stored %d image rows", count)
	}
}

func TestLogImagesWithoutNoteOrFiles(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newIntakeFixture(t, time.Date(2024, 5, 10, 12, 0, 0, 0, seoul))

	res, err := svc.LogImages(ctx, 1, []ImageUpload{{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")}}, "")
	if err != nil {
		t.Fatalf("LogImages: %v", err)
	}
	if res.Record.Content != "[Image] 1 image(s) uploaded." {
		t.Fatalf("marker = %q", res.Record.Content)
	}

	var verr *ValidationError
	if _, err := svc.LogImages(ctx, 1, nil, "note"); !errors.As(err, &verr) {
		t.Fatalf("no files: err = %v", err)
	}
}

func TestLogImagesRejectsNonImages(t *testing.T) {
	ctx := context.Background()
	svc, _, store, _ := newIntakeFixture(t, time.Date(2024, 5, 10, 12, 0, 0, 0, seoul))

	for _, ct := range []string{"image/../../x", "text/plain", ""} {
		_, err := svc.LogImages(ctx, 1, []ImageUpload{
			{Filename: "ok.jpg", ContentType: "image/jpeg", Data: []byte("x")},
			{Filename: "photo", ContentType: ct, Data: []byte("y")},
		}, "")
		var verr *ValidationError
		if !errors.As(err, &verr) || len(verr.Fields["images"]) == 0 {
			t.Fatalf("content type %q: err = %v", ct, err)
		}
	}
	if len(store.keys) != 0 {
		t.Fatalf("stored %v before rejecting", store.keys)
	}

	var count int64
	svc.db.Model(&models.IntakeRecord{}).Count(&count)
	if count != 0 {
		t.Fatalf("created %d records", count)
	}
}

func TestLogImagesLabels(t *testing.T) {
	db := newTestDB(t)
	clock := newFakeClock(time.Date(2024, 5, 10, 12, 0, 0, 0, seoul))
	svc := NewIntakeService(db, NewCalendar(clock.Now, seoul), &memoryStore{}, staticLabeler{labels: []string{"Pizza", "Food"}}, nil)

	res, err := svc.LogImages(context.Background(), 1, []ImageUpload{
		{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")},
		{Filename: "b.jpg", ContentType: "image/jpeg", Data: []byte("y")},
	}, "")
	if err != nil {
		t.Fatalf("LogImages: %v", err)
	}
	if want := "[Image] 2 image(s) uploaded. Labels: Pizza, Food"; res.Record.Content != want {
		t.Fatalf("marker = %q, want %q", res.Record.Content, want)
	}

	failing := NewIntakeService(db, NewCalendar(clock.Now, seoul), &memoryStore{}, staticLabeler{err: errors.New("throttled")}, nil)
	res, err = failing.LogImages(context.Background(), 1, []ImageUpload{{Filename: "c.jpg", ContentType: "image/jpeg", Data: []byte("z")}}, "")
	if err != nil {
		t.Fatalf("labelling failure must not fail the upload: %v", err)
	}
	if res.Record.Content != "[Image] 1 image(s) uploaded." {
		t.Fatalf("marker = %q", res.Record.Content)
	}
}

func TestLogHybridMarkers(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newIntakeFixture(t, time.Date(2024, 5, 10, 12, 0, 0, 0, seoul))
	img := []ImageUpload{{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")}}

	cases := []struct {
		name  string
		files []ImageUpload
		text  string
		want  string
	}{
		{"text and images", img, "bibimbap", "[Hybrid] Text: bibimbap | Images: 1 uploaded"},
		{"text only", nil, "bibimbap", "[Hybrid] Text: bibimbap"},
		{"images only", img, "  ", "[Hybrid] Images: 1 uploaded"},
		{"nothing", nil, "", "[Hybrid] (no content)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.LogHybrid(ctx, 1, tc.files, tc.text)
			if err != nil {
				t.Fatalf("LogHybrid: %v", err)
			}
			if res.Record.Content != tc.want {
				t.Fatalf("marker = %q, want %q", res.Record.Content, tc.want)
			}
		})
	}
}
