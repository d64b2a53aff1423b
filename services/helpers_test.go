package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"nutrilens/config"
	"nutrilens/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var seoul = mustLoadLocation("Asia/Seoul")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 9*60*60)
	}
	return loc
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// fakeCompleter returns queued replies in order, repeating the last one.
type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type memoryStore struct {
	mu   sync.Mutex
	keys []string
}

func (m *memoryStore) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return "https://cdn.test/" + key, nil
}

type staticLabeler struct {
	labels []string
	err    error
}

func (s staticLabeler) DetectLabels(context.Context, []byte) ([]string, error) {
	return s.labels, s.err
}

type recordingNotifier struct {
	mu          sync.Mutex
	intakes     []uint
	evaluations []*EvaluationResult
}

func (r *recordingNotifier) IntakeCreated(_ uint, rec *models.IntakeRecord) {
	r.mu.Lock()
	r.intakes = append(r.intakes, rec.ID)
	r.mu.Unlock()
}

func (r *recordingNotifier) EvaluationCompleted(_ uint, res *EvaluationResult) {
	r.mu.Lock()
	r.evaluations = append(r.evaluations, res)
	r.mu.Unlock()
}

func createUser(t *testing.T, db *gorm.DB, u *models.User) *models.User {
	t.Helper()
	if u.Username == "" {
		u.Username = "tester"
	}
	if u.Password == "" {
		u.Password = "x"
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
