package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu       sync.Mutex
	objects  map[string][]byte
	putErr   error
	putFails int // fail this many puts before succeeding
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return nil, m.putErr
	}
	if m.putFails > 0 {
		m.putFails--
		return nil, &s3Transient{}
	}
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

type s3Transient struct{}

func (e *s3Transient) Error() string { return "SlowDown" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enabledConfig(dbPath string) Config {
	return Config{
		S3:            S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:        dbPath,
		Passphrase:    "household-passphrase",
		RetentionDays: 30,
	}
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, nil, discardLogger())
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	// Missing passphrase -> still disabled
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, nil, discardLogger())
	if m2.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q without passphrase", m2.Status().State, StateDisabled)
	}

	// Full config -> idle
	m3 := NewManager(enabledConfig("larder.db"), nil, nil, nil, discardLogger())
	if m3.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m3.Status().State, StateIdle)
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(enabledConfig("larder.db"), nil, nil, cb, discardLogger())

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateRunning)
	}
	if received[1].State != StateIdle {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(enabledConfig("larder.db"), nil, nil, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, discardLogger())

	ctx := context.Background()
	m.Start(ctx) // should be a no-op for disabled state

	// Stop should not block
	m.Stop()
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "larder.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(enabledConfig(dbPath), db, bs, nil, discardLogger())
	mock := newMockS3()
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	record, err := bs.GetByID(id)
	if err != nil || record == nil {
		t.Fatalf("backup record missing: %v", err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("record status = %q, want completed", record.Status)
	}

	mock.mu.Lock()
	data, ok := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("no object uploaded under %s", record.S3Key)
	}
	if record.SizeBytes != int64(len(data)) {
		t.Errorf("recorded size = %d, uploaded %d", record.SizeBytes, len(data))
	}

	// The uploaded snapshot decrypts back to a readable payload.
	if _, err := Decrypt(data, "household-passphrase"); err != nil {
		t.Errorf("uploaded object does not decrypt: %v", err)
	}
	if _, err := Decrypt(data, "wrong"); err == nil {
		t.Error("uploaded object decrypts with wrong passphrase")
	}
}

func TestRunNowRetriesTransientUploadFailures(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "larder.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(enabledConfig(dbPath), db, bs, nil, discardLogger())
	mock := newMockS3()
	mock.putFails = 2
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now with transient failures: %v", err)
	}

	record, _ := bs.GetByID(id)
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("record status = %q, want completed after retries", record.Status)
	}
}

func TestRestoreCleansUpTempFiles(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "larder.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(enabledConfig(dbPath), db, bs, nil, discardLogger())
	mock := newMockS3()
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	// Restore into a separate target so the live handle stays valid.
	targetPath := filepath.Join(t.TempDir(), "restored.db")
	rm := NewManager(enabledConfig(targetPath), db, bs, nil, discardLogger())
	rm.client = mock

	if err := rm.restore(context.Background(), id); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := database.Open(targetPath)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	restored.Close()

	// The decrypted copy is plaintext; neither temp file may survive.
	encFile := filepath.Join(os.TempDir(), fmt.Sprintf("larder-restore-%d.db.enc", id))
	decFile := filepath.Join(os.TempDir(), fmt.Sprintf("larder-restore-%d.db", id))
	if _, err := os.Stat(encFile); !os.IsNotExist(err) {
		t.Errorf("encrypted temp file left behind at %s", encFile)
	}
	if _, err := os.Stat(decFile); !os.IsNotExist(err) {
		t.Errorf("decrypted temp file left behind at %s", decFile)
	}
}

func TestRunNowNotConfigured(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, discardLogger())
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Error("expected error when backup is not configured")
	}
}

func TestCleanupRemovesExpiredObjects(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "larder.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(enabledConfig(dbPath), db, bs, nil, discardLogger())
	mock := newMockS3()
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	record, _ := bs.GetByID(id)

	// Retention of -1 days makes everything expired.
	if err := m.Cleanup(context.Background(), -1); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	mock.mu.Lock()
	_, stillThere := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if stillThere {
		t.Error("expired object not deleted from s3")
	}
	if got, _ := bs.GetByID(id); got != nil {
		t.Error("expired backup record not deleted")
	}
}
