package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository/repositorytest"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
)

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) NotifyNewDeviceLogin(email, deviceLabel, sourceIP string) error {
	n.calls = append(n.calls, email+"/"+deviceLabel)
	return nil
}

func newSessionUsecaseForTest(
	repo *repositorytest.FakeAccountRepository,
	notifier usecase.LoginNotifier,
) usecase.SessionUsecase {
	logger := zerolog.Nop()
	return usecase.NewSessionUsecase(repo, notifier, testConfig(), &logger)
}

func TestAddOrUpdateIsIdempotent(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "alice@example.com"})

	u := newSessionUsecaseForTest(repo, nil)
	ctx := context.Background()

	params := usecase.SessionParams{
		SessionID: "sess-1",
		DeviceID:  "device-a",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/114.0",
		SourceIP:  "198.51.100.1",
	}

	if _, err := u.AddOrUpdate(ctx, account.ID.Hex(), params); err != nil {
		t.Fatalf("first add: %v", err)
	}

	params.SourceIP = "198.51.100.2"
	updated, err := u.AddOrUpdate(ctx, account.ID.Hex(), params)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if updated.SourceIP != "198.51.100.2" {
		t.Fatalf("source ip = %q, want updated value", updated.SourceIP)
	}

	stored, err := repo.GetAccount(ctx, account.ID.Hex())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if len(stored.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1 (no duplicate)", len(stored.Sessions))
	}
}

func TestAddOrUpdateClassifiesDevice(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "bob@example.com"})

	u := newSessionUsecaseForTest(repo, nil)

	session, err := u.AddOrUpdate(context.Background(), account.ID.Hex(), usecase.SessionParams{
		SessionID: "sess-ipad",
		UserAgent: "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) Safari/604.1",
	})
	if err != nil {
		t.Fatalf("add session: %v", err)
	}

	if session.DeviceClass != "tablet" {
		t.Fatalf("device class = %q, want tablet", session.DeviceClass)
	}
	if session.DeviceID == "" {
		t.Fatal("device id was not generated")
	}
}

func TestRemoveAllThenListActiveEmpty(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "carol@example.com"})

	u := newSessionUsecaseForTest(repo, nil)
	ctx := context.Background()

	for _, id := range []string{"sess-a", "sess-b"} {
		if _, err := u.AddOrUpdate(ctx, account.ID.Hex(), usecase.SessionParams{
			SessionID: id,
			DeviceID:  "device-" + id,
		}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	if err := u.RemoveAll(ctx, account.ID.Hex()); err != nil {
		t.Fatalf("remove all: %v", err)
	}

	active, err := u.ListActive(ctx, account.ID.Hex())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active sessions = %d, want 0", len(active))
	}
}

func TestRemoveMissingSession(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "dave@example.com"})

	u := newSessionUsecaseForTest(repo, nil)

	err := u.Remove(context.Background(), account.ID.Hex(), "no-such-session")
	if !errors.Is(err, usecase.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestListActiveExcludesStaleSessions(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	now := time.Now()
	stale := now.Add(-48 * time.Hour)

	account := repo.Seed(&model.Account{
		Email: "erin@example.com",
		Sessions: []model.Session{
			{SessionID: "fresh", LastActivity: now, Active: true},
			{SessionID: "stale", LastActivity: stale, Active: true},
			{SessionID: "revoked", LastActivity: now, Active: false},
		},
	})

	u := newSessionUsecaseForTest(repo, nil)

	active, err := u.ListActive(context.Background(), account.ID.Hex())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].SessionID != "fresh" {
		t.Fatalf("active = %+v, want only the fresh session", active)
	}
}

func TestTouchSwallowsFailures(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "frank@example.com"})
	repo.TouchSessionErr = errors.New("datastore unavailable")

	u := newSessionUsecaseForTest(repo, nil)

	// Touch returns nothing; the failure must not escape.
	u.Touch(context.Background(), account.ID.Hex(), "sess-x")
}

type failingNotifier struct{}

func (failingNotifier) NotifyNewDeviceLogin(email, deviceLabel, sourceIP string) error {
	return errors.New("smtp unavailable")
}

func TestNotifierFailureDoesNotFailLogin(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "henry@example.com"})

	u := newSessionUsecaseForTest(repo, failingNotifier{})

	session, err := u.AddOrUpdate(context.Background(), account.ID.Hex(), usecase.SessionParams{
		SessionID: "sess-1",
		DeviceID:  "device-a",
	})
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
	if session.SessionID != "sess-1" {
		t.Fatalf("session id = %q, want sess-1", session.SessionID)
	}

	stored, err := repo.GetAccount(context.Background(), account.ID.Hex())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if len(stored.Sessions) != 1 {
		t.Fatalf("stored sessions = %d, want 1", len(stored.Sessions))
	}
}

func TestNewDeviceLoginNotifies(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "grace@example.com"})
	notifier := &recordingNotifier{}

	u := newSessionUsecaseForTest(repo, notifier)
	ctx := context.Background()

	if _, err := u.AddOrUpdate(ctx, account.ID.Hex(), usecase.SessionParams{
		SessionID:  "sess-1",
		DeviceID:   "device-a",
		DeviceName: "Work laptop",
	}); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.calls))
	}

	// A second session from the same device is not a new device.
	if _, err := u.AddOrUpdate(ctx, account.ID.Hex(), usecase.SessionParams{
		SessionID:  "sess-2",
		DeviceID:   "device-a",
		DeviceName: "Work laptop",
	}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want still 1", len(notifier.calls))
	}
}
