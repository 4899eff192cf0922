package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/config"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/device"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository"
)

// SessionUsecase tracks the per-device sessions of an account.
type SessionUsecase interface {
	// AddOrUpdate refreshes an existing session in place or appends a new
	// one. Calling it twice with the same session id updates, never
	// duplicates.
	AddOrUpdate(ctx context.Context, accountID string, params SessionParams) (*model.Session, error)

	// Remove detaches one session; ErrSessionNotFound when absent.
	Remove(ctx context.Context, accountID, sessionID string) error

	// RemoveAll detaches every session of the account.
	RemoveAll(ctx context.Context, accountID string) error

	// ListActive returns the sessions that are active and have seen
	// activity within the configured inactivity window.
	ListActive(ctx context.Context, accountID string) ([]model.Session, error)

	// Touch refreshes a session's last-activity timestamp. It is
	// best-effort: failures are logged and swallowed so they can never
	// fail the request that carried the session id.
	Touch(ctx context.Context, accountID, sessionID string)
}

// SessionParams describes the device behind a login or request.
type SessionParams struct {
	SessionID  string
	DeviceID   string
	DeviceName string
	UserAgent  string
	SourceIP   string
}

var ErrSessionNotFound = errors.New("session not found")

// LoginNotifier is told about logins from devices the account has not seen
// before. Notification failures never surface to the caller.
type LoginNotifier interface {
	NotifyNewDeviceLogin(email, deviceLabel, sourceIP string) error
}

type sessionUsecase struct {
	accountRepo    repository.AccountRepository
	notifier       LoginNotifier
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewSessionUsecase(
	accountRepo repository.AccountRepository,
	notifier LoginNotifier,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) SessionUsecase {
	return &sessionUsecase{
		accountRepo:    accountRepo,
		notifier:       notifier,
		authServiceCfg: authServiceCfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (u *sessionUsecase) AddOrUpdate(
	ctx context.Context,
	accountID string,
	params SessionParams,
) (*model.Session, error) {
	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := u.now()

	if existing, ok := account.SessionByID(params.SessionID); ok {
		if err := u.accountRepo.UpdateSession(ctx, accountID, params.SessionID, params.SourceIP, now); err != nil {
			return nil, err
		}

		updated := *existing
		updated.SourceIP = params.SourceIP
		updated.LastActivity = now
		updated.Active = true
		return &updated, nil
	}

	deviceID := params.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	label := params.DeviceName
	if label == "" {
		label = device.Label(params.UserAgent)
	}

	session := model.Session{
		SessionID:    params.SessionID,
		DeviceID:     deviceID,
		DeviceLabel:  label,
		DeviceClass:  string(device.Classify(params.UserAgent)),
		UserAgent:    params.UserAgent,
		SourceIP:     params.SourceIP,
		LastActivity: now,
		CreatedAt:    now,
		Active:       true,
	}

	newDevice := !account.HasDevice(deviceID)

	if err := u.accountRepo.AppendSession(ctx, accountID, session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// A concurrent request appended the same session first; an
			// in-place refresh keeps the call idempotent.
			if err := u.accountRepo.UpdateSession(ctx, accountID, params.SessionID, params.SourceIP, now); err != nil {
				return nil, err
			}
			return &session, nil
		}

		return nil, err
	}

	if newDevice {
		u.notifyNewDevice(account.Email, session)
	}

	return &session, nil
}

func (u *sessionUsecase) Remove(ctx context.Context, accountID, sessionID string) error {
	err := u.accountRepo.RemoveSession(ctx, accountID, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrSessionNotFound
		}

		return err
	}

	return nil
}

func (u *sessionUsecase) RemoveAll(ctx context.Context, accountID string) error {
	return u.accountRepo.RemoveAllSessions(ctx, accountID)
}

func (u *sessionUsecase) ListActive(ctx context.Context, accountID string) ([]model.Session, error) {
	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return account.ActiveSessions(u.now(), u.authServiceCfg.Session.InactivityWindow), nil
}

func (u *sessionUsecase) Touch(ctx context.Context, accountID, sessionID string) {
	if err := u.accountRepo.TouchSession(ctx, accountID, sessionID, u.now()); err != nil {
		u.logger.Warn().
			Err(err).
			Str("account_id", accountID).
			Str("session_id", sessionID).
			Msg("failed to touch session")
	}
}

func (u *sessionUsecase) notifyNewDevice(email string, session model.Session) {
	if u.notifier == nil {
		return
	}

	if err := u.notifier.NotifyNewDeviceLogin(email, session.DeviceLabel, session.SourceIP); err != nil {
		u.logger.Warn().
			Err(err).
			Str("email", email).
			Msg("failed to send new device login notification")
	}
}
