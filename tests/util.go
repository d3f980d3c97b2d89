package testutil

import (
	"testing"
	"time"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/services/events"
	logsvc "github.com/trezcool/coursework/services/logger"
	"github.com/trezcool/coursework/storage/kvstore"
	"github.com/trezcool/coursework/storage/records"
)

// NewConfig returns a test configuration over an in-memory store, without simulated latency.
func NewConfig() *core.Config {
	conf := &core.Config{
		Env:                "TEST",
		TestMode:           true,
		Debug:              true,
		AppName:            "Coursework",
		Build:              "test",
		Debounce:           5 * time.Millisecond,
		ActivityMaxEntries: 50,
		DefaultFromEmail:   "noreply@test.local",
	}
	conf.Store.Driver = core.StoreMemory
	conf.Store.QuotaBytes = 5 * 1024 * 1024
	return conf
}

// NewDB returns an empty records.DB over backend (a fresh in-memory one if nil) and the bus its store publishes on.
func NewDB(t *testing.T, backend kvstore.Backend) (*records.DB, *events.Bus, *logsvc.RecordingLogger) {
	t.Helper()

	if backend == nil {
		backend = kvstore.NewMemoryBackend(5 * 1024 * 1024)
	}
	logger := logsvc.NewRecordingLogger()
	bus := events.NewBus(logger)
	store := kvstore.New(backend, bus, logger)
	t.Cleanup(func() { _ = store.Close() })
	return records.New(store, logger), bus, logger
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, login, email, pwd string,
	role user.Role,
	isActive bool,
	affiliation ...string, // group, teacherLogin
) user.User {
	t.Helper()

	usr := user.User{
		Name:             name,
		Login:            login,
		Email:            email,
		Role:             role,
		IsActive:         isActive,
		Notifications:    user.DefaultNotifications,
		RegistrationDate: time.Now().UTC().Format("2006-01-02"),
	}
	if len(affiliation) > 0 {
		usr.Group = affiliation[0]
	}
	if len(affiliation) > 1 {
		usr.TeacherLogin = affiliation[1]
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
