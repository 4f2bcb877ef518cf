//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/atelierfoto/session-service/config"
	"github.com/atelierfoto/session-service/internal/auth"
	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/repository"
	"github.com/atelierfoto/session-service/internal/service"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

var testTables = []string{
	"session_status_histories",
	"session_payments",
	"session_photographers",
	"session_details",
	"sessions",
	"catalog_items",
	"rooms",
	"role_permissions",
	"user_roles",
	"permissions",
	"roles",
	"users",
}

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "session_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	for _, table := range testTables {
		testDB.Exec("DROP TABLE IF EXISTS " + table + " CASCADE")
	}

	if err := testDB.AutoMigrate(
		&models.User{}, &models.Role{}, &models.Permission{},
		&models.Room{}, &models.CatalogItem{},
		&models.Session{}, &models.SessionDetail{}, &models.SessionPhotographer{},
		&models.SessionPayment{}, &models.SessionStatusHistory{},
	); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	testDB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_session_photographer
		ON session_photographers (session_id, photographer_id)
	`)

	code := m.Run()

	for _, table := range testTables {
		testDB.Exec("DROP TABLE IF EXISTS " + table + " CASCADE")
	}

	os.Exit(code)
}

func cleanTables() {
	for _, table := range testTables {
		testDB.Exec("DELETE FROM " + table)
	}
	testDB.Exec("ALTER SEQUENCE IF EXISTS sessions_id_seq RESTART WITH 1")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --- Seed helpers ---

func testConfig() *config.Config {
	return &config.Config{
		DefaultDepositPercentage: 50,
		PaymentDeadlineDays:      5,
		ChangesDeadlineDays:      7,
		DefaultEditingDays:       5,
		EditorSelfAssign:         true,
	}
}

type services struct {
	sessions    service.SessionService
	assignments service.AssignmentService
	details     service.DetailService
	payments    service.PaymentService
	checker     service.AvailabilityChecker
}

func newServices() services {
	sessionRepo := repository.NewSessionRepository(testDB)
	detailRepo := repository.NewDetailRepository(testDB)
	assignmentRepo := repository.NewAssignmentRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)
	historyRepo := repository.NewHistoryRepository(testDB)
	roomRepo := repository.NewRoomRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	catalogRepo := repository.NewCatalogRepository(testDB)

	cfg := testConfig()
	checker := service.NewAvailabilityChecker(sessionRepo, assignmentRepo, roomRepo, userRepo)
	sessions := service.NewSessionService(
		sessionRepo, detailRepo, assignmentRepo, paymentRepo, historyRepo, userRepo,
		checker, service.DefaultRefundPolicy, cfg, nil, nil,
	)
	return services{
		sessions:    sessions,
		assignments: service.NewAssignmentService(sessionRepo, assignmentRepo, checker, sessions, nil),
		details:     service.NewDetailService(sessionRepo, detailRepo, paymentRepo, catalogRepo, nil),
		payments:    service.NewPaymentService(sessionRepo, paymentRepo, detailRepo, nil, nil),
		checker:     checker,
	}
}

func createUser(t *testing.T, name string, roleNames ...string) *models.User {
	t.Helper()
	user := &models.User{
		Name:   name,
		Email:  fmt.Sprintf("%s-%d@test.local", name, time.Now().UnixNano()),
		Status: models.ResourceActive,
	}
	require.NoError(t, testDB.Create(user).Error)
	for _, rn := range roleNames {
		var role models.Role
		err := testDB.Where("name = ?", rn).First(&role).Error
		if err != nil {
			role = models.Role{Name: rn, Status: models.ResourceActive}
			require.NoError(t, testDB.Create(&role).Error)
		}
		require.NoError(t, testDB.Model(user).Association("Roles").Append(&role))
		user.Roles = append(user.Roles, role)
	}
	return user
}

func adminIdentity(t *testing.T) *auth.Identity {
	t.Helper()
	return auth.NewIdentity(createUser(t, "admin", models.AdminRoleName))
}

// staffIdentity builds a user whose single role carries exactly the given
// permission codes, nothing more.
func staffIdentity(t *testing.T, name string, codes ...string) *auth.Identity {
	t.Helper()
	user := createUser(t, name)
	role := &models.Role{Name: name + "-role", Status: models.ResourceActive}
	require.NoError(t, testDB.Create(role).Error)
	for _, code := range codes {
		var perm models.Permission
		err := testDB.Where("code = ?", code).First(&perm).Error
		if err != nil {
			perm = models.Permission{Code: code, Status: models.ResourceActive}
			require.NoError(t, testDB.Create(&perm).Error)
		}
		require.NoError(t, testDB.Model(role).Association("Permissions").Append(&perm))
		role.Permissions = append(role.Permissions, perm)
	}
	require.NoError(t, testDB.Model(user).Association("Roles").Append(role))
	user.Roles = append(user.Roles, *role)
	return auth.NewIdentity(user)
}

func identityFor(user *models.User) *auth.Identity {
	return auth.NewIdentity(user)
}

func createRoom(t *testing.T, name string) *models.Room {
	t.Helper()
	room := &models.Room{Name: name, Status: models.ResourceActive}
	require.NoError(t, testDB.Create(room).Error)
	return room
}

func createCatalogItem(t *testing.T, code string, priceCents int64) *models.CatalogItem {
	t.Helper()
	item := &models.CatalogItem{
		Code:           code,
		Name:           code,
		UnitPriceCents: priceCents,
		Status:         models.ResourceActive,
	}
	require.NoError(t, testDB.Create(item).Error)
	return item
}

var testDay = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

func slot(startHour, endHour int) (time.Time, time.Time) {
	start := testDay.Add(time.Duration(startHour) * time.Hour)
	end := testDay.Add(time.Duration(endHour) * time.Hour)
	return start, end
}
