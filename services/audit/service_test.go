package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
	mu           sync.Mutex
	insertedLogs []*models.AuditLog
}

func (m *MockAuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertedLogs = append(m.insertedLogs, log)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, filter repositories.AuditFilter, page repositories.Page) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filter, page)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetInsertedLogs() []*models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AuditLog(nil), m.insertedLogs...)
}

func (m *MockAuditRepository) insertedCount() int {
	return len(m.GetInsertedLogs())
}

func newStartedService(t *testing.T, repo *MockAuditRepository, config Config) *AuditService {
	t.Helper()
	service := NewAuditService(repo, zaptest.NewLogger(t), config)
	require.NoError(t, service.Start())
	return service
}

func TestAuditService_StartStop(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zaptest.NewLogger(t), Config{BufferSize: 10, WorkerCount: 2})

	require.NoError(t, service.Start())

	stats := service.GetStats()
	assert.True(t, stats.Started)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.BufferSize)

	assert.Error(t, service.Start(), "cannot start twice")

	require.NoError(t, service.Stop(5*time.Second))
	assert.False(t, service.GetStats().Started)

	assert.Error(t, service.Stop(time.Second), "cannot stop twice")
	assert.Error(t, service.Start(), "cannot restart after stop")
}

func TestAuditService_LogEvent(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, Config{BufferSize: 100, WorkerCount: 2})
	defer service.Stop(5 * time.Second)

	log := models.NewAuditLog(models.AuditActionPermissionDenied, "client", "POST")
	require.NoError(t, service.LogEvent(&AuditEvent{Log: log}))

	assert.Eventually(t, func() bool { return mockRepo.insertedCount() == 1 }, time.Second, 10*time.Millisecond)
	inserted := mockRepo.GetInsertedLogs()
	assert.Equal(t, models.AuditActionPermissionDenied, inserted[0].Action)
	assert.Equal(t, "client", inserted[0].ResourceType)
}

func TestAuditService_LogEventNotRunning(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zaptest.NewLogger(t), DefaultConfig())

	log := models.NewAuditLog(models.AuditActionPermissionDenied, "client", "GET")
	assert.Error(t, service.LogEvent(&AuditEvent{Log: log}))

	require.NoError(t, service.Start())
	require.NoError(t, service.Stop(time.Second))

	assert.Error(t, service.LogEvent(&AuditEvent{Log: log}), "stopped service must not panic on send")
}

func TestAuditService_StopWithFullBuffer(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	release := make(chan struct{})
	defer close(release)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})
	// the worker outlives the test, so it must not log through t
	service := NewAuditService(mockRepo, zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
	require.NoError(t, service.Start())

	// one event held by the worker, one filling the buffer
	require.NoError(t, service.LogEvent(&AuditEvent{Log: models.NewAuditLog(models.AuditActionPermissionDenied, "event", "PUT")}))
	assert.Eventually(t, func() bool { return service.GetStats().PendingEvents == 0 }, time.Second, 10*time.Millisecond)
	require.NoError(t, service.LogEvent(&AuditEvent{Log: models.NewAuditLog(models.AuditActionPermissionDenied, "event", "PUT")}))
	assert.Error(t, service.LogEvent(&AuditEvent{Log: models.NewAuditLog(models.AuditActionPermissionDenied, "event", "PUT")}))

	stopped := make(chan error, 1)
	go func() { stopped <- service.Stop(50 * time.Millisecond) }()

	select {
	case err := <-stopped:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while the buffer was full")
	}
}

func TestAuditService_ConcurrentLogging(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, Config{BufferSize: 1000, WorkerCount: 5})

	goroutineCount := 10
	eventsPerGoroutine := 10
	var wg sync.WaitGroup

	for i := 0; i < goroutineCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				log := models.NewAuditLog(models.AuditActionObjectPermissionDenied, "client", "GET")
				_ = service.LogEvent(&AuditEvent{Log: log})
			}
		}()
	}
	wg.Wait()

	// Stop drains the queue
	require.NoError(t, service.Stop(5*time.Second))
	assert.Equal(t, goroutineCount*eventsPerGoroutine, mockRepo.insertedCount())
}

func TestAuditService_InsertFailureKeepsWorking(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	service := newStartedService(t, mockRepo, Config{BufferSize: 10, WorkerCount: 1})

	for i := 0; i < 3; i++ {
		log := models.NewAuditLog(models.AuditActionPermissionDenied, "client", "DELETE")
		require.NoError(t, service.LogEvent(&AuditEvent{Log: log}))
	}

	require.NoError(t, service.Stop(5*time.Second))
	assert.Equal(t, 3, mockRepo.insertedCount())
}

func TestAuditService_LogDenial(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, DefaultConfig())

	user := models.NewUser("sam@example.com", "Sam", "Sales", models.TeamSales)
	contractID := uuid.New()

	err := service.LogDenial(Denial{
		Action:     models.AuditActionForbiddenWithReason,
		User:       user,
		Resource:   "contract",
		ResourceID: &contractID,
		Method:     "PUT",
		Rule:       "signed-contract-immutable",
		Reason:     "Cannot update a signed contract.",
		RequestID:  "req-1",
		IPAddress:  "10.0.0.1",
		UserAgent:  "curl/8.0",
	})
	require.NoError(t, err)
	require.NoError(t, service.Stop(5*time.Second))

	inserted := mockRepo.GetInsertedLogs()
	require.Len(t, inserted, 1)
	log := inserted[0]
	assert.Equal(t, models.AuditActionForbiddenWithReason, log.Action)
	require.NotNil(t, log.UserID)
	assert.Equal(t, user.ID, *log.UserID)
	assert.Equal(t, "SALES", log.Team)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, contractID, *log.ResourceID)
	assert.Equal(t, "signed-contract-immutable", log.Rule)
	assert.Equal(t, "Cannot update a signed contract.", log.Reason)
	assert.Equal(t, "req-1", log.RequestID)
}

func TestAuditService_LogRecordChange(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, DefaultConfig())

	user := models.NewUser("sam@example.com", "Sam", "Sales", models.TeamSales)
	clientID := uuid.New()

	require.NoError(t, service.LogRecordChange(models.AuditActionRecordDeleted, user, "client", clientID, "DELETE", map[string]interface{}{"status": false}))
	require.NoError(t, service.Stop(5*time.Second))

	inserted := mockRepo.GetInsertedLogs()
	require.Len(t, inserted, 1)
	assert.Equal(t, models.AuditActionRecordDeleted, inserted[0].Action)
	assert.JSONEq(t, `{"status":false}`, string(inserted[0].Details))
}

func TestAuditService_BufferFull(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	release := make(chan struct{})
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})
	service := newStartedService(t, mockRepo, Config{BufferSize: 5, WorkerCount: 1})

	successCount := 0
	for i := 0; i < 20; i++ {
		log := models.NewAuditLog(models.AuditActionPermissionDenied, "event", "POST")
		if err := service.LogEvent(&AuditEvent{Log: log}); err == nil {
			successCount++
		}
	}

	assert.Less(t, successCount, 20)
	close(release)
	require.NoError(t, service.Stop(5*time.Second))
}

func TestAuditService_StopTimeout(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	release := make(chan struct{})
	defer close(release)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})
	service := newStartedService(t, mockRepo, Config{BufferSize: 100, WorkerCount: 1})

	log := models.NewAuditLog(models.AuditActionPermissionDenied, "event", "POST")
	require.NoError(t, service.LogEvent(&AuditEvent{Log: log}))

	err := service.Stop(100 * time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestAuditService_List(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zaptest.NewLogger(t), DefaultConfig())

	filter := repositories.AuditFilter{Action: models.AuditActionForbiddenWithReason}
	page := repositories.Page{Limit: 10}
	expected := []*models.AuditLog{models.NewAuditLog(models.AuditActionForbiddenWithReason, "event", "PUT")}

	t.Run("delegates to repository", func(t *testing.T) {
		mockRepo.On("List", mock.Anything, filter, page).Return(expected, nil).Once()

		logs, err := service.List(context.Background(), filter, page)
		require.NoError(t, err)
		assert.Equal(t, expected, logs)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		mockRepo.On("List", mock.Anything, filter, page).Return(nil, errors.New("db down")).Once()

		_, err := service.List(context.Background(), filter, page)
		require.Error(t, err)
		assert.True(t, services.IsInternalError(err))
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 1000, config.BufferSize)
	assert.Equal(t, 5, config.WorkerCount)
}
