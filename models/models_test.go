package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Team tests
func TestParseTeam(t *testing.T) {
	tests := []struct {
		input   string
		want    Team
		wantErr bool
	}{
		{"MANAGEMENT", TeamManagement, false},
		{"sales", TeamSales, false},
		{" Support ", TeamSupport, false},
		{"admin", TeamUnknown, true},
		{"", TeamUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTeam(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTeam_String(t *testing.T) {
	assert.Equal(t, "MANAGEMENT", TeamManagement.String())
	assert.Equal(t, "SALES", TeamSales.String())
	assert.Equal(t, "SUPPORT", TeamSupport.String())
	assert.Equal(t, "UNKNOWN", Team(42).String())
	assert.False(t, Team(42).Valid())
	assert.True(t, TeamSupport.Valid())
}

func TestTeam_Scan(t *testing.T) {
	var team Team
	require.NoError(t, team.Scan(int64(2)))
	assert.Equal(t, TeamSales, team)

	require.NoError(t, team.Scan(nil))
	assert.Equal(t, TeamUnknown, team)

	assert.Error(t, team.Scan("SALES"))

	v, err := TeamSupport.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

// User tests
func TestNewUser(t *testing.T) {
	user := NewUser("jane@example.com", "Jane", "Doe", TeamSales)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, TeamSales, user.Team)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUser_Is(t *testing.T) {
	user := NewUser("jane@example.com", "Jane", "Doe", TeamSales)
	other := uuid.New()

	assert.True(t, user.Is(&user.ID))
	assert.False(t, user.Is(&other))
	assert.False(t, user.Is(nil), "an unset contact never matches")

	var nobody *User
	assert.False(t, nobody.Is(&other))
	assert.False(t, nobody.InTeam(TeamSales))
}

func TestUser_JSONMarshaling(t *testing.T) {
	user := NewUser("jane@example.com", "Jane", "Doe", TeamSupport)

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"team":"SUPPORT"`)

	var decoded User
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TeamSupport, decoded.Team)
}

// CRM record tests
func TestNewClient(t *testing.T) {
	client := NewClient("John", "Smith", "john@acme.test", "Acme")

	assert.NotEqual(t, uuid.Nil, client.ID)
	assert.True(t, client.IsProspect())
	assert.Nil(t, client.SalesContactID)
	assert.Equal(t, "clients", client.TableName())
}

func TestNewContract(t *testing.T) {
	clientID := uuid.New()
	contract := NewContract(clientID, 1500.5)

	assert.Equal(t, clientID, contract.ClientID)
	assert.False(t, contract.IsSigned())
	assert.Equal(t, "contracts", contract.TableName())
}

func TestEvent_SalesContactID(t *testing.T) {
	salesID := uuid.New()
	contract := NewContract(uuid.New(), 100)
	contract.SalesContactID = &salesID

	event := NewEvent(contract)
	assert.Equal(t, contract.ID, event.ContractID)
	assert.Equal(t, &salesID, event.SalesContactID())
	assert.False(t, event.IsFinished())

	event.Contract = nil
	assert.Nil(t, event.SalesContactID())
}

// AuditLog tests
func TestAuditLog_BuilderMethods(t *testing.T) {
	user := NewUser("s@example.com", "S", "U", TeamSupport)
	resourceID := uuid.New()

	log := NewAuditLog(AuditActionForbiddenWithReason, "event", "PUT").
		WithUser(user).
		WithResource(resourceID).
		WithDecision("finished-event-immutable", "Cannot update a finished event.").
		WithDetails(map[string]string{"path": "/api/v1/events"}).
		WithRequest("req-1", "10.0.0.1", "curl")

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, &user.ID, log.UserID)
	assert.Equal(t, "SUPPORT", log.Team)
	assert.Equal(t, &resourceID, log.ResourceID)
	assert.Equal(t, "finished-event-immutable", log.Rule)
	assert.JSONEq(t, `{"path":"/api/v1/events"}`, string(log.Details))
	assert.Equal(t, "req-1", log.RequestID)
	assert.Equal(t, "audit_logs", log.TableName())
}

func TestAuditLog_WithNilUser(t *testing.T) {
	log := NewAuditLog(AuditActionPermissionDenied, "client", "GET").WithUser(nil)
	assert.Nil(t, log.UserID)
	assert.Empty(t, log.Team)
}

func TestAuditAction_Valid(t *testing.T) {
	assert.True(t, AuditActionRecordDeleted.Valid())
	assert.True(t, AuditActionForbiddenWithReason.Valid())
	assert.False(t, AuditAction("login").Valid())
}
