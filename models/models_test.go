package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// User tests
func TestNewUser(t *testing.T) {
	user := NewUser("maria", "hash", RoleAdmin)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "maria", user.Username)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
	assert.Equal(t, "users", user.TableName())
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	user := NewUser("maria", "$2a$10$secret", RoleUser)

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}

func TestUserRole_Authorities(t *testing.T) {
	assert.ElementsMatch(t, []UserRole{RoleAdmin, RoleUser}, RoleAdmin.Authorities())
	assert.Equal(t, []UserRole{RoleUser}, RoleUser.Authorities())

	assert.True(t, RoleAdmin.Grants(RoleUser))
	assert.True(t, RoleAdmin.Grants(RoleAdmin))
	assert.False(t, RoleUser.Grants(RoleAdmin))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   UserRole
		wantOK bool
	}{
		{"", RoleUser, true},
		{"user", RoleUser, true},
		{" Admin ", RoleAdmin, true},
		{"root", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Catalogue tests
func TestRoom_Capacity(t *testing.T) {
	room := NewRoom("Sala 1", 8, 12)
	assert.Equal(t, 96, room.Capacity())
}

func TestNewSeat_DefaultLabel(t *testing.T) {
	roomID := uuid.New()

	seat := NewSeat(roomID, "C", 7, "")
	assert.Equal(t, "C7", seat.Label)
	assert.Equal(t, roomID, seat.RoomID)

	custom := NewSeat(roomID, "C", 7, "VIP-1")
	assert.Equal(t, "VIP-1", custom.Label)
}

// Audit log tests
func TestNewAuditLog(t *testing.T) {
	userID := uuid.New()
	resourceID := uuid.New()

	log := NewAuditLog(AuditActionOrderCreated, "order").
		WithUser(userID).
		WithResource(resourceID).
		WithDetails(map[string]interface{}{"items": 2}).
		WithRequest("req-1", "10.0.0.1", "curl/8")

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, userID, *log.UserID)
	assert.Equal(t, resourceID, *log.ResourceID)
	assert.JSONEq(t, `{"items":2}`, string(log.Details))
	assert.Equal(t, "req-1", log.RequestID)
	assert.Equal(t, "audit_logs", log.TableName())
}

func TestNewCoupon_UppercasesCode(t *testing.T) {
	c := NewCoupon("promo10", CouponPercent, NewMoney(decimal.NewFromInt(10), ""))
	assert.Equal(t, "PROMO10", c.Code)
	assert.True(t, c.Active)
	assert.True(t, c.Type.Valid())
	assert.False(t, CouponType("BOGUS").Valid())
}
