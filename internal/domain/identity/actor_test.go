package identity

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"business_owner", RoleBusinessOwner, false},
		{" Shop_Worker ", RoleShopWorker, false},
		{"admin", RoleAdmin, false},
		{"owner", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewActor(t *testing.T) {
	userID, businessID, shopID := uuid.New(), uuid.New(), uuid.New()

	t.Run("owner gets full capability table", func(t *testing.T) {
		actor, err := NewActor(userID, businessID, nil, RoleBusinessOwner)
		require.NoError(t, err)
		assert.True(t, actor.Can(CapTransferApprove))
		assert.True(t, actor.Can(CapBillCancel))
		assert.True(t, actor.CanOperateShop(uuid.New()))
	})

	t.Run("worker is limited to own shop", func(t *testing.T) {
		actor, err := NewActor(userID, businessID, &shopID, RoleShopWorker)
		require.NoError(t, err)
		assert.True(t, actor.Can(CapBillCreate))
		assert.False(t, actor.Can(CapTransferApprove))
		assert.True(t, actor.CanOperateShop(shopID))
		assert.False(t, actor.CanOperateShop(uuid.New()))

		err = actor.RequireShop(uuid.New())
		assert.True(t, errors.Is(err, shared.ErrForbidden))
	})

	t.Run("worker with extra grant", func(t *testing.T) {
		actor, err := NewActor(userID, businessID, &shopID, RoleShopWorker, CapTransferApprove)
		require.NoError(t, err)
		assert.NoError(t, actor.Require(CapTransferApprove))
		assert.Error(t, actor.Require(CapInventoryAllocate))
	})

	t.Run("worker without shop is rejected", func(t *testing.T) {
		_, err := NewActor(userID, businessID, nil, RoleShopWorker)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := NewActor(userID, businessID, nil, Role("cashier"))
		assert.Error(t, err)
	})

	t.Run("missing ids are rejected", func(t *testing.T) {
		_, err := NewActor(uuid.Nil, businessID, nil, RoleAdmin)
		assert.Error(t, err)
		_, err = NewActor(userID, uuid.Nil, nil, RoleAdmin)
		assert.Error(t, err)
	})
}

func TestRoleCapabilities_ReturnsCopy(t *testing.T) {
	caps := RoleShopWorker.Capabilities()
	caps[0] = CapInventoryAllocate
	assert.NotEqual(t, CapInventoryAllocate, RoleShopWorker.Capabilities()[0])
}
