package eligibility

import (
	"testing"

	"github.com/elys-network/lender/internal/access"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySetStatus(t *testing.T) {
	admin := common.HexToAddress("0xad00000000000000000000000000000000000001")
	user := common.HexToAddress("0x0000000000000000000000000000000000000002")
	r := NewRegistry("kyc", admin)

	ok, err := r.IsEligible(user)
	require.NoError(t, err)
	assert.False(t, ok)

	err = r.SetStatus(access.As(user), user, true)
	assert.ErrorIs(t, err, access.ErrUnauthorized)

	require.NoError(t, r.SetStatus(access.As(admin), user, true))
	ok, _ = r.IsEligible(user)
	assert.True(t, ok)

	require.NoError(t, r.SetStatus(access.As(admin), user, false))
	ok, _ = r.IsEligible(user)
	assert.False(t, ok)
	assert.Equal(t, "kyc", r.Name())
}
