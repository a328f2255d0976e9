package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostable(t *testing.T) {
	assert.True(t, (&Account{IsLeaf: true, AllowManualPost: true}).IsPostable())
	assert.False(t, (&Account{IsLeaf: true}).IsPostable())
	assert.False(t, (&Account{AllowManualPost: true}).IsPostable())
	assert.False(t, (&Account{}).IsPostable())
}

func TestDefaultChartOfAccounts(t *testing.T) {
	byCode := make(map[string]*Account, len(DefaultChartOfAccounts))
	for _, a := range DefaultChartOfAccounts {
		_, dup := byCode[a.Code]
		require.False(t, dup, "duplicate code %s", a.Code)
		byCode[a.Code] = a
	}

	// The posting engine resolves these by code; the seed must carry them
	// as postable leaves.
	for _, code := range []string{CodeAccountsReceivable, CodeAccountsPayable, CodeFXGain, CodeFXLoss} {
		a, ok := byCode[code]
		require.True(t, ok, "missing well-known account %s", code)
		assert.True(t, a.IsPostable(), "account %s must be postable", code)
	}

	// Every dotted code has its parent in the seed.
	for _, a := range DefaultChartOfAccounts {
		if i := lastDot(a.Code); i >= 0 {
			_, ok := byCode[a.Code[:i]]
			assert.True(t, ok, "account %s has no parent in the seed", a.Code)
		}
	}
}

func lastDot(code string) int {
	for i := len(code) - 1; i >= 0; i-- {
		if code[i] == '.' {
			return i
		}
	}
	return -1
}
