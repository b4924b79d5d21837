package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/seee/pkg/ports"
	"github.com/aretw0/seee/pkg/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LedgerContractTest is a reusable test suite that verifies if an adapter
// complies with ports.Ledger and ports.AccountStore.
func LedgerContractTest(t *testing.T, ledger ports.Ledger, accounts ports.AccountStore) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	newAccount := func(name string) *referral.Account {
		a := &referral.Account{
			ID:           uuid.NewString(),
			Username:     name + "-" + suffix,
			PasswordHash: "hash",
			ReferralCode: "CODE" + name + suffix,
			CreatedAt:    time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, accounts.CreateAccount(ctx, a))
		return a
	}

	alice := newAccount("alice")
	bob := newAccount("bob")
	carol := newAccount("carol")

	t.Run("Accounts", func(t *testing.T) {
		got, err := accounts.AccountByUsername(ctx, alice.Username)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, alice.ReferralCode, got.ReferralCode)

		got, err = accounts.AccountByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.Username, got.Username)

		_, err = accounts.AccountByUsername(ctx, "nobody-"+suffix)
		assert.ErrorIs(t, err, referral.ErrAccountNotFound)

		dup := *alice
		dup.ID = uuid.NewString()
		dup.ReferralCode = "OTHER" + suffix
		assert.ErrorIs(t, accounts.CreateAccount(ctx, &dup), referral.ErrUsernameTaken)
	})

	t.Run("Edges", func(t *testing.T) {
		err := ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
			id, err := tx.ResolveCode(ctx, alice.ReferralCode)
			require.NoError(t, err)
			assert.Equal(t, alice.ID, id)

			_, err = tx.ResolveCode(ctx, "missing-"+suffix)
			assert.ErrorIs(t, err, referral.ErrUnknownReferralCode)

			require.NoError(t, tx.InsertEdge(ctx, referral.Edge{ReferrerID: alice.ID, ReferredID: bob.ID, Level: 1}))
			require.NoError(t, tx.InsertEdge(ctx, referral.Edge{ReferrerID: bob.ID, ReferredID: carol.ID, Level: 1}))
			require.NoError(t, tx.InsertEdge(ctx, referral.Edge{ReferrerID: alice.ID, ReferredID: carol.ID, Level: 2}))
			// Duplicate insert is ignored.
			require.NoError(t, tx.InsertEdge(ctx, referral.Edge{ReferrerID: alice.ID, ReferredID: carol.ID, Level: 2}))
			return nil
		})
		require.NoError(t, err)

		err = ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
			ref, ok, err := tx.ReferrerOf(ctx, carol.ID)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, bob.ID, ref)

			_, ok, err = tx.ReferrerOf(ctx, alice.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			edges, err := tx.Ancestors(ctx, carol.ID)
			require.NoError(t, err)
			assert.Equal(t, []referral.Edge{
				{ReferrerID: bob.ID, ReferredID: carol.ID, Level: 1},
				{ReferrerID: alice.ID, ReferredID: carol.ID, Level: 2},
			}, edges)
			return nil
		})
		require.NoError(t, err)

		down, err := ledger.Downline(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, down, 2)
		assert.Equal(t, bob.ID, down[0].UserID)
		assert.Equal(t, bob.Username, down[0].Username)
		assert.Equal(t, 1, down[0].Level)
		assert.Equal(t, carol.ID, down[1].UserID)
		assert.Equal(t, 2, down[1].Level)
	})

	t.Run("Credit and Balance", func(t *testing.T) {
		bal, err := ledger.Balance(ctx, carol.ID)
		require.NoError(t, err)
		assert.True(t, bal.Amount.IsZero(), "missing balance reads as zero")

		err = ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
			total, err := tx.Credit(ctx, carol.ID, decimal.RequireFromString("10.10"))
			require.NoError(t, err)
			assert.True(t, total.Equal(decimal.RequireFromString("10.10")), total.String())

			total, err = tx.Credit(ctx, carol.ID, decimal.RequireFromString("0.20"))
			require.NoError(t, err)
			assert.True(t, total.Equal(decimal.RequireFromString("10.30")), total.String())
			return nil
		})
		require.NoError(t, err)

		bal, err = ledger.Balance(ctx, carol.ID)
		require.NoError(t, err)
		assert.True(t, bal.Amount.Equal(decimal.RequireFromString("10.30")), bal.Amount.String())
	})

	t.Run("Rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
			if _, err := tx.Credit(ctx, bob.ID, decimal.NewFromInt(99)); err != nil {
				return err
			}
			if err := tx.InsertEdge(ctx, referral.Edge{ReferrerID: carol.ID, ReferredID: bob.ID, Level: 3}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		bal, err := ledger.Balance(ctx, bob.ID)
		require.NoError(t, err)
		assert.True(t, bal.Amount.IsZero(), "credit must be rolled back")

		down, err := ledger.Downline(ctx, carol.ID)
		require.NoError(t, err)
		assert.Empty(t, down, "edge must be rolled back")
	})

	t.Run("Transactions", func(t *testing.T) {
		err := ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
			for i, amount := range []string{"1.00", "2.00", "3.00"} {
				require.NoError(t, tx.RecordTransaction(ctx, referral.Transaction{
					ID:            uuid.NewString(),
					UserID:        alice.ID,
					Amount:        decimal.RequireFromString(amount),
					Type:          referral.TypeReferralCommission,
					ReferralLevel: i + 1,
					FromUserID:    carol.ID,
					Description:   "test",
					CreatedAt:     time.Now().UTC(),
				}))
			}
			return nil
		})
		require.NoError(t, err)

		txs, err := ledger.Transactions(ctx, alice.ID, 2)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("3.00")), "newest first")
		assert.Equal(t, 3, txs[0].ReferralLevel)
		assert.Equal(t, carol.ID, txs[0].FromUserID)
		assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("2.00")))

		none, err := ledger.Transactions(ctx, bob.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
