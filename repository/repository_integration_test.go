package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/repository"
	testingutil "github.com/amirphl/dti-portal/testing"
	"github.com/amirphl/dti-portal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	if !testingutil.Enabled() {
		t.Skip("TEST_DB_HOST not set")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAccountRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveNormalizes", func(t *testing.T) {
			agent := &models.Account{
				Username:     "agent01",
				Email:        "agent01@dti.gov.ph",
				PasswordHash: "x",
				Role:         models.RoleCollectionAgent,
				IsActive:     utils.ToPtr(true),
			}
			require.NoError(t, repo.Save(ctx, agent))

			stored, err := repo.ByUsername(ctx, "agent01")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, utils.DefaultDTIOffice, utils.Deref(stored.DTIOffice))
			assert.Equal(t, utils.DefaultOfficialDesignation, utils.Deref(stored.OfficialDesignation))
			assert.Equal(t, utils.DefaultProfilePicture, stored.ProfilePicture)
			assert.NotEqual(t, uuid.Nil, stored.UUID)

			stored.IsSuperuser = true
			require.NoError(t, repo.Update(ctx, stored))

			again, err := repo.ByID(ctx, stored.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, again.Role)
			assert.Nil(t, again.DTIOffice)
			assert.Nil(t, again.OfficialDesignation)
		})

		t.Run("EncryptedAtRest", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
			require.NoError(t, err)

			var raw string
			require.NoError(t, testDB.DB.Raw("SELECT default_phone FROM accounts WHERE id = ?", account.ID).Scan(&raw).Error)
			assert.NotEmpty(t, raw)
			assert.NotContains(t, raw, "09171234567")

			stored, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, "09171234567", utils.Deref(stored.DefaultPhone))
		})

		t.Run("UpdateVerificationCodeWritesOnlyCode", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
			require.NoError(t, err)

			now := utils.UTCNow()
			account.SetVerificationCode("123456", now)
			account.FirstName = "changed"
			require.NoError(t, repo.UpdateVerificationCode(ctx, account))

			stored, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, "123456", utils.Deref(stored.VerificationCode))
			require.NotNil(t, stored.VerificationCodeExpirationDate)
			assert.WithinDuration(t, now.Add(utils.VerificationCodeTTL), *stored.VerificationCodeExpirationDate, time.Millisecond)
			assert.Equal(t, "juan", stored.FirstName)
			assert.True(t, stored.IsVerificationCodeValidAt("123456", now))
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
			require.NoError(t, err)

			at := utils.UTCNow().Truncate(time.Second)
			require.NoError(t, repo.UpdateLastLogin(ctx, account.ID, at))

			stored, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.LastLoginAt)
			assert.True(t, at.Equal(*stored.LastLoginAt))
		})

		t.Run("VerificationAttempts", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
			require.NoError(t, err)

			for want := 1; want <= 3; want++ {
				got, err := repo.IncrementVerificationAttempts(ctx, account.ID)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}

			require.NoError(t, repo.ResetVerificationAttempts(ctx, account.ID))
			stored, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Zero(t, stored.VerificationAttempts)
		})

		t.Run("DuplicateEmailRejected", func(t *testing.T) {
			existing, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
			require.NoError(t, err)

			dup := &models.Account{
				Username:     "dupemail01",
				Email:        existing.Email,
				PasswordHash: "x",
				IsActive:     utils.ToPtr(true),
			}
			err = repo.Save(ctx, dup)
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
			assert.True(t, repository.IsDuplicateOn(err, models.UniqueAccountEmail))

			// accounts without an email do not collide with each other
			for _, username := range []string{"noemail01", "noemail02"} {
				require.NoError(t, repo.Save(ctx, &models.Account{Username: username, PasswordHash: "x", IsActive: utils.ToPtr(true)}))
			}
		})

		t.Run("TransactionRollsBack", func(t *testing.T) {
			username := "rolledback01"
			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				account := &models.Account{
					Username:     username,
					Email:        "rolledback01@example.com",
					PasswordHash: "x",
					IsActive:     utils.ToPtr(true),
				}
				if err := repo.Save(txCtx, account); err != nil {
					return err
				}
				return errors.New("abort")
			})
			require.EqualError(t, err, "abort")

			stored, err := repo.ByUsername(ctx, username)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("FilterAndCount", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			for range 3 {
				_, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
				require.NoError(t, err)
			}
			_, err := fixtures.CreateTestAccount(models.RoleCollectionAgent)
			require.NoError(t, err)

			role := models.RoleBusinessOwner
			count, err := repo.Count(ctx, models.AccountFilter{Role: &role})
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)

			page, err := repo.ByFilter(ctx, models.AccountFilter{}, "id ASC", 2, 1)
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.Less(t, page[0].ID, page[1].ID)

			missing, err := repo.ByUsername(ctx, "nobody")
			require.NoError(t, err)
			assert.Nil(t, missing)

			missingByID, err := repo.ByID(ctx, 99999)
			require.NoError(t, err)
			assert.Nil(t, missingByID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestNotificationRepository(t *testing.T) {
	if !testingutil.Enabled() {
		t.Skip("TEST_DB_HOST not set")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewNotificationRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
		require.NoError(t, err)
		other, err := fixtures.CreateTestAccount(models.RoleBusinessOwner)
		require.NoError(t, err)

		base := utils.UTCNow().Add(-time.Hour)
		var seed []*models.Notification
		for i, title := range []string{"first", "second", "third"} {
			seed = append(seed, &models.Notification{
				AccountID: owner.ID,
				Title:     title,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
		}
		require.NoError(t, repo.SaveBatch(ctx, seed))
		_, err = fixtures.CreateTestNotification(other.ID, "someone else")
		require.NoError(t, err)

		t.Run("ListUnreadNewestFirst", func(t *testing.T) {
			unread, err := repo.ListUnread(ctx, owner.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, unread, 3)
			assert.Equal(t, "third", unread[0].Title)
			assert.Equal(t, "first", unread[2].Title)

			count, err := repo.CountUnread(ctx, owner.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		t.Run("MarkRead", func(t *testing.T) {
			unread, err := repo.ListUnread(ctx, owner.ID, 1, 0)
			require.NoError(t, err)
			require.Len(t, unread, 1)

			at := utils.UTCNow()
			require.NoError(t, repo.MarkRead(ctx, unread[0], at))

			stored, err := repo.ByUUID(ctx, unread[0].UUID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, stored.IsRead)
			require.NotNil(t, stored.ReadAt)

			count, err := repo.CountUnread(ctx, owner.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)
		})

		return nil
	})
	require.NoError(t, err)
}
