//go:build integration

package user_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cropchain/internal/identity/models"
	"cropchain/internal/identity/store/user"
	"cropchain/internal/platform/postgres"
	id "cropchain/pkg/domain"
	"cropchain/pkg/platform/sentinel"
	"cropchain/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newTestUser(email string, role models.Role) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	u, err := models.NewUser(id.NewUserID(), "Priya Sharma", email, role, now)
	if err != nil {
		panic(err)
	}
	return u
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	u := newTestUser("priya@example.com", models.RoleFarmer)
	s.Require().NoError(s.store.Create(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
	s.Equal(models.RoleFarmer, found.Role)
	s.Nil(found.Verification)
	s.Empty(found.VerificationHistory)

	_, err = s.store.FindByID(ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Create(ctx, newTestUser("PRIYA@example.com", models.RoleFarmer))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestExecutePersistsVerification() {
	ctx := context.Background()
	u := newTestUser("suresh@example.com", models.RoleTransporter)
	s.Require().NoError(s.store.Create(ctx, u))
	now := time.Now().UTC().Truncate(time.Microsecond)
	verifier := id.NewUserID()

	_, err := s.store.Execute(ctx, u.ID,
		func(*models.User) error { return nil },
		func(u *models.User) {
			u.ApplyWallet("0xAbC", false, now)
			u.ApplyVerification(models.Verification{
				IsVerified:     true,
				VerifiedBy:     verifier,
				VerifiedAt:     now,
				CredentialHash: "0x01",
				Signature:      "0x02",
			}, now)
			u.ApplyRevocation("expired", now)
			u.ApplyVerification(models.Verification{IsVerified: true, VerifiedBy: verifier, VerifiedAt: now, CredentialHash: "0x03"}, now)
		},
	)
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("0xAbC", found.WalletAddress)
	s.Require().NotNil(found.Verification)
	s.Equal("0x03", found.Verification.CredentialHash)
	s.Require().Len(found.VerificationHistory, 1)
	s.Equal("expired", found.VerificationHistory[0].RevocationReason)
	s.Equal(verifier, found.VerificationHistory[0].VerifiedBy)
}

func (s *PostgresStoreSuite) TestExecuteRollsBackOnValidationError() {
	ctx := context.Background()
	u := newTestUser("rollback@example.com", models.RoleRetailer)
	s.Require().NoError(s.store.Create(ctx, u))

	_, err := s.store.Execute(ctx, u.ID,
		func(*models.User) error { return errors.New("nope") },
		func(u *models.User) { u.WalletAddress = "0x1" },
	)
	s.Require().Error(err)

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Empty(found.WalletAddress)
}

func (s *PostgresStoreSuite) TestExecuteSerializesWriters() {
	ctx := context.Background()
	u := newTestUser("race@example.com", models.RoleFarmer)
	s.Require().NoError(s.store.Create(ctx, u))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.store.Execute(ctx, u.ID,
				func(*models.User) error { return nil },
				func(u *models.User) {
					u.VerificationHistory = append(u.VerificationHistory, models.Verification{})
				},
			)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Len(found.VerificationHistory, 10, "row lock must serialize read-modify-write")
}
