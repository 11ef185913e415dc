package user_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/useradmin/persistence/inmem"
	"github.com/flarexio/useradmin/user"
)

type repositoryTestSuite struct {
	suite.Suite
	ctx   context.Context
	users user.Repository
	user  user.User
}

func (suite *repositoryTestSuite) SetupSuite() {
	store, err := inmem.NewStore()
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.ctx = context.Background()
	suite.users = user.NewRepository(store)
}

func (suite *repositoryTestSuite) SetupTest() {
	err := suite.users.DeleteAll(suite.ctx)
	suite.Require().NoError(err)

	u, err := suite.users.Insert(suite.ctx, user.User{
		Name:  "Ana",
		Email: "ana@x.com",
	})
	suite.Require().NoError(err)

	suite.user = u
}

func (suite *repositoryTestSuite) TestInsert() {
	suite.NotEmpty(suite.user.ID)
	suite.Equal("Ana", suite.user.Name)
	suite.Equal("ana@x.com", suite.user.Email)

	_, err := user.ParseID(suite.user.ID)
	suite.NoError(err)
}

func (suite *repositoryTestSuite) TestInsertIgnoresSuppliedID() {
	supplied := user.MakeID().String()

	u, err := suite.users.Insert(suite.ctx, user.User{
		ID:    supplied,
		Name:  "Bruno",
		Email: "bruno@x.com",
	})

	suite.NoError(err)
	suite.NotEqual(supplied, u.ID)
}

func (suite *repositoryTestSuite) TestInsertDuplicateEmail() {
	u, err := suite.users.Insert(suite.ctx, user.User{
		Name:  "Ana Clone",
		Email: "ana@x.com",
	})

	suite.NoError(err)
	suite.NotEqual(suite.user.ID, u.ID)
}

func (suite *repositoryTestSuite) TestFindOneByID() {
	u, err := suite.users.FindOneByID(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.Equal(suite.user, u)
}

func (suite *repositoryTestSuite) TestFindOneByIDNeverExposesInternalIdentity() {
	u, err := suite.users.FindOneByID(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	bs, err := json.Marshal(&u)
	suite.Require().NoError(err)

	var fields map[string]any
	suite.Require().NoError(json.Unmarshal(bs, &fields))

	suite.Equal(suite.user.ID, fields["id"])
	suite.NotContains(fields, "_id")
}

func (suite *repositoryTestSuite) TestFindOneByEmail() {
	u, err := suite.users.FindOneByEmail(suite.ctx, "ana@x.com")
	suite.NoError(err)
	suite.Equal(suite.user, u)
}

func (suite *repositoryTestSuite) TestFindOneByEmailNotFound() {
	suite.users.DeleteAll(suite.ctx)

	_, err := suite.users.FindOneByEmail(suite.ctx, "missing@x.com")
	suite.ErrorIs(err, user.ErrUserNotFound)
	suite.Contains(err.Error(), "missing@x.com")
}

func (suite *repositoryTestSuite) TestNotFound() {
	id := user.MakeID().String()

	_, err := suite.users.FindOneByID(suite.ctx, id)
	suite.ErrorIs(err, user.ErrUserNotFound)

	name := "X"
	_, err = suite.users.Update(suite.ctx, id, user.Patch{Name: &name})
	suite.ErrorIs(err, user.ErrUserNotFound)

	err = suite.users.Delete(suite.ctx, id)
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *repositoryTestSuite) TestInvalidIdentity() {
	ids := []string{"", "not-an-id", "507f1f77bcf86cd799439011", suite.user.ID + "0"}

	for _, id := range ids {
		_, err := suite.users.FindOneByID(suite.ctx, id)
		suite.ErrorIs(err, user.ErrInvalidIdentity, id)
		suite.NotErrorIs(err, user.ErrUserNotFound, id)

		name := "X"
		_, err = suite.users.Update(suite.ctx, id, user.Patch{Name: &name})
		suite.ErrorIs(err, user.ErrInvalidIdentity, id)

		err = suite.users.Delete(suite.ctx, id)
		suite.ErrorIs(err, user.ErrInvalidIdentity, id)
	}
}

func (suite *repositoryTestSuite) TestUpdate() {
	name := "X"

	u, err := suite.users.Update(suite.ctx, suite.user.ID, user.Patch{Name: &name})
	suite.NoError(err)
	suite.Equal(suite.user.ID, u.ID)
	suite.Equal("X", u.Name)
	suite.Equal("ana@x.com", u.Email)

	found, err := suite.users.FindOneByID(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.Equal(u, found)
}

func (suite *repositoryTestSuite) TestUpdateEmptyPatch() {
	u, err := suite.users.Update(suite.ctx, suite.user.ID, user.Patch{})
	suite.NoError(err)
	suite.Equal(suite.user, u)
}

func (suite *repositoryTestSuite) TestDelete() {
	err := suite.users.Delete(suite.ctx, suite.user.ID)
	suite.NoError(err)

	_, err = suite.users.FindOneByID(suite.ctx, suite.user.ID)
	suite.ErrorIs(err, user.ErrUserNotFound)

	err = suite.users.Delete(suite.ctx, suite.user.ID)
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *repositoryTestSuite) TestFindAll() {
	_, err := suite.users.Insert(suite.ctx, user.User{Name: "Bruno", Email: "bruno@x.com"})
	suite.Require().NoError(err)

	all, err := suite.users.FindAll(suite.ctx)
	suite.NoError(err)
	suite.Len(all, 2)

	for _, u := range all {
		suite.NotEmpty(u.ID)
	}
}

func (suite *repositoryTestSuite) TestFindAllEmpty() {
	suite.users.DeleteAll(suite.ctx)

	all, err := suite.users.FindAll(suite.ctx)
	suite.NoError(err)
	suite.NotNil(all)
	suite.Empty(all)
}

func (suite *repositoryTestSuite) TestDeleteAllTwice() {
	suite.NoError(suite.users.DeleteAll(suite.ctx))

	all, err := suite.users.FindAll(suite.ctx)
	suite.NoError(err)
	suite.Empty(all)

	suite.NoError(suite.users.DeleteAll(suite.ctx))

	all, err = suite.users.FindAll(suite.ctx)
	suite.NoError(err)
	suite.Empty(all)
}

func (suite *repositoryTestSuite) TestScenario() {
	suite.users.DeleteAll(suite.ctx)

	u, err := suite.users.Insert(suite.ctx, user.User{Name: "Ana", Email: "ana@x.com"})
	suite.Require().NoError(err)
	suite.NotEmpty(u.ID)
	suite.Equal("Ana", u.Name)
	suite.Equal("ana@x.com", u.Email)

	found, err := suite.users.FindOneByEmail(suite.ctx, "ana@x.com")
	suite.NoError(err)
	suite.Equal(u, found)

	err = suite.users.Delete(suite.ctx, u.ID)
	suite.NoError(err)

	_, err = suite.users.FindOneByID(suite.ctx, u.ID)
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *repositoryTestSuite) TestConcurrentInserts() {
	var wg sync.WaitGroup

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := suite.users.Insert(suite.ctx, user.User{Name: "N", Email: "n@x.com"})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		suite.NoError(err)
	}

	all, err := suite.users.FindAll(suite.ctx)
	suite.NoError(err)
	suite.Len(all, 21)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(repositoryTestSuite))
}

var errConnectionLost = errors.New("connection lost")

// faultyStore fails every call with the same store-level error.
type faultyStore struct{}

func (faultyStore) InsertOne(context.Context, *user.Document) (user.ObjectID, error) {
	return user.ObjectID{}, errConnectionLost
}

func (faultyStore) FindOneAndUpdate(context.Context, user.ObjectID, user.Patch) (*user.Document, error) {
	return nil, errConnectionLost
}

func (faultyStore) DeleteOne(context.Context, user.ObjectID) (int64, error) {
	return 0, errConnectionLost
}

func (faultyStore) DeleteMany(context.Context) (int64, error) {
	return 0, errConnectionLost
}

func (faultyStore) FindOne(context.Context, user.Filter) (*user.Document, error) {
	return nil, errConnectionLost
}

func (faultyStore) Find(context.Context) ([]*user.Document, error) {
	return nil, errConnectionLost
}

func (faultyStore) Close() error {
	return nil
}

func TestStoreFaultsPropagate(t *testing.T) {
	ctx := context.Background()
	users := user.NewRepository(faultyStore{})
	id := user.MakeID().String()
	name := "X"

	_, err := users.Insert(ctx, user.User{Name: "Ana"})
	if err != errConnectionLost {
		t.Fatalf("insert: expected %v, got %v", errConnectionLost, err)
	}

	_, err = users.FindOneByID(ctx, id)
	if err != errConnectionLost {
		t.Fatalf("find by id: expected %v, got %v", errConnectionLost, err)
	}

	_, err = users.FindOneByEmail(ctx, "ana@x.com")
	if err != errConnectionLost {
		t.Fatalf("find by email: expected %v, got %v", errConnectionLost, err)
	}

	_, err = users.Update(ctx, id, user.Patch{Name: &name})
	if err != errConnectionLost {
		t.Fatalf("update: expected %v, got %v", errConnectionLost, err)
	}

	err = users.Delete(ctx, id)
	if err != errConnectionLost {
		t.Fatalf("delete: expected %v, got %v", errConnectionLost, err)
	}

	_, err = users.FindAll(ctx)
	if err != errConnectionLost {
		t.Fatalf("find all: expected %v, got %v", errConnectionLost, err)
	}

	err = users.DeleteAll(ctx)
	if err != errConnectionLost {
		t.Fatalf("delete all: expected %v, got %v", errConnectionLost, err)
	}
}
