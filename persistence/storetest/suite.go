// Package storetest holds the behaviour every user.Store backend must share.
package storetest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/useradmin/user"
)

type StoreTestSuite struct {
	suite.Suite
	NewStore func() (user.Store, error)

	ctx   context.Context
	store user.Store
	doc   *user.Document
}

func (suite *StoreTestSuite) SetupSuite() {
	store, err := suite.NewStore()
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	suite.ctx = context.Background()
	suite.store = store
}

func (suite *StoreTestSuite) SetupTest() {
	_, err := suite.store.DeleteMany(suite.ctx)
	suite.Require().NoError(err)

	doc := &user.Document{
		Name:  "Ana",
		Email: "ana@x.com",
	}

	oid, err := suite.store.InsertOne(suite.ctx, doc)
	suite.Require().NoError(err)

	doc.OID = oid
	suite.doc = doc
}

func (suite *StoreTestSuite) TestInsertOne() {
	oid, err := suite.store.InsertOne(suite.ctx, &user.Document{
		Name:  "Bruno",
		Email: "bruno@x.com",
	})

	suite.NoError(err)
	suite.False(oid.IsZero())
	suite.NotEqual(suite.doc.OID, oid)
}

func (suite *StoreTestSuite) TestFindOneByID() {
	doc, err := suite.store.FindOne(suite.ctx, user.ByID(suite.doc.OID))
	suite.NoError(err)
	suite.Equal(suite.doc.OID, doc.OID)
	suite.Equal("Ana", doc.Name)
	suite.Equal("ana@x.com", doc.Email)
}

func (suite *StoreTestSuite) TestFindOneByEmail() {
	doc, err := suite.store.FindOne(suite.ctx, user.ByEmail("ana@x.com"))
	suite.NoError(err)
	suite.Equal(suite.doc.OID, doc.OID)
	suite.Equal("Ana", doc.Name)
}

func (suite *StoreTestSuite) TestFindOneNoDocuments() {
	_, err := suite.store.FindOne(suite.ctx, user.ByEmail("missing@x.com"))
	suite.ErrorIs(err, user.ErrNoDocuments)

	_, err = suite.store.FindOne(suite.ctx, user.ByID(user.MakeID()))
	suite.ErrorIs(err, user.ErrNoDocuments)
}

func (suite *StoreTestSuite) TestFindOneAndUpdate() {
	name := "Ana Maria"

	_, err := suite.store.FindOneAndUpdate(suite.ctx, suite.doc.OID, user.Patch{Name: &name})
	suite.NoError(err)

	doc, err := suite.store.FindOne(suite.ctx, user.ByID(suite.doc.OID))
	suite.NoError(err)
	suite.Equal("Ana Maria", doc.Name)
	suite.Equal("ana@x.com", doc.Email)
}

func (suite *StoreTestSuite) TestFindOneAndUpdateEmptyPatch() {
	_, err := suite.store.FindOneAndUpdate(suite.ctx, suite.doc.OID, user.Patch{})
	suite.NoError(err)

	doc, err := suite.store.FindOne(suite.ctx, user.ByID(suite.doc.OID))
	suite.NoError(err)
	suite.Equal("Ana", doc.Name)
	suite.Equal("ana@x.com", doc.Email)
}

func (suite *StoreTestSuite) TestFindOneAndUpdateNoDocuments() {
	name := "Nobody"

	_, err := suite.store.FindOneAndUpdate(suite.ctx, user.MakeID(), user.Patch{Name: &name})
	suite.ErrorIs(err, user.ErrNoDocuments)
}

func (suite *StoreTestSuite) TestFindOneAndUpdateEmail() {
	email := "ana@y.com"

	_, err := suite.store.FindOneAndUpdate(suite.ctx, suite.doc.OID, user.Patch{Email: &email})
	suite.NoError(err)

	doc, err := suite.store.FindOne(suite.ctx, user.ByEmail("ana@y.com"))
	suite.NoError(err)
	suite.Equal(suite.doc.OID, doc.OID)

	_, err = suite.store.FindOne(suite.ctx, user.ByEmail("ana@x.com"))
	suite.ErrorIs(err, user.ErrNoDocuments)
}

func (suite *StoreTestSuite) TestDeleteOne() {
	n, err := suite.store.DeleteOne(suite.ctx, suite.doc.OID)
	suite.NoError(err)
	suite.Equal(int64(1), n)

	n, err = suite.store.DeleteOne(suite.ctx, suite.doc.OID)
	suite.NoError(err)
	suite.Equal(int64(0), n)

	_, err = suite.store.FindOne(suite.ctx, user.ByID(suite.doc.OID))
	suite.ErrorIs(err, user.ErrNoDocuments)
}

func (suite *StoreTestSuite) TestFind() {
	_, err := suite.store.InsertOne(suite.ctx, &user.Document{Name: "Bruno", Email: "bruno@x.com"})
	suite.Require().NoError(err)

	_, err = suite.store.InsertOne(suite.ctx, &user.Document{Name: "Carla", Email: "carla@x.com"})
	suite.Require().NoError(err)

	docs, err := suite.store.Find(suite.ctx)
	suite.NoError(err)
	suite.Len(docs, 3)

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Name)
	}

	suite.ElementsMatch([]string{"Ana", "Bruno", "Carla"}, names)
}

func (suite *StoreTestSuite) TestDeleteMany() {
	n, err := suite.store.DeleteMany(suite.ctx)
	suite.NoError(err)
	suite.Equal(int64(1), n)

	n, err = suite.store.DeleteMany(suite.ctx)
	suite.NoError(err)
	suite.Equal(int64(0), n)

	docs, err := suite.store.Find(suite.ctx)
	suite.NoError(err)
	suite.Empty(docs)
}

func (suite *StoreTestSuite) TearDownSuite() {
	if suite.store == nil {
		return
	}

	suite.store.DeleteMany(suite.ctx)
	suite.store.Close()
}
