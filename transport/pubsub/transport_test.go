package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/flarexio/useradmin"
	"github.com/flarexio/useradmin/persistence/inmem"
	"github.com/flarexio/useradmin/user"
)

func TestErrorCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("404", ErrorCode(fmt.Errorf("%w: id x", user.ErrUserNotFound)))
	assert.Equal("400", ErrorCode(user.ErrInvalidIdentity))
	assert.Equal("400", ErrorCode(useradmin.ErrInvalidRequest))
	assert.Equal("500", ErrorCode(context.DeadlineExceeded))
}

type transportTestSuite struct {
	suite.Suite
	nc  *nats.Conn
	srv micro.Service
}

func (suite *transportTestSuite) SetupSuite() {
	nc, err := nats.Connect(os.Getenv("USERADMIN_TEST_NATS_URL"))
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	store, err := inmem.NewStore()
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	srv, err := micro.AddService(nc, micro.Config{
		Name:    "useradmin_test",
		Version: "0.0.0",
	})
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	endpoints := useradmin.NewEndpointSet(user.NewRepository(store))
	if err := AddEndpoints(srv, endpoints); err != nil {
		suite.FailNow(err.Error())
		return
	}

	suite.nc = nc
	suite.srv = srv
}

func (suite *transportTestSuite) request(subject string, v any) *nats.Msg {
	data, err := json.Marshal(v)
	suite.Require().NoError(err)

	msg, err := suite.nc.Request(subject, data, 5*time.Second)
	suite.Require().NoError(err)
	return msg
}

func (suite *transportTestSuite) TestInsertFindDelete() {
	msg := suite.request("users.insert", useradmin.InsertRequest{
		Name:  "Ana",
		Email: "ana@x.com",
	})

	var u user.User
	suite.Require().NoError(json.Unmarshal(msg.Data, &u))
	suite.NotEmpty(u.ID)

	msg = suite.request("users.find_by_email", EmailRequest{Email: "ana@x.com"})

	var found user.User
	suite.Require().NoError(json.Unmarshal(msg.Data, &found))
	suite.Equal(u, found)

	msg = suite.request("users.delete", IDRequest{ID: u.ID})
	suite.Empty(msg.Header.Get(micro.ErrorCodeHeader))

	msg = suite.request("users.find", IDRequest{ID: u.ID})
	suite.Equal("404", msg.Header.Get(micro.ErrorCodeHeader))
}

func (suite *transportTestSuite) TestInvalidIdentity() {
	msg := suite.request("users.find", IDRequest{ID: "not-an-id"})
	suite.Equal("400", msg.Header.Get(micro.ErrorCodeHeader))
}

func (suite *transportTestSuite) TearDownSuite() {
	if suite.srv != nil {
		suite.srv.Stop()
	}

	if suite.nc != nil {
		suite.nc.Close()
	}
}

func TestTransportTestSuite(t *testing.T) {
	if os.Getenv("USERADMIN_TEST_NATS_URL") == "" {
		t.Skip("USERADMIN_TEST_NATS_URL not set")
	}

	suite.Run(t, new(transportTestSuite))
}
