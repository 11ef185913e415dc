package kv

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/persistence/storetest"
	"github.com/flarexio/useradmin/user"
)

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, &storetest.StoreTestSuite{
		NewStore: func() (user.Store, error) {
			cfg := conf.Persistence{
				Driver: conf.BadgerDB,
				Name:   "useradmin",
				InMem:  true,
			}

			return NewStore(cfg)
		},
	})
}
