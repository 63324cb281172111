//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"cropchain/pkg/testutil/containers"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	redis := containers.NewRedisContainer(t)
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) snapshotStore {
		if err := redis.FlushAll(context.Background()); err != nil {
			t.Fatal(err)
		}
		return NewRedis(redis.Client)
	}})
}
