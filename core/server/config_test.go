package server_test

import (
	"testing"

	"netbox-geo/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	c := server.Config{Port: "9090"}
	assert.Equal(t, ":9090", c.Addr())
}
