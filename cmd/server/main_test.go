package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/arvena/talentd/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewHTTPServerAppliesTimeouts(t *testing.T) {
	srv := newHTTPServer(config.ServerConfig{
		Port:         "8090",
		ReadTimeout:  15,
		WriteTimeout: 45,
	}, http.NewServeMux())

	assert.Equal(t, ":8090", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 45*time.Second, srv.WriteTimeout)
}
