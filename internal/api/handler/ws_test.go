package handler_test

import (
	"complaintportal/backend/internal/models"
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWebSocket_HubStoppedClosesConnection(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "adm-1", models.RoleAdmin)

	ctx, cancel := context.WithCancel(context.Background())
	go f.h.Hub.Run(ctx)
	cancel()
	<-f.h.Hub.Done()

	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should be closed, not left hanging")
	}
}
