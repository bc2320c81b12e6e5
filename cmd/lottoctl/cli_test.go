package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/lotto-engine/internal/auth"
	"github.com/rickgao/lotto-engine/internal/drawsync"
	"github.com/rickgao/lotto-engine/internal/server/response"
)

const testSecret = "0123456789abcdef0123"

func TestCommandTree(t *testing.T) {
	want := []string{"generate", "migrate up", "migrate down", "migrate version", "sync run", "sync cancel", "sync status", "version"}
	for _, path := range want {
		cmd, _, err := rootCmd.Find(strings.Fields(path))
		require.NoError(t, err, path)
		assert.Equal(t, strings.Fields(path)[len(strings.Fields(path))-1], cmd.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "dev")
}

func TestAdminClientSignsRequests(t *testing.T) {
	creds, err := auth.NewCredentials("ops", testSecret)
	require.NoError(t, err)
	verifier := auth.NewVerifier(creds, time.Minute)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := verifier.Verify(r); err != nil {
			response.Unauthorized(w, err)
			return
		}
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		response.Success(w, drawsync.Report{Inserted: 4})
	}))
	defer ts.Close()

	c, err := newAdminClient(ts.URL+"/", "ops", testSecret)
	require.NoError(t, err)

	var rep drawsync.Report
	require.NoError(t, c.do(http.MethodPost, "/admin/sync", "wait=true", &rep))
	assert.Equal(t, 4, rep.Inserted)

	bad, err := newAdminClient(ts.URL, "ops", "ffffffffffffffffffff")
	require.NoError(t, err)
	err = bad.do(http.MethodPost, "/admin/sync", "wait=true", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestAdminClientRequiresCredentials(t *testing.T) {
	_, err := newAdminClient("http://localhost", "", testSecret)
	assert.Error(t, err)
}

func TestFormatNumbers(t *testing.T) {
	assert.Equal(t, " 1  2 13 24 35 45", formatNumbers([6]int{1, 2, 13, 24, 35, 45}))
}
