package env

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"amm101ctl/pkg/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	fixtures  = filepath.Join("..", "artifacts", "testdata")
	contracts = []string{"PointERC20", "DummyToken", "Evaluator"}
	validKey  = "0x" + "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

func TestCheckPrerequisites(t *testing.T) {
	tests := []struct {
		name       string
		nodeErr    error
		npxErr     error
		key        string
		dir        string
		wantNode   bool
		wantNpx    bool
		wantKey    bool
		wantKeyErr string
		wantReady  bool
	}{
		{
			name:      "Everything present",
			key:       validKey,
			dir:       fixtures,
			wantNode:  true,
			wantNpx:   true,
			wantKey:   true,
			wantReady: true,
		},
		{
			name:      "Node missing does not block deployment",
			nodeErr:   errors.New("not found"),
			npxErr:    errors.New("not found"),
			key:       validKey,
			dir:       fixtures,
			wantKey:   true,
			wantReady: true,
		},
		{
			name:       "Key missing",
			key:        "",
			dir:        fixtures,
			wantNode:   true,
			wantNpx:    true,
			wantKeyErr: "not set",
		},
		{
			name:       "Key malformed",
			key:        "0x1234",
			dir:        fixtures,
			wantNode:   true,
			wantNpx:    true,
			wantKeyErr: "64 hex",
		},
		{
			name:     "Artifacts missing",
			key:      validKey,
			dir:      "does-not-exist",
			wantNode: true,
			wantNpx:  true,
			wantKey:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := new(mocks.MockCommandExecutor)
			ex.On("Output", "node", []string{"--version"}).Return("v22.11.0\n", tt.nodeErr)
			ex.On("LookPath", "npx").Return("/usr/bin/npx", tt.npxErr)

			res := CheckPrerequisites(ex, tt.dir, contracts, tt.key)

			assert.Equal(t, tt.wantNode, res.HasNode)
			if tt.wantNode {
				assert.Equal(t, "v22.11.0", res.NodeVer)
			}
			assert.Equal(t, tt.wantNpx, res.HasNpx)
			assert.Equal(t, tt.wantKey, res.HasPrivateKey)
			if tt.wantKeyErr != "" {
				assert.Contains(t, res.PrivateKeyErr, tt.wantKeyErr)
			}
			assert.NotContains(t, res.PrivateKeyErr, "1234")
			assert.Len(t, res.Artifacts, 3)
			assert.Equal(t, tt.wantReady, res.Ready())
			ex.AssertExpectations(t)
		})
	}
}

func TestCheckPrerequisites_ReportsEachArtifact(t *testing.T) {
	ex := new(mocks.MockCommandExecutor)
	ex.On("Output", mock.Anything, mock.Anything).Return("", errors.New("no node"))
	ex.On("LookPath", mock.Anything).Return("", errors.New("no npx"))

	res := CheckPrerequisites(ex, fixtures, []string{"PointERC20", "Missing"}, validKey)
	assert.True(t, res.Artifacts["PointERC20"])
	assert.False(t, res.Artifacts["Missing"])
	assert.False(t, res.Ready())
}

func TestIsPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port

	assert.True(t, IsPortInUse("127.0.0.1", port))
	require.NoError(t, ln.Close())
	assert.False(t, IsPortInUse("127.0.0.1", port))
}
