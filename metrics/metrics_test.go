package metrics_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/metrics"
)

func TestConfig_Validate(t *testing.T) {
	cfg := metrics.DefaultConfig()
	addr, err := cfg.Address()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:2112", addr)

	cfg.Host = "localhost:1"
	require.Error(t, cfg.Validate())

	cfg = metrics.DefaultConfig()
	cfg.Port = 70000
	require.Error(t, cfg.Validate())

	cfg = metrics.DefaultConfig()
	cfg.UpdateInterval = 0
	require.Error(t, cfg.Validate())
}

func TestServer_ExposesCollectors(t *testing.T) {
	rm := metrics.NewRegistryMetrics()
	require.Same(t, rm, metrics.NewRegistryMetrics())
	mm := metrics.NewMonitorMetrics()

	rm.RecordStakeSupply(42)
	rm.RecordMember("0xabc", "validator", 7, 0.1)
	rm.IncrementRejectedOps("addValidator", 2)
	mm.RecordHeader("node-1", 12)
	mm.UpdateMonitorMetrics()

	srv, err := metrics.Start("127.0.0.1:0", zap.NewNop())
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Contains(t, string(body), "registry_stake_supply 42")
	require.Contains(t, string(body), `registry_user_stake{address="0xabc",role="validator"} 7`)
	require.Contains(t, string(body), `registry_rejected_operations_total{code="2",operation="addValidator"}`)
	require.Contains(t, string(body), `monitor_last_observed_height{client="node-1"} 12`)

	rm.RemoveMember("0xabc", "validator")
	resp2, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, err = io.ReadAll(resp2.Body)
	require.NoError(t, err)
	require.NotContains(t, string(body), `address="0xabc"`)
}
