package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCounts(t *testing.T) {
	m := NewManager()

	m.RecordsLoaded(3)
	m.ParseErrors(1)
	m.BondPriced(2 * time.Millisecond)
	m.BondPriced(time.Millisecond)
	m.ValuationFailed("invalid_term")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.recordsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bondsPriced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.valuationErrors.WithLabelValues("invalid_term")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.valuationDuration))
}

func TestNilManagerIsNoop(t *testing.T) {
	var m *Manager
	m.RecordsLoaded(1)
	m.ParseErrors(1)
	m.BondPriced(time.Second)
	m.ValuationFailed("x")
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := NewManager(WithNamespace("test"))
	m.RecordsLoaded(2)

	path := filepath.Join(t.TempDir(), "bondval.prom")
	require.NoError(t, m.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "test_records_loaded_total 2")
	assert.Contains(t, string(raw), "test_last_run_timestamp_seconds")
}
