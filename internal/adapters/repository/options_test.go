package repository

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/motelhub/directory/internal/domain/idgen"
)

func TestApplyOptions(t *testing.T) {
	o := applyOptions(nil)
	assert.NotNil(t, o.ids, "a generator is always present")
	assert.Nil(t, o.metrics)
	o.metrics.observe("venues", "create", nil)

	ids := idgen.New()
	reg := prometheus.NewRegistry()
	o = applyOptions([]Option{WithIDGenerator(ids), WithMetrics(reg)})
	assert.Same(t, ids, o.ids)

	o.metrics.observe("venues", "create", nil)
	o.metrics.observe("venues", "create", errors.New("disk full"))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.writes.WithLabelValues("venues", "create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.writes.WithLabelValues("venues", "create", "error")))

	again := applyOptions([]Option{WithMetrics(reg)})
	assert.Same(t, o.metrics.writes, again.metrics.writes, "a second store shares the registered counter")
}
