package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	// defaults validate as-is
	{
		assert.NoError(t, Defaults().Validate())
	}
	// YAML overrides field by field, leaving the rest at defaults
	{
		ip := Defaults()
		assert.NoError(t, ip.Parse([]byte("TimeStep: 0.005\nFrictionMu: 0.3\n")))
		assert.Equal(t, 0.005, ip.TimeStep)
		assert.Equal(t, 0.3, ip.FrictionMu)
		assert.Equal(t, 1e5, ip.Kappa)
	}
	// out-of-range values are rejected
	{
		assert.Error(t, Defaults().Parse([]byte("TimeStep: -0.01\n")))
		assert.Error(t, Defaults().Parse([]byte("Kappa: 0\n")))
		assert.Error(t, Defaults().Parse([]byte("FrictionMu: -1\n")))
		assert.Error(t, Defaults().Parse([]byte("PoissonRatio: 0.5\n")))
		assert.Error(t, Defaults().Parse([]byte("PoissonRatio: -0.1\n")))
	}
}
