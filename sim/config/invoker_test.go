package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/faas-sim/sim/faas"
)

func TestResolveInvoker_KnownNames(t *testing.T) {
	cm := faas.NewContainerManager(1, faas.Resources{Cores: 1, MemoryBytes: 1000})

	inv, err := ResolveInvoker("FIFOInvoker", cm)
	require.NoError(t, err)
	assert.IsType(t, &faas.FIFOInvoker{}, inv)

	inv, err = ResolveInvoker("NaiveInvoker", cm)
	require.NoError(t, err)
	assert.IsType(t, &faas.NaiveInvoker{}, inv)
}

func TestResolveInvoker_UnknownNameIsAnError(t *testing.T) {
	cm := faas.NewContainerManager(1, faas.Resources{Cores: 1, MemoryBytes: 1000})
	_, err := ResolveInvoker("BogusInvoker", cm)
	assert.Error(t, err)
}

func TestIsValidInvokerPolicy(t *testing.T) {
	assert.True(t, IsValidInvokerPolicy("NaiveInvoker"))
	assert.True(t, IsValidInvokerPolicy("FIFOInvoker"))
	assert.False(t, IsValidInvokerPolicy("Naive"))
	assert.False(t, IsValidInvokerPolicy(""))
}
