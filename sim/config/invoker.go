package config

import (
	"fmt"

	"github.com/inference-sim/faas-sim/sim/faas"
)

// validInvokerPolicies is the closed set of invoker policy names the
// resolver accepts.
var validInvokerPolicies = map[string]bool{
	"NaiveInvoker": true,
	"FIFOInvoker":  true,
}

// ValidInvokerPolicyNames returns the literal invoker policy names this
// resolver accepts.
func ValidInvokerPolicyNames() []string {
	return []string{"FIFOInvoker", "NaiveInvoker"}
}

// IsValidInvokerPolicy reports whether name is one of the recognized
// invoker policy literals.
func IsValidInvokerPolicy(name string) bool { return validInvokerPolicies[name] }

// ResolveInvoker maps one of the literal strings "NaiveInvoker" or
// "FIFOInvoker" to a fresh invoker instance over cm. Any other name is a
// configuration error. Delegates to faas.NewInvoker, which implements the
// identical mapping -- this function exists so config callers get an
// error value instead of a panic, without duplicating the switch.
func ResolveInvoker(name string, cm *faas.ContainerManager) (faas.Invoker, error) {
	if !IsValidInvokerPolicy(name) {
		return nil, fmt.Errorf("config: unknown invoker policy %q; valid options: %v", name, ValidInvokerPolicyNames())
	}
	return faas.NewInvoker(name, cm), nil
}
