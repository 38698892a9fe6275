// Package di wires the propagation stack into a samber/do injector.
//
//	injector := di.New()
//	di.RegisterCoreProviders(injector, di.ConfigOptions{ConfigPath: "./configs"})
//	runner := do.MustInvoke[*playground.Runner](injector)
package di

import "github.com/samber/do/v2"

// Injector is the samber/do injector interface
type Injector = do.Injector

// RootScope is the samber/do root scope
type RootScope = do.RootScope

// New creates a root injector
var New = do.New
