// Package loader registers the HTTP features of the service.
//
// Each feature implements Feature: a name, an enabled switch and a Load hook
// that mounts its routes. The Manager loads enabled features in registration
// order.
//
//	mgr := loader.NewManager(logger)
//	mgr.Register(library.NewFeature(...))
//	err := mgr.LoadAll(app.Group("/api"))
package loader
