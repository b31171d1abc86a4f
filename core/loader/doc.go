// Package loader provides the feature loading system.
//
// Each feature package (catalog, product, stock, importer, webhook, integrity)
// exposes a Feature that mounts its routes:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager registers features and loads the enabled ones in order.
package loader
