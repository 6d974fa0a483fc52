package port

import "github.com/dmitriid/svx/internal/domain"

// Loader accepts compiled units for immediate loading into the host
// component runtime. Loading a name that is already registered replaces
// the previous definition and must not fail.
type Loader interface {
	Load(unit domain.CompiledUnit) error
}
