package physics

import "fmt"

// FromName builds a residual model by its configuration name.
func FromName(name string) (Model, error) {
	switch name {
	case "burgers":
		return NewBurgers(), nil
	case "advection":
		return NewAdvection(), nil
	default:
		return nil, fmt.Errorf("physics: unknown system %q", name)
	}
}
