package matrix

// DeviceMatrix is the write side of a Jacobian, as seen by the assemblers.
type DeviceMatrix interface {
	AddElement(i, j int, value float64) // 0-based indexing, additive
}
