package scene

import "github.com/go-gl/mathgl/mgl32"

// initialBatchSize is how many instance slots are reserved up front; the
// arena grows towards its capacity on demand.
const initialBatchSize = 1024

// Batch draws one geometry many times with per-instance transforms in a
// single call. It never holds more than its capacity.
type Batch struct {
	Name     string
	Geometry Geometry
	Material Material

	instances []mgl32.Mat4
	capacity  int
	version   uint64
}

// NewBatch creates an empty batch with room for capacity instances
func NewBatch(name string, geometry Geometry, material Material, capacity int) *Batch {
	if capacity < 0 {
		capacity = 0
	}
	return &Batch{
		Name:      name,
		Geometry:  geometry,
		Material:  material,
		instances: make([]mgl32.Mat4, 0, min(capacity, initialBatchSize)),
		capacity:  capacity,
	}
}

// Append adds one instance. It returns false and changes nothing when the
// batch is full.
func (b *Batch) Append(transform mgl32.Mat4) bool {
	if len(b.instances) >= b.capacity {
		return false
	}
	b.instances = append(b.instances, transform)
	b.version++
	return true
}

// Reset drops all instances and keeps the allocated slots
func (b *Batch) Reset() {
	b.instances = b.instances[:0]
	b.version++
}

// Count returns the number of live instances
func (b *Batch) Count() int {
	return len(b.instances)
}

// Capacity returns the maximum number of instances
func (b *Batch) Capacity() int {
	return b.capacity
}

// Instances returns the live instance transforms. The slice is only valid
// until the next Append or Reset.
func (b *Batch) Instances() []mgl32.Mat4 {
	return b.instances
}

// Version changes whenever the instances do, so backends can keep their
// converted copy until then
func (b *Batch) Version() uint64 {
	return b.version
}
