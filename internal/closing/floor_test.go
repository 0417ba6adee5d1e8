package closing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLotFloor(t *testing.T) {
	f := LotFloor{PerLot: 20.0, Cap: 25.0}
	assert.InDelta(t, 4.0, f.Required(0.2, 2), 1e-9)
	assert.InDelta(t, 25.0, f.Required(2.0, 2), 1e-9, "cap applies to large volume")

	uncapped := LotFloor{PerLot: 20.0}
	assert.InDelta(t, 40.0, uncapped.Required(2.0, 2), 1e-9, "zero cap disables capping")
}

func TestCountFloor(t *testing.T) {
	f := CountFloor{PerPosition: 0.5, Cap: 25.0}
	assert.InDelta(t, 1.5, f.Required(10.0, 3), 1e-9, "volume is ignored")
	assert.InDelta(t, 25.0, f.Required(0.1, 100), 1e-9)
}

func TestHybridFloor(t *testing.T) {
	f := HybridFloor{PerLot: 5.0, PerPosition: 0.5, Cap: 25.0}
	// 5*0.2 + 0.5*2
	assert.InDelta(t, 2.0, f.Required(0.2, 2), 1e-9)
	assert.InDelta(t, 25.0, f.Required(100.0, 8), 1e-9)
}

func TestFixedFloor(t *testing.T) {
	f := FixedFloor{Min: 0.10}
	assert.InDelta(t, 0.10, f.Required(5.0, 10), 1e-9)
}
