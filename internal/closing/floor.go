package closing

// ProfitFloor computes the minimum total profit a combination must clear
// (rule R5). The floor formula differs between deployments, so it is a
// pluggable strategy rather than a hard-coded variant.
type ProfitFloor interface {
	// Required returns the floor for a group of the given total volume and
	// position count. A group whose total P&L is below the returned value
	// is rejected.
	Required(totalVolume float64, positionCount int) float64
}

// LotFloor scales the floor with total volume: larger groups must clear a
// proportionally larger bar, capped so the bar never becomes unreasonable.
type LotFloor struct {
	PerLot float64
	Cap    float64 // 0 disables the cap
}

// Required implements ProfitFloor.
func (f LotFloor) Required(totalVolume float64, _ int) float64 {
	return capFloor(f.PerLot*totalVolume, f.Cap)
}

// CountFloor scales the floor with the number of positions in the group.
type CountFloor struct {
	PerPosition float64
	Cap         float64
}

// Required implements ProfitFloor.
func (f CountFloor) Required(_ float64, positionCount int) float64 {
	return capFloor(f.PerPosition*float64(positionCount), f.Cap)
}

// HybridFloor combines the lot-based and count-based formulas under one cap.
// This is the default strategy.
type HybridFloor struct {
	PerLot      float64
	PerPosition float64
	Cap         float64
}

// Required implements ProfitFloor.
func (f HybridFloor) Required(totalVolume float64, positionCount int) float64 {
	return capFloor(f.PerLot*totalVolume+f.PerPosition*float64(positionCount), f.Cap)
}

// FixedFloor is a constant floor, used by SURVIVAL mode where the bar is
// relaxed to the smallest positive threshold configured.
type FixedFloor struct {
	Min float64
}

// Required implements ProfitFloor.
func (f FixedFloor) Required(float64, int) float64 { return f.Min }

func capFloor(raw, cap float64) float64 {
	if cap > 0 && raw > cap {
		return cap
	}
	return raw
}
