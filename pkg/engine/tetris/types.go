package tetris

// Dimensions is the scalar load of a return: kilograms and cubic centimetres.
type Dimensions struct {
	Mass   float64
	Volume float64
}

// Item represents a waste item headed for a return container.
type Item struct {
	ID         string
	Dimensions Dimensions
	Group      string // source container
}

// Density is mass per unit volume.
func (i *Item) Density() float64 {
	if i.Dimensions.Volume <= 0 {
		return 0
	}
	return i.Dimensions.Mass / i.Dimensions.Volume
}

// Bin represents an undocking container's mass budget and interior volume.
type Bin struct {
	ID       string
	Capacity Dimensions
	Items    []*Item
	Used     Dimensions
}

// canFit reports whether item stays within both budgets.
func (b *Bin) canFit(item *Item) bool {
	return b.Used.Mass+item.Dimensions.Mass <= b.Capacity.Mass+epsilon &&
		b.Used.Volume+item.Dimensions.Volume <= b.Capacity.Volume+epsilon
}

// AddItem places an item inside the bin.
func (b *Bin) AddItem(item *Item) bool {
	if !b.canFit(item) {
		return false
	}

	b.Items = append(b.Items, item)
	b.Used.Mass += item.Dimensions.Mass
	b.Used.Volume += item.Dimensions.Volume
	return true
}

// Waste calculates unused capacity.
func (b *Bin) Waste() Dimensions {
	return Dimensions{
		Mass:   b.Capacity.Mass - b.Used.Mass,
		Volume: b.Capacity.Volume - b.Used.Volume,
	}
}

// Efficiency averages mass and volume utilization.
func (b *Bin) Efficiency() float64 {
	var massEff, volEff float64
	if b.Capacity.Mass > 0 {
		massEff = b.Used.Mass / b.Capacity.Mass
	}
	if b.Capacity.Volume > 0 {
		volEff = b.Used.Volume / b.Capacity.Volume
	}
	return (massEff + volEff) / 2.0
}
