package tetris

import (
	"math"
	"sort"
)

const epsilon = 1e-9

// Packer handles the logic of placing Items into Bins.
type Packer struct{}

func NewPacker() *Packer {
	return &Packer{}
}

// SortByDensity orders items by density, then mass, both descending, then ID.
func SortByDensity(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].Density(), items[j].Density()
		if math.Abs(di-dj) > epsilon {
			return di > dj
		}
		if items[i].Dimensions.Mass != items[j].Dimensions.Mass {
			return items[i].Dimensions.Mass > items[j].Dimensions.Mass
		}
		return items[i].ID < items[j].ID
	})
}

// Fill greedily loads a single bin in density order. admit is consulted after the
// scalar budgets pass and may reject an item (e.g. no geometric slot); nil admits all.
// It returns the items left out, in the order they were considered.
func (p *Packer) Fill(bin *Bin, items []*Item, admit func(*Item) bool) []*Item {
	ordered := append([]*Item(nil), items...)
	SortByDensity(ordered)

	var rest []*Item
	for _, item := range ordered {
		if !bin.canFit(item) {
			rest = append(rest, item)
			continue
		}
		if admit != nil && !admit(item) {
			rest = append(rest, item)
			continue
		}
		bin.AddItem(item)
	}
	return rest
}

// Pack performs Best Fit Decreasing (BFD) bin packing over mass and volume.
// It takes a list of items and a factory function to create new bins.
// It returns the list of used bins.
func (p *Packer) Pack(items []*Item, binFactory func() *Bin) []*Bin {
	// 1. Sort Items Decreasing. Heavier items first so the mass budget fragments less.
	sorted := append([]*Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Dimensions.Mass != sorted[j].Dimensions.Mass {
			return sorted[i].Dimensions.Mass > sorted[j].Dimensions.Mass
		}
		return sorted[i].Dimensions.Volume > sorted[j].Dimensions.Volume
	})

	var usedBins []*Bin

	for _, item := range sorted {
		bestFitIndex := -1
		minResidual := math.MaxFloat64

		// 2. Best Fit: the bin this item leaves with the least normalized residual.
		for i, bin := range usedBins {
			if !bin.canFit(item) {
				continue
			}
			residual := normalized(bin.Capacity.Mass-bin.Used.Mass-item.Dimensions.Mass, bin.Capacity.Mass) +
				normalized(bin.Capacity.Volume-bin.Used.Volume-item.Dimensions.Volume, bin.Capacity.Volume)
			if residual < minResidual {
				minResidual = residual
				bestFitIndex = i
			}
		}

		if bestFitIndex != -1 {
			usedBins[bestFitIndex].AddItem(item)
			continue
		}

		// 3. Open a new Bin
		newBin := binFactory()
		if !newBin.AddItem(item) {
			// Exceeds an empty bin; no number of trips will carry it.
			continue
		}
		usedBins = append(usedBins, newBin)
	}

	return usedBins
}

func normalized(v, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return v / capacity
}
