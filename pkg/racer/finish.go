package racer

// FinishOrder records the order in which racers completed the race distance.
// Each id is recorded at most once.
type FinishOrder struct {
	ids  []string
	seen map[string]int
}

func NewFinishOrder() *FinishOrder {
	return &FinishOrder{seen: map[string]int{}}
}

// Append records id and returns its 1-indexed place.
// If id is already recorded its existing place is returned along with false.
func (f *FinishOrder) Append(id string) (place int, added bool) {
	if p, ok := f.seen[id]; ok {
		return p, false
	}
	place = len(f.ids) + 1
	f.ids = append(f.ids, id)
	f.seen[id] = place
	return place, true
}

// Place returns the place of id or 0 if id has not finished yet
func (f *FinishOrder) Place(id string) int {
	return f.seen[id]
}

func (f *FinishOrder) Len() int {
	return len(f.ids)
}

// IDs returns a copy of the recorded order
func (f *FinishOrder) IDs() []string {
	ret := make([]string, len(f.ids))
	copy(ret, f.ids)
	return ret
}

func (f *FinishOrder) Reset() {
	f.ids = f.ids[:0]
	f.seen = map[string]int{}
}
