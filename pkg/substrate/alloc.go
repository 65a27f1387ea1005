package substrate

// AllocCounter issues strictly increasing allocation ids. It is a pure
// function of the number of prior allocations, so two record runs of the
// same scenario assign identical ids to identical allocation sites.
type AllocCounter struct {
	next int64
}

// NewAllocCounter starts id issuance at 1 (0 is reserved as "no allocation").
func NewAllocCounter() *AllocCounter {
	return &AllocCounter{next: 1}
}

// Next returns the next allocation id and advances the counter.
func (a *AllocCounter) Next() int64 {
	id := a.next
	a.next++
	return id
}

// Peek returns the id that Next would return, without consuming it.
func (a *AllocCounter) Peek() int64 {
	return a.next
}
