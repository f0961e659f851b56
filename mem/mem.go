// Package mem implements the paged allocator that backs thread stacks and
// any other dynamic memory in the system.
//
// The allocator manages a fixed bitmap over equal-sized pages of a statically
// reserved arena. Requests are made in bytes and rounded up to whole pages;
// callers must return both the base and the original byte length to Free.
package mem

// Strategy selects the direction a free-page search walks the bitmap.
type Strategy uint8

const (
	// TopDown finds the highest run of contiguous free pages. Stacks grow
	// down on the target class, so allocating them from the top of memory
	// keeps them away from heap data.
	TopDown Strategy = iota

	// BottomUp finds the lowest run of contiguous free pages.
	BottomUp
)

func (s Strategy) String() string {
	switch s {
	case TopDown:
		return "top-down"
	case BottomUp:
		return "bottom-up"
	default:
		return "unknown"
	}
}

// NoPage is the base returned when no suitable run of pages exists.
const NoPage = -1

// Allocator is a page-granular allocator over a fixed arena.
//
// All methods are unsynchronized; callers serialize access (the kernel calls
// the allocator from inside its atomic sections).
type Allocator struct {
	pageBytes int
	pageCount int
	arena     []byte
	bitmap    []uint8 // one bit per page, 1 = used
}

// New creates an allocator managing dynamicBytes of arena split into pages of
// pageBytes each. dynamicBytes must be a positive multiple of pageBytes.
func New(pageBytes, dynamicBytes int) *Allocator {
	if pageBytes <= 0 || dynamicBytes <= 0 || dynamicBytes%pageBytes != 0 {
		return nil
	}
	count := dynamicBytes / pageBytes
	return &Allocator{
		pageBytes: pageBytes,
		pageCount: count,
		arena:     make([]byte, dynamicBytes),
		bitmap:    make([]uint8, (count+7)/8),
	}
}

func (a *Allocator) pageAvailable(page int) bool {
	return a.bitmap[page>>3]&(1<<(page&7)) == 0
}

func (a *Allocator) markUsed(page int) {
	a.bitmap[page>>3] |= 1 << (page & 7)
}

func (a *Allocator) markFree(page int) {
	a.bitmap[page>>3] &^= 1 << (page & 7)
}

// pageForStep maps a search step onto a page number for the given strategy.
func (a *Allocator) pageForStep(step int, strat Strategy) int {
	if strat == TopDown {
		return a.pageCount - (step + 1)
	}
	return step
}

// findFreePages locates a run of contiguous free pages of the requested
// length using only the supplied search strategy. Returns the lowest page of
// the run, or NoPage. Note that even TopDown returns the run's lowest page so
// the region is always [base, base+size) in ascending order.
func (a *Allocator) findFreePages(pagesWanted int, strat Strategy) int {
	startPage := NoPage
	runLen := 0

	for step := 0; step < a.pageCount; step++ {
		page := a.pageForStep(step, strat)

		if !a.pageAvailable(page) {
			// run broken, start over
			startPage = NoPage
			runLen = 0
			continue
		}

		runLen++
		if startPage == NoPage {
			startPage = page
		}
		if runLen == pagesWanted {
			if page < startPage {
				startPage = page
			}
			return startPage
		}
	}

	return NoPage
}

// pagesFor rounds a byte count up to whole pages.
func (a *Allocator) pagesFor(bytes int) int {
	return (bytes + a.pageBytes - 1) / a.pageBytes
}

// Allocate finds free pages covering at least bytes and marks them used.
// Returns the region's base byte offset into the arena and its rounded size.
// On failure returns (NoPage, 0); the allocator performs no internal retries.
func (a *Allocator) Allocate(bytes int, strat Strategy) (base, size int) {
	if bytes <= 0 {
		return NoPage, 0
	}

	pages := a.pagesFor(bytes)
	start := a.findFreePages(pages, strat)
	if start == NoPage {
		return NoPage, 0
	}

	for p := start; p < start+pages; p++ {
		a.markUsed(p)
	}
	return start * a.pageBytes, pages * a.pageBytes
}

// Free releases the pages covering [base, base+bytes). The pair must be a
// prior Allocate return; anything else is undefined.
func (a *Allocator) Free(base, bytes int) {
	if base < 0 || bytes <= 0 {
		return
	}

	start := base / a.pageBytes
	for p := start; p < start+a.pagesFor(bytes) && p < a.pageCount; p++ {
		a.markFree(p)
	}
}

// Slice exposes the arena bytes backing a region returned by Allocate.
func (a *Allocator) Slice(base, size int) []byte {
	return a.arena[base : base+size]
}

// ArenaBytes returns the total size of the managed arena.
func (a *Allocator) ArenaBytes() int { return len(a.arena) }

// PageBytes returns the allocation granularity.
func (a *Allocator) PageBytes() int { return a.pageBytes }

// Pages returns the number of pages being managed.
func (a *Allocator) Pages() int { return a.pageCount }

// PagesFree returns the number of currently available pages.
func (a *Allocator) PagesFree() int {
	free := 0
	for p := 0; p < a.pageCount; p++ {
		if a.pageAvailable(p) {
			free++
		}
	}
	return free
}

// PagesUsed returns the number of currently allocated pages.
func (a *Allocator) PagesUsed() int {
	return a.pageCount - a.PagesFree()
}
