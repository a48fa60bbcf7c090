package line

// DefaultMaxCacheable is the largest buffer capacity, in points, kept for reuse.
const DefaultMaxCacheable = 10_000

// PoolStats is a snapshot of pool activity.
type PoolStats struct {
	Hits   uint64
	Misses uint64
	Cached int // buffers currently on free lists
}

// Pool recycles vertex buffers keyed by point capacity. Each buffer holds
// x,y,z per point. A buffer handed out is off the free list until released.
// Not safe for concurrent use; the frame loop owns it.
type Pool struct {
	free         map[int][][]float32
	maxCacheable int
	hits, misses uint64
}

func NewPool(maxCacheable int) *Pool {
	if maxCacheable <= 0 {
		maxCacheable = DefaultMaxCacheable
	}
	return &Pool{
		free:         make(map[int][][]float32),
		maxCacheable: maxCacheable,
	}
}

// Get returns a zeroed buffer with room for size points.
func (p *Pool) Get(size int) []float32 {
	if size <= 0 {
		return []float32{}
	}
	list := p.free[size]
	if n := len(list); n > 0 {
		buf := list[n-1]
		list[n-1] = nil
		p.free[size] = list[:n-1]
		p.hits++
		return buf
	}
	p.misses++
	return make([]float32, size*3)
}

// Release hands a buffer back. It is zero-filled so a later owner never draws
// stale geometry. Buffers above the cacheable capacity are dropped.
func (p *Pool) Release(buf []float32, capacity int) {
	if capacity <= 0 || capacity > p.maxCacheable || len(buf) < capacity*3 {
		return
	}
	buf = buf[:capacity*3]
	for _, cached := range p.free[capacity] {
		if &cached[0] == &buf[0] {
			return // already pooled
		}
	}
	clear(buf)
	p.free[capacity] = append(p.free[capacity], buf)
}

// Clear drops every cached buffer.
func (p *Pool) Clear() {
	p.free = make(map[int][][]float32)
}

func (p *Pool) Stats() PoolStats {
	cached := 0
	for _, list := range p.free {
		cached += len(list)
	}
	return PoolStats{Hits: p.hits, Misses: p.misses, Cached: cached}
}
