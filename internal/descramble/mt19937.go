package descramble

// MT19937 as implemented by the DLsite Play image viewer: reference Knuth
// init_genrand seeding, standard twist and tempering. Only the raw 32-bit
// word stream is exposed; draw discipline lives in permutation.go.

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

type mtSource struct {
	state [mtN]uint32
	index int
}

func newMTSource(seed uint32) *mtSource {
	src := &mtSource{index: mtN}
	src.state[0] = seed
	for i := 1; i < mtN; i++ {
		prev := src.state[i-1]
		src.state[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	return src
}

func (m *mtSource) next() uint32 {
	if m.index >= mtN {
		m.twist()
	}
	y := m.state[m.index]
	m.index++
	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

func (m *mtSource) twist() {
	for i := 0; i < mtN; i++ {
		y := (m.state[i] & mtUpperMask) | (m.state[(i+1)%mtN] & mtLowerMask)
		next := m.state[(i+mtM)%mtN] ^ (y >> 1)
		if y&1 != 0 {
			next ^= mtMatrixA
		}
		m.state[i] = next
	}
	m.index = 0
}
