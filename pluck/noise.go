package pluck

const (
	noiseSeed       = 307 * 1319
	noiseMultiplier = 435898247
	noiseIncrement  = 382842987
	noiseScale      = float32(1.0 / 0x40000000)
)

// noise is the linear congruential generator used to seed the delay line.
// Output lies in [-1, 1).
type noise struct {
	val int32
}

func newNoise() noise {
	return noise{val: noiseSeed}
}

func (n *noise) next() float32 {
	v := float32((n.val&0x7fffffff)-0x40000000) * noiseScale
	n.val = n.val*noiseMultiplier + noiseIncrement
	return v
}
