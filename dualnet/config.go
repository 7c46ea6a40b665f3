package dual

// Config configures the neural network
type Config struct {
	K            int // number of filters
	SharedLayers int // number of shared residual blocks
	FC           int // fc layer width

	Width, Height int // board size
	Features      int // feature counts

	ActionSpace int
}

// DefaultConf returns a network sized for an m×n board. Two feature planes are expected: own stones, then the opponent's.
func DefaultConf(m, n, actionSpace int) Config {
	k := round((m * n) / 3)
	return Config{
		K:            k,
		SharedLayers: m,
		FC:           2 * k,

		Width:       n,
		Height:      m,
		Features:    2,
		ActionSpace: actionSpace,
	}
}

func (conf Config) IsValid() bool {
	return conf.K >= 1 &&
		conf.ActionSpace >= conf.Width*conf.Height &&
		conf.SharedLayers >= 0 &&
		conf.FC > 1 &&
		conf.Width >= 1 && conf.Height >= 1 &&
		conf.Features > 0
}

// InputSize is the length of the input that Infer expects.
func (conf Config) InputSize() int { return conf.Features * conf.Width * conf.Height }

func round(a int) int {
	n := a - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++

	lt := n / 2
	if (a - lt) < (n - a) {
		return lt
	}
	return n
}
