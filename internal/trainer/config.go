package trainer

// Defaults used when Config fields are left zero.
const (
	DefaultIterations  = 10000
	DefaultRateDecay   = 0.1
	DefaultMaxRestarts = 3
)

// DefaultRates is the learning-rate schedule used when Config.Rates is empty.
var DefaultRates = []float64{0.001, 0.0001}

// Config holds the training schedule.
type Config struct {
	Iterations  int       // Steps per scheduled rate (default: 10000)
	Rates       []float64 // Learning rates, applied in order (default: [0.001, 0.0001])
	RateDecay   float64   // Factor applied to every rate on restart (default: 0.1, range: (0, 1))
	MaxRestarts int       // Restarts after divergence (default: 3, negative: none)
	LogEvery    int       // Steps per progress window (default: Iterations)
	Tolerance   float64   // Stop once a window's mean loss falls below it (default: 0, never)
}

// withDefaults returns c with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if len(c.Rates) == 0 {
		c.Rates = DefaultRates
	}
	c.Rates = append([]float64(nil), c.Rates...)
	if c.RateDecay <= 0 || c.RateDecay >= 1 {
		c.RateDecay = DefaultRateDecay
	}
	if c.MaxRestarts == 0 {
		c.MaxRestarts = DefaultMaxRestarts
	}
	if c.MaxRestarts < 0 {
		c.MaxRestarts = 0
	}
	if c.LogEvery <= 0 {
		c.LogEvery = c.Iterations
	}
	return c
}
