// Package indicator provides incremental statistics computed per candle
// during replay. Indicators consume close prices one at a time and report
// no value until their warm-up window has filled.
package indicator

// Indicator is the capability every indicator kind implements. Update feeds
// the next close price and returns the current value, or ok=false while the
// indicator is still warming up.
type Indicator interface {
	Update(value float64) (float64, bool)
}
