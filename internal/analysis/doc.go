// Package analysis provides post-processing for observable time series and
// atom snapshots.
//
//   - [Summarize]: mean, deviation, range and linear drift of a series
//   - [Autocorrelation]: normalized autocorrelation up to a lag
//   - [PowerSpectrum]: one-sided spectrum of the fluctuations around the mean
//   - [SpeedHistogram]: distribution of atom speeds in a frame
//
// A stored run is analyzed one column at a time:
//
//	temps, _ := storage.Column(samples, "temperature")
//	s := analysis.Summarize(temps, frameTime)
//	if math.Abs(s.Slope) < 1e-3 {
//	    // temperature has settled
//	}
package analysis
