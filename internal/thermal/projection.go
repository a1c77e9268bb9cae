package thermal

import "time"

// ProjectTemperature models the worst-case current temperature of a part,
// based on its last reading and the maximum slew rate.
//
// This only matters when samples are dropped: if a reading was taken on this
// control cycle, sampled == now and the result is the reading itself.
func ProjectTemperature(value Celsius, sampled time.Time, now time.Time, slew float64) Celsius {
	elapsed := now.Sub(sampled)
	if elapsed < 0 {
		elapsed = 0
	}
	return value + Celsius(elapsed.Seconds()*slew)
}
