package clip

import (
	"fmt"
	"math"
)

const defaultFrameRate = 30

// Timecode renders sec as HH:MM:SS:FF at fps frames per second. Start
// points round down to a frame and end points round up so a clip never
// loses footage.
func Timecode(sec float64, fps int, roundUp bool) string {
	if fps <= 0 {
		fps = defaultFrameRate
	}
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	frames := sec * float64(fps)
	var total int64
	if roundUp {
		total = int64(math.Ceil(frames - 1e-9))
	} else {
		total = int64(math.Floor(frames + 1e-9))
	}
	f := int64(fps)
	ff := total % f
	secs := total / f
	return fmt.Sprintf("%02d:%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60, ff)
}
