package roster

import (
	"math"
	"time"
)

const (
	DefaultSpeakerThresholdDB  = -40.0
	DefaultSpeakerResignWindow = 10 * time.Second

	silentLevelDB = -127.0
)

// VolumeToDB converts a linear volume sample in [0, 1] to dBFS.
func VolumeToDB(volume float64) float64 {
	if volume <= 0 {
		return silentLevelDB
	}
	if volume > 1 {
		volume = 1
	}
	return math.Max(20*math.Log10(volume), silentLevelDB)
}

// DBToVolume converts dBFS back to linear.
func DBToVolume(level float64) float64 {
	return math.Pow(10, level/20)
}

type speakerDetector struct {
	thresholdDB  float64
	resignWindow time.Duration
}

func newSpeakerDetector(thresholdDB float64, resignWindow time.Duration) speakerDetector {
	if thresholdDB == 0 {
		thresholdDB = DefaultSpeakerThresholdDB
	}
	if resignWindow <= 0 {
		resignWindow = DefaultSpeakerResignWindow
	}
	return speakerDetector{
		thresholdDB:  thresholdDB,
		resignWindow: resignWindow,
	}
}

func (d speakerDetector) isAudible(volume float64) bool {
	return VolumeToDB(volume) >= d.thresholdDB
}

func (d speakerDetector) hasResigned(lastSpoke time.Time, now time.Time) bool {
	return now.Sub(lastSpoke) > d.resignWindow
}
