package driver

import (
	"encoding/json"
	"fmt"

	"keel/internal/diag"
	"keel/internal/observ"
	"keel/internal/source"
)

// timingPayload is the JSON note of an OBS6001 diagnostic.
type timingPayload struct {
	Path    string               `json:"path"`
	Target  string               `json:"target"`
	Cached  bool                 `json:"cached"`
	Waves   int                  `json:"waves"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

func (p timingPayload) message() string {
	state := fmt.Sprintf("%d waves", p.Waves)
	if p.Cached {
		state = "cached"
	}
	return fmt.Sprintf("timings: %s for %s in %.2f ms (%s)", p.Path, p.Target, p.TotalMS, state)
}

// appendTimingDiagnostic adds the timings to bag even when its limit is
// already reached.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		Logger().Sugar().Debugf("timings payload: %v", err)
		return
	}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, payload.message()).
		WithNote(source.Span{}, string(data))
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
