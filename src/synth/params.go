package synth

import (
	"encoding/json"
	"log"
)

// ----- Params ----- //

type params struct {
	oscParams    []*oscParams
	filterParams *filterParams
	adsrParams   *adsrParams
	echoParams   *echoParams
}

func newParams(sampleRate float64) *params {
	return &params{
		oscParams:    []*oscParams{newOscParams(sampleRate), newOscParams(sampleRate), newOscParams(sampleRate)},
		filterParams: newFilterParams(sampleRate),
		adsrParams:   newAdsrParams(sampleRate),
		echoParams:   &echoParams{},
	}
}

type paramsJSON struct {
	Oscs   []json.RawMessage `json:"oscs"`
	Filter json.RawMessage   `json:"filter"`
	Adsr   json.RawMessage   `json:"adsr"`
	Echo   json.RawMessage   `json:"echo"`
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to params")
		return
	}
	if len(j.Oscs) == len(p.oscParams) {
		for i, j := range j.Oscs {
			p.oscParams[i].applyJSON(j)
		}
	} else {
		log.Println("failed to apply JSON to osc params")
	}
	p.filterParams.applyJSON(j.Filter)
	p.adsrParams.applyJSON(j.Adsr)
	p.echoParams.applyJSON(j.Echo)
}
func (p *params) toJSON() json.RawMessage {
	oscJsons := make([]json.RawMessage, len(p.oscParams))
	for i, oscParam := range p.oscParams {
		oscJsons[i] = oscParam.toJSON()
	}
	return toRawMessage(&paramsJSON{
		Oscs:   oscJsons,
		Filter: p.filterParams.toJSON(),
		Adsr:   p.adsrParams.toJSON(),
		Echo:   p.echoParams.toJSON(),
	})
}
