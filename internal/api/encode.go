package api

import (
	"encoding/json"
	"strings"

	"dispatchsim/internal/simkernel"
)

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }

type stateChangeFrame struct {
	Kind      string  `json:"kind"`
	Truck     int     `json:"truck"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Time      float64 `json:"time"`
	NewRoute  int     `json:"newRoute"`
}

func encodeStateChange(sc simkernel.StateChange) []byte {
	frame := stateChangeFrame{
		Kind:     "state_change",
		Truck:    sc.Transition.Truck,
		From:     sc.Transition.From.String(),
		To:       sc.Transition.To.String(),
		Time:     sc.Transition.Time,
		NewRoute: sc.NewRoute,
	}
	b, _ := json.Marshal(frame)
	return b
}

type gaProgressFrame struct {
	Kind         string  `json:"kind"`
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"bestFitness"`
}

func encodeGAProgress(gen int, best float64) []byte {
	b, _ := json.Marshal(gaProgressFrame{Kind: "ga_progress", Generation: gen, BestFitness: best})
	return b
}
