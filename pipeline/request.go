package pipeline

import "text2phenotype.com/fsl/types"

type RequestScreenParams struct {
	Name   string              `json:"name"`
	Params types.RequestParams `json:"params"`
}

type Request struct {
	Text string `json:"text"`
	Tid  string `json:"tid"`
}
