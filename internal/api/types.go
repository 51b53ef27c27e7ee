package api

import "github.com/samcharles93/cubetile/internal/tiling"

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// PlanRequest asks for a tiling of Problem on the named target.
type PlanRequest struct {
	Target  string         `json:"target"`
	Problem tiling.Problem `json:"problem"`
}

// TilingRecord is a stored planning result.
type TilingRecord struct {
	ID         string            `json:"id"`
	Object     string            `json:"object"`
	CreatedAt  int64             `json:"created_at"`
	Target     string            `json:"target"`
	Problem    tiling.Problem    `json:"problem"`
	Descriptor tiling.Descriptor `json:"descriptor"`
	Footprints tiling.Footprints `json:"footprints"`
	// Cached is set when the record was returned for a repeated request.
	Cached bool `json:"cached"`
}

type DeleteTilingResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type TargetList struct {
	Object string          `json:"object"`
	Data   []tiling.Target `json:"data"`
}
