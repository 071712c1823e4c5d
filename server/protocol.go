package server

import (
	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/cortex"
	"github.com/becomeliminal/cortica-go/profile"
)

// Operations understood on the socket.
const (
	OpRemember  = "remember"
	OpQuery     = "query"
	OpContext   = "context"
	OpReinforce = "reinforce"
	OpRemove    = "remove"
	OpEvict     = "evict"
	OpProfile   = "profile"
)

// KindInternal marks failures that are not caller errors (embedder, index).
const KindInternal = "internal"

// Request is one client frame.
type Request struct {
	ID       string         `json:"id"`
	Op       string         `json:"op"`
	Text     string         `json:"text,omitempty"`
	K        int            `json:"k,omitempty"`
	Budget   int            `json:"budget,omitempty"`
	MemoryID uint64         `json:"memory_id,omitempty"`
	Strength float64        `json:"min_strength,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Response answers exactly one Request, echoing its ID.
type Response struct {
	ID       string            `json:"id"`
	OK       bool              `json:"ok"`
	Error    *ErrorBody        `json:"error,omitempty"`
	MemoryID uint64            `json:"memory_id,omitempty"`
	Results  []cortex.Recall   `json:"results,omitempty"`
	Prompt   string            `json:"prompt,omitempty"`
	Removed  int               `json:"removed,omitempty"`
	Profile  *profile.Snapshot `json:"profile,omitempty"`
	Summary  string            `json:"summary,omitempty"`
}

type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errorResponse(id string, err error) *Response {
	kind := core.KindOf(err)
	if kind == "" {
		kind = KindInternal
	}
	return &Response{ID: id, Error: &ErrorBody{Kind: kind, Message: err.Error()}}
}
