// Package event resolves the base and head refs a CI event implies.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Event names with dedicated interpretations. Anything else falls back
// to locally supplied refs.
const (
	PullRequest      = "pull_request"
	Push             = "push"
	WorkflowDispatch = "workflow_dispatch"
	Schedule         = "schedule"
)

// ErrPayload reports an event payload that was required but could not
// be read or decoded. Always fatal; without the payload the diff base
// is unknowable.
var ErrPayload = errors.New("event: payload unavailable")

// Refs is the base/head pair an event resolves to. Empty strings mean
// absent. All marks events that must test every package regardless of
// what changed.
type Refs struct {
	Base string
	Head string
	All  bool
}

// payload mirrors the webhook fields the interpreter reads.
type payload struct {
	Before      string `json:"before"`
	PullRequest struct {
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
	} `json:"pull_request"`
	Inputs struct {
		Base string `json:"base"`
		Head string `json:"head"`
	} `json:"inputs"`
}

// Interpret maps a CI event onto the refs the run should diff against.
// Payload-backed events read payloadPath; other events take the locally
// supplied refs as-is.
func Interpret(name, payloadPath, localBase, localHead string) (Refs, error) {
	var refs Refs
	switch name {
	case PullRequest:
		p, err := readPayload(payloadPath)
		if err != nil {
			return Refs{}, err
		}
		refs = Refs{Base: clean(p.PullRequest.Base.Ref)}
	case Push:
		p, err := readPayload(payloadPath)
		if err != nil {
			return Refs{}, err
		}
		refs = Refs{Base: clean(p.Before)}
	case WorkflowDispatch:
		p, err := readPayload(payloadPath)
		if err != nil {
			return Refs{}, err
		}
		refs = Refs{Base: clean(p.Inputs.Base), Head: clean(p.Inputs.Head)}
	case Schedule:
		refs = Refs{All: true}
	default:
		refs = Refs{Base: clean(localBase), Head: clean(localHead)}
	}
	log.Debug().
		Str("event", name).
		Str("base", refs.Base).
		Str("head", refs.Head).
		Bool("all", refs.All).
		Msg("event: interpreted")
	return refs, nil
}

// Repo is the slice of git that head preparation needs.
type Repo interface {
	Head(ctx context.Context) (string, error)
	EnsureFetched(ctx context.Context, ref string) (string, error)
	Checkout(ctx context.Context, hash string) error
}

// PrepareHead moves the working tree to refs.Head when it names a
// commit other than the current HEAD. No-op when head is absent.
func PrepareHead(ctx context.Context, repo Repo, refs Refs) error {
	if refs.Head == "" {
		return nil
	}
	want, err := repo.EnsureFetched(ctx, refs.Head)
	if err != nil {
		return err
	}
	current, err := repo.Head(ctx)
	if err != nil {
		return err
	}
	if want == current {
		log.Debug().Str("head", refs.Head).Msg("event: already at requested head")
		return nil
	}
	return repo.Checkout(ctx, want)
}

func readPayload(path string) (payload, error) {
	var p payload
	if path == "" {
		return p, fmt.Errorf("%w: event requires a payload but none was given", ErrPayload)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: malformed json: %v", ErrPayload, err)
	}
	return p, nil
}

func clean(s string) string { return strings.TrimSpace(s) }
