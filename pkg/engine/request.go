package engine

import (
	"fmt"

	"github.com/quirelab/quire/pkg/model"
)

// Mode selects between offset and cursor pagination.
type Mode string

const (
	ModeOffset Mode = "offset"
	ModeCursor Mode = "cursor"
)

// Direction is the scan direction of a cursor-mode request.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// PageRequest describes one page of results. Build it with OffsetRequest,
// ForwardRequest or BackwardRequest rather than by hand.
type PageRequest struct {
	Mode Mode

	// Page is the 1-based page number for offset mode. Values below 1
	// are treated as 1.
	Page int

	// PageSize is the requested window size. Zero means the engine's
	// default; out-of-range values clamp or reject per Options.
	PageSize int

	// Direction and Cursor drive cursor mode. An empty Cursor starts at
	// the beginning (forward) or at the final window (backward).
	Direction Direction
	Cursor    string

	// WithTotal requests the total filtered count, which is flagged
	// optional because it is the one piece that needs the full scan.
	WithTotal bool
}

// OffsetRequest builds an offset-mode request for the given page number.
func OffsetRequest(page, pageSize int) PageRequest {
	return PageRequest{Mode: ModeOffset, Page: page, PageSize: pageSize}
}

// ForwardRequest builds a cursor-mode request scanning forward from the
// position after the given token. An empty token starts at the beginning.
func ForwardRequest(cursorToken string, pageSize int) PageRequest {
	return PageRequest{Mode: ModeCursor, Direction: Forward, Cursor: cursorToken, PageSize: pageSize}
}

// BackwardRequest builds a cursor-mode request collecting the records
// immediately preceding the given token, in forward display order. An
// empty token yields the final window.
func BackwardRequest(cursorToken string, pageSize int) PageRequest {
	return PageRequest{Mode: ModeCursor, Direction: Backward, Cursor: cursorToken, PageSize: pageSize}
}

// WithTotalCount returns a copy of the request that also asks for the
// total filtered count.
func (r PageRequest) WithTotalCount() PageRequest {
	r.WithTotal = true
	return r
}

func (r PageRequest) validate() error {
	switch r.Mode {
	case ModeOffset:
		return nil
	case ModeCursor:
		switch r.Direction {
		case Forward, Backward:
			return nil
		}
		return fmt.Errorf("%w: cursor direction %q must be forward or backward", model.ErrValidation, r.Direction)
	}
	return fmt.Errorf("%w: page mode %q must be offset or cursor", model.ErrValidation, r.Mode)
}
