// Package locate resolves device coordinates through a permission-gated
// position collaborator, with a manual map-tap override path.
package locate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sornchai/sitetrack/internal/apperr"
	"github.com/sornchai/sitetrack/internal/models"
)

// Position is a raw fix reported by the device.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	Altitude  *float64
	Heading   *float64
	Speed     *float64
	Timestamp time.Time
}

// Device is the on-device permission and GPS collaborator. Both calls
// suspend until the OS responds.
type Device interface {
	// RequestPermission asks for location access and reports the grant.
	RequestPermission(ctx context.Context) (bool, error)
	// CurrentPosition samples the current fix. Only called after a grant.
	CurrentPosition(ctx context.Context) (Position, error)
}

// State tracks where a resolution attempt stands.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateGranted
	StateDenied
	StateError
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	case StateError:
		return "error"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resolver obtains location samples for new installation records.
// A failed or abandoned attempt leaves it unresolved; it never blocks
// record creation, which simply omits the location.
type Resolver struct {
	dev Device

	mu     sync.Mutex
	state  State
	sample *models.LocationSample
	now    func() time.Time
}

// NewResolver creates a resolver over the given device collaborator.
func NewResolver(dev Device) *Resolver {
	return &Resolver{dev: dev, state: StateIdle, now: time.Now}
}

// State returns the current resolution state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Unresolved reports that no sample has ever been resolved. Record
// creation must not block on this; the location is simply omitted.
func (r *Resolver) Unresolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sample == nil
}

// Sample returns the last resolved sample, if any.
func (r *Resolver) Sample() (models.LocationSample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sample == nil {
		return models.LocationSample{}, false
	}
	return *r.sample, true
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// RequestCurrent asks for permission and then samples the current
// position. Denial short-circuits without a GPS read. The attempt is
// terminal either way; a retry needs an explicit re-invocation.
func (r *Resolver) RequestCurrent(ctx context.Context) (models.LocationSample, error) {
	r.setState(StateRequesting)

	granted, err := r.dev.RequestPermission(ctx)
	if err != nil {
		r.setState(StateError)
		return models.LocationSample{}, fmt.Errorf("%w: permission request: %w", apperr.ErrPositionUnavailable, err)
	}
	if !granted {
		r.mu.Lock()
		r.state = StateDenied
		r.mu.Unlock()
		return models.LocationSample{}, apperr.ErrPermissionDenied
	}
	r.setState(StateGranted)

	pos, err := r.dev.CurrentPosition(ctx)
	if err != nil {
		r.setState(StateError)
		return models.LocationSample{}, fmt.Errorf("%w: %w", apperr.ErrPositionUnavailable, err)
	}

	sample := models.LocationSample{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Accuracy:  pos.Accuracy,
		Timestamp: pos.Timestamp,
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = r.now()
	}

	r.mu.Lock()
	r.state = StateResolved
	r.sample = &sample
	r.mu.Unlock()
	return sample, nil
}

// FromManualPoint builds a sample from a user-chosen point, e.g. a map
// tap. It never fails and does not range-check the coordinates; manual
// selection always overrides whatever was resolved automatically.
func (r *Resolver) FromManualPoint(lat, lng float64) models.LocationSample {
	sample := models.LocationSample{
		Latitude:  lat,
		Longitude: lng,
		Timestamp: r.now(),
	}
	r.mu.Lock()
	r.state = StateResolved
	r.sample = &sample
	r.mu.Unlock()
	return sample
}
