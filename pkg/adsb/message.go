package adsb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedMessage is returned for frames that are not valid position reports.
var ErrMalformedMessage = errors.New("malformed position message")

// HostMessage is the JSON object pushed on the host stream every tick.
// Heading and speed are optional on decode; the store derives them when absent.
type HostMessage struct {
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Altitude  *float64   `json:"altitude,omitempty"`
	Speed     *float64   `json:"speed,omitempty"`
	Heading   *float64   `json:"heading,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// TrafficMessage is one element of the JSON array pushed on the traffic stream.
type TrafficMessage struct {
	ID        string   `json:"id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// ResetResponse is the body returned by POST /reset.
type ResetResponse struct {
	Message string `json:"message"`
}

// NewHostMessage builds the wire form of the host aircraft.
func NewHostMessage(a Aircraft) HostMessage {
	ts := a.LastSeen.UTC()
	return HostMessage{
		Latitude:  float64Ptr(a.Latitude),
		Longitude: float64Ptr(a.Longitude),
		Altitude:  float64Ptr(a.Altitude),
		Speed:     float64Ptr(a.Speed),
		Heading:   float64Ptr(a.Heading),
		Timestamp: &ts,
	}
}

// NewTrafficMessages builds the wire form of a traffic snapshot.
func NewTrafficMessages(fleet []Aircraft) []TrafficMessage {
	msgs := make([]TrafficMessage, 0, len(fleet))
	for _, a := range fleet {
		msgs = append(msgs, TrafficMessage{
			ID:        a.ID,
			Latitude:  float64Ptr(a.Latitude),
			Longitude: float64Ptr(a.Longitude),
			Altitude:  float64Ptr(a.Altitude),
			Speed:     float64Ptr(a.Speed),
			Heading:   float64Ptr(a.Heading),
		})
	}
	return msgs
}

// DecodeHostMessage parses and validates one host frame.
func DecodeHostMessage(data []byte) (HostMessage, error) {
	var msg HostMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return HostMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return HostMessage{}, err
	}
	return msg, nil
}

// Validate checks that the position is present and every field is in range.
func (m HostMessage) Validate() error {
	if err := validatePosition(m.Latitude, m.Longitude); err != nil {
		return err
	}
	return validateOptional(m.Speed, m.Heading, m.Altitude)
}

// EntryError describes one rejected element of a traffic frame.
type EntryError struct {
	Index  int
	ID     string
	Reason string
}

func (e *EntryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%v: entry %d: %s", ErrMalformedMessage, e.Index, e.Reason)
	}
	return fmt.Sprintf("%v: entry %d (%s): %s", ErrMalformedMessage, e.Index, e.ID, e.Reason)
}

func (e *EntryError) Unwrap() error {
	return ErrMalformedMessage
}

// DecodeTrafficMessages parses one traffic frame.
// Individual entries that fail validation are returned in rejected so the
// caller can log them; the rest of the snapshot is still usable.
func DecodeTrafficMessages(data []byte) (valid []TrafficMessage, rejected []*EntryError, err error) {
	var msgs []TrafficMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	valid = make([]TrafficMessage, 0, len(msgs))
	for i, m := range msgs {
		reason := ""
		switch {
		case m.ID == "":
			reason = "no id"
		case m.ID == HostID:
			reason = fmt.Sprintf("reserved id %q", HostID)
		default:
			if err := m.Validate(); err != nil {
				reason = err.Error()
			}
		}
		if reason != "" {
			rejected = append(rejected, &EntryError{Index: i, ID: m.ID, Reason: reason})
			continue
		}
		valid = append(valid, m)
	}
	return valid, rejected, nil
}

// Validate checks the entry's position and optional fields.
func (m TrafficMessage) Validate() error {
	if err := validatePosition(m.Latitude, m.Longitude); err != nil {
		return err
	}
	return validateOptional(m.Speed, m.Heading, m.Altitude)
}

// Aircraft converts a traffic entry. Missing optional fields are zero; an
// entry without a valid position is rejected.
func (m TrafficMessage) Aircraft(now time.Time) (Aircraft, error) {
	if err := m.Validate(); err != nil {
		return Aircraft{}, err
	}
	return Aircraft{
		ID:        m.ID,
		Latitude:  *m.Latitude,
		Longitude: *m.Longitude,
		Altitude:  valueOr(m.Altitude, 0),
		Speed:     valueOr(m.Speed, 0),
		Heading:   valueOr(m.Heading, 0),
		LastSeen:  now,
	}, nil
}

func validatePosition(lat, lon *float64) error {
	if lat == nil || lon == nil {
		return fmt.Errorf("%w: missing latitude or longitude", ErrMalformedMessage)
	}
	if !finite(*lat) || !finite(*lon) || math.Abs(*lat) > 90 || math.Abs(*lon) > 180 {
		return fmt.Errorf("%w: position out of range (%v, %v)", ErrMalformedMessage, *lat, *lon)
	}
	return nil
}

func validateOptional(speed, heading, altitude *float64) error {
	if speed != nil && (!finite(*speed) || *speed < 0) {
		return fmt.Errorf("%w: invalid speed %v", ErrMalformedMessage, *speed)
	}
	if heading != nil && !finite(*heading) {
		return fmt.Errorf("%w: invalid heading %v", ErrMalformedMessage, *heading)
	}
	if altitude != nil && !finite(*altitude) {
		return fmt.Errorf("%w: invalid altitude %v", ErrMalformedMessage, *altitude)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func float64Ptr(v float64) *float64 {
	return &v
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
