package hqp

import (
	"context"
	"fmt"
	"strconv"
)

// GetPipeline reads State + Status and resolves every index to its
// display name (or Hz, for rate) against the client's cached
// enumerations, returning the name/Hz-only view external callers see.
// Active mode and active rate come from State (authoritative); the
// display filter/shaper strings come from Status (informational only).
func (c *Client) GetPipeline(ctx context.Context) (PipelineView, error) {
	state, err := c.State(ctx)
	if err != nil {
		return PipelineView{}, err
	}
	status, err := c.Status(ctx, false)
	if err != nil {
		return PipelineView{}, err
	}

	modes, filters, shapers, rates, vr := c.cachedLists()

	filter1xIdx := state.FilterIdx
	if state.Filter1xIdx != nil {
		filter1xIdx = *state.Filter1xIdx
	}
	filterNxIdx := state.FilterIdx
	if state.FilterNxIdx != nil {
		filterNxIdx = *state.FilterNxIdx
	}

	view := PipelineView{
		Mode:         nameForIndex(modes, state.ModeIdx),
		Filter1x:     nameForIndex(filters, filter1xIdx),
		FilterNx:     nameForIndex(filters, filterNxIdx),
		Shaper:       nameForIndex(shapers, state.ShaperIdx),
		SampleRateHz: rateHzForIndex(rates, state.RateIdx),
		VolumeDB:     state.VolumeDB,
		VolumeRange:  vr,
		ActiveMode:   nameForIndex(modes, state.ActiveModeIdx),
		ActiveRateHz: state.ActiveRateHz,
		ActiveFilter: status.ActiveFilter,
		ActiveShaper: status.ActiveShaper,
	}
	return view, nil
}

// SetPipeline resolves a domain name (or, for samplerate/volume_db, a
// numeric string) against the client's cached enumerations and issues
// the corresponding Set* command by wire index — never by the list
// item's Value field (§4.5.3).
func (c *Client) SetPipeline(ctx context.Context, setting Setting, value string) error {
	modes, filters, shapers, rates, _ := c.cachedLists()

	switch setting {
	case SettingMode:
		idx, err := indexForName(modes, value)
		if err != nil {
			return err
		}
		return c.SetMode(ctx, idx)

	case SettingFilter1x, SettingFilterNx:
		idx, err := indexForName(filters, value)
		if err != nil {
			return err
		}
		return c.SetFilter(ctx, idx)

	case SettingShaper:
		idx, err := indexForName(shapers, value)
		if err != nil {
			return err
		}
		return c.SetShaping(ctx, idx)

	case SettingSampleRate:
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("hqp: samplerate %q is not an integer Hz value: %w", value, ErrUnknownListItem)
		}
		idx, err := indexForRateHz(rates, hz)
		if err != nil {
			return err
		}
		return c.SetRate(ctx, idx)

	case SettingVolumeDB:
		db, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("hqp: volume_db %q is not a number: %w", value, ErrUnknownListItem)
		}
		return c.Volume(ctx, db)

	default:
		return fmt.Errorf("hqp: unknown pipeline setting %q: %w", setting, ErrUnknownListItem)
	}
}

func rateHzForIndex(items []RateItem, index int) int {
	for _, it := range items {
		if it.Index == index {
			return it.RateHz
		}
	}
	return 0
}
