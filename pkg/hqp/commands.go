package hqp

import (
	"context"
	"fmt"
	"strconv"
)

// GetInfo issues <GetInfo/> and returns the instance's identity.
func (c *Client) GetInfo(ctx context.Context) (GetInfo, error) {
	d, err := c.roundTrip(ctx, "GetInfo", nil)
	if err != nil {
		return GetInfo{}, err
	}
	return parseGetInfo(d), nil
}

// State issues <State/> and returns the full current setting snapshot.
func (c *Client) State(ctx context.Context) (DSPState, error) {
	d, err := c.roundTrip(ctx, "State", nil)
	if err != nil {
		return DSPState{}, err
	}
	return parseState(d), nil
}

// Status issues <Status subscribe="0|1"/> and returns playback
// position and stringified active names.
func (c *Client) Status(ctx context.Context, subscribe bool) (DSPStatus, error) {
	v := "0"
	if subscribe {
		v = "1"
	}
	d, err := c.roundTrip(ctx, "Status", map[string]string{"subscribe": v})
	if err != nil {
		return DSPStatus{}, err
	}
	return parseStatus(d), nil
}

// VolumeRange issues <VolumeRange/> and returns (and caches) the
// instance's volume scale.
func (c *Client) VolumeRange(ctx context.Context) (VolumeRange, error) {
	d, err := c.roundTrip(ctx, "VolumeRange", nil)
	if err != nil {
		return VolumeRange{}, err
	}
	vr := parseVolumeRange(d)
	c.cacheMu.Lock()
	c.volumeRange = vr
	c.cacheMu.Unlock()
	return vr, nil
}

// GetModes issues <GetModes/> and returns (and caches) the enumerated
// output modes.
func (c *Client) GetModes(ctx context.Context) ([]ListItem, error) {
	docs, err := c.listRoundTrip(ctx, "GetModes", "Modes", "ModesItem")
	if err != nil {
		return nil, err
	}
	items := toListItems(docs)
	c.cacheMu.Lock()
	c.modes = items
	c.cacheMu.Unlock()
	return items, nil
}

// GetFilters issues <GetFilters/> and returns (and caches) the
// enumerated filters.
func (c *Client) GetFilters(ctx context.Context) ([]ListItem, error) {
	docs, err := c.listRoundTrip(ctx, "GetFilters", "Filters", "FiltersItem")
	if err != nil {
		return nil, err
	}
	items := toListItems(docs)
	c.cacheMu.Lock()
	c.filters = items
	c.cacheMu.Unlock()
	return items, nil
}

// GetShapers issues <GetShapers/> and returns (and caches) the
// enumerated noise shapers.
func (c *Client) GetShapers(ctx context.Context) ([]ListItem, error) {
	docs, err := c.listRoundTrip(ctx, "GetShapers", "Shapers", "ShapersItem")
	if err != nil {
		return nil, err
	}
	items := toListItems(docs)
	c.cacheMu.Lock()
	c.shapers = items
	c.cacheMu.Unlock()
	return items, nil
}

// GetRates issues <GetRates/> and returns (and caches) the enumerated
// sample rates.
func (c *Client) GetRates(ctx context.Context) ([]RateItem, error) {
	docs, err := c.listRoundTrip(ctx, "GetRates", "Rates", "RatesItem")
	if err != nil {
		return nil, err
	}
	items := make([]RateItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, parseRateItem(d))
	}
	c.cacheMu.Lock()
	c.rates = items
	c.cacheMu.Unlock()
	return items, nil
}

func toListItems(docs []doc) []ListItem {
	items := make([]ListItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, parseListItem(d))
	}
	return items
}

// refreshCache repopulates every cached enumeration plus the volume
// range, pipelined FIFO behind the single request lock. Called after
// a successful connect and after every reconnect, per §4.5.1.
func (c *Client) refreshCache(ctx context.Context) error {
	if _, err := c.GetModes(ctx); err != nil {
		return err
	}
	if _, err := c.GetFilters(ctx); err != nil {
		return err
	}
	if _, err := c.GetShapers(ctx); err != nil {
		return err
	}
	if _, err := c.GetRates(ctx); err != nil {
		return err
	}
	if _, err := c.VolumeRange(ctx); err != nil {
		return err
	}
	return nil
}

// setByIndex issues a Set-style command whose value attribute carries
// an index (§4.5.3: the same index State returns, never the list
// item's Value field).
func (c *Client) setByIndex(ctx context.Context, command string, index int) error {
	_, err := c.roundTrip(ctx, command, map[string]string{"value": strconv.Itoa(index)})
	return err
}

// SetMode sets the output mode by wire index.
func (c *Client) SetMode(ctx context.Context, index int) error {
	return c.setByIndex(ctx, "SetMode", index)
}

// SetFilter sets the filter by wire index.
func (c *Client) SetFilter(ctx context.Context, index int) error {
	return c.setByIndex(ctx, "SetFilter", index)
}

// SetShaping sets the shaper by wire index.
func (c *Client) SetShaping(ctx context.Context, index int) error {
	return c.setByIndex(ctx, "SetShaping", index)
}

// SetRate sets the sample rate by wire index.
func (c *Client) SetRate(ctx context.Context, index int) error {
	return c.setByIndex(ctx, "SetRate", index)
}

// Volume sets the absolute volume, in dB.
func (c *Client) Volume(ctx context.Context, db float64) error {
	_, err := c.roundTrip(ctx, "Volume", map[string]string{"value": strconv.FormatFloat(db, 'f', -1, 64)})
	return err
}

// VolumeUp/VolumeDown/VolumeMute are relative/toggle volume controls.
func (c *Client) VolumeUp(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "VolumeUp", nil)
	return err
}

func (c *Client) VolumeDown(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "VolumeDown", nil)
	return err
}

func (c *Client) VolumeMute(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "VolumeMute", nil)
	return err
}

// Play issues <Play/>. last, when hasLast is true, resumes a specific
// list position; omitted entirely otherwise (see DESIGN.md's Open
// Question decision: last=0 is not sent by default).
func (c *Client) Play(ctx context.Context, last int, hasLast bool) error {
	attrs := map[string]string{}
	if hasLast {
		attrs["last"] = strconv.Itoa(last)
	}
	_, err := c.roundTrip(ctx, "Play", attrs)
	return err
}

func (c *Client) Pause(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "Pause", nil)
	return err
}

func (c *Client) Stop(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "Stop", nil)
	return err
}

func (c *Client) Previous(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "Previous", nil)
	return err
}

func (c *Client) Next(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "Next", nil)
	return err
}

// Seek seeks to an absolute position, in seconds.
func (c *Client) Seek(ctx context.Context, positionSeconds float64) error {
	_, err := c.roundTrip(ctx, "Seek", map[string]string{
		"position": strconv.FormatFloat(positionSeconds, 'f', -1, 64),
	})
	return err
}

// MatrixListProfiles issues <MatrixListProfiles/>.
func (c *Client) MatrixListProfiles(ctx context.Context) ([]string, error) {
	docs, err := c.listRoundTrip(ctx, "MatrixListProfiles", "MatrixProfiles", "MatrixProfilesItem")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.attrString("name", ""))
	}
	return names, nil
}

// MatrixGetProfile issues <MatrixGetProfile/> and returns the active
// matrix profile name.
func (c *Client) MatrixGetProfile(ctx context.Context) (string, error) {
	d, err := c.roundTrip(ctx, "MatrixGetProfile", nil)
	if err != nil {
		return "", err
	}
	return d.attrString("name", ""), nil
}

// MatrixSetProfile issues <MatrixSetProfile value="name"/>.
func (c *Client) MatrixSetProfile(ctx context.Context, name string) error {
	_, err := c.roundTrip(ctx, "MatrixSetProfile", map[string]string{"value": name})
	return err
}

// cachedLists returns a snapshot of every cached enumeration.
func (c *Client) cachedLists() (modes, filters, shapers []ListItem, rates []RateItem, vr VolumeRange) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return c.modes, c.filters, c.shapers, c.rates, c.volumeRange
}

// indexForName resolves a display name to its wire index within a
// cached list, returning ErrUnknownListItem if absent.
func indexForName(items []ListItem, name string) (int, error) {
	for _, it := range items {
		if it.Name == name {
			return it.Index, nil
		}
	}
	return 0, fmt.Errorf("hqp: %q: %w", name, ErrUnknownListItem)
}

// indexForRateHz resolves a sample rate in Hz to its wire index.
func indexForRateHz(items []RateItem, hz int) (int, error) {
	for _, it := range items {
		if it.RateHz == hz {
			return it.Index, nil
		}
	}
	return 0, fmt.Errorf("hqp: %d Hz: %w", hz, ErrUnknownListItem)
}

// nameForIndex resolves a wire index to its display name within a
// cached list.
func nameForIndex(items []ListItem, index int) string {
	for _, it := range items {
		if it.Index == index {
			return it.Name
		}
	}
	return ""
}
