package hqp

// parseGetInfo parses a <GetInfo ...> response document.
func parseGetInfo(d doc) GetInfo {
	return GetInfo{
		Name:     d.attrString("name", ""),
		Product:  d.attrString("product", ""),
		Version:  d.attrString("version", ""),
		Platform: d.attrString("platform", ""),
		Engine:   d.attrString("engine", ""),
	}
}

// parseState parses a <State ...> response document.
func parseState(d doc) DSPState {
	return DSPState{
		PlaybackState: PlaybackState(d.attrInt("state", 0)),
		ModeIdx:       d.attrInt("mode_idx", 0),
		FilterIdx:     d.attrInt("filter_idx", 0),
		Filter1xIdx:   d.attrIntPtr("filter1x_idx"),
		FilterNxIdx:   d.attrIntPtr("filterNx_idx"),
		ShaperIdx:     d.attrInt("shaper_idx", 0),
		RateIdx:       d.attrInt("rate_idx", 0),
		VolumeDB:      d.attrFloat("volume_db", 0),
		ActiveModeIdx: d.attrInt("active_mode_idx", 0),
		ActiveRateHz:  d.attrInt("active_rate", 0),
		Invert:        d.attrBool("invert", false),
		Convolution:   d.attrBool("convolution", false),
		Random:        d.attrBool("random", false),
		Adaptive:      d.attrBool("adaptive", false),
		Filter20k:     d.attrBool("filter_20k", false),
		Repeat:        RepeatMode(d.attrInt("repeat", 0)),
		MatrixProfile: d.attrString("matrix_profile", ""),
	}
}

// parseStatus parses a <Status ...> response document.
func parseStatus(d doc) DSPStatus {
	return DSPStatus{
		PositionSeconds: d.attrFloat("position", 0),
		LengthSeconds:   d.attrFloat("length", 0),
		ActiveFilter:    d.attrString("active_filter", ""),
		ActiveShaper:    d.attrString("active_shaper", ""),
		ActiveMode:      d.attrString("active_mode", ""),
		OutputBits:      d.attrInt("bits", 0),
		OutputChannels:  d.attrInt("channels", 0),
		OutputRateHz:    d.attrInt("rate", 0),
	}
}

// parseVolumeRange parses a <VolumeRange ...> response document.
func parseVolumeRange(d doc) VolumeRange {
	return VolumeRange{
		MinDB:    d.attrFloat("min", 0),
		MaxDB:    d.attrFloat("max", 0),
		Step:     d.attrFloat("step", 0.5),
		Enabled:  d.attrBool("enabled", true),
		Adaptive: d.attrBool("adaptive", false),
	}
}

// parseListItem parses one *Item element (e.g. ModesItem, FiltersItem).
func parseListItem(d doc) ListItem {
	return ListItem{
		Index: d.attrInt("index", 0),
		Value: d.attrInt("value", 0),
		Name:  d.attrString("name", ""),
	}
}

// parseRateItem parses one RatesItem element.
func parseRateItem(d doc) RateItem {
	return RateItem{
		Index:  d.attrInt("index", 0),
		RateHz: d.attrInt("rate", 0),
	}
}
