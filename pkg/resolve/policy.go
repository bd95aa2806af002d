package resolve

// Mode selects which acceptability policy is in force. The policy evolved
// over the service's lifetime, so both remain available behind configuration.
type Mode string

const (
	// ModeItag accepts only streams whose format tag is on the allow-list,
	// scanned in tiers (primary tags before fallback tags).
	ModeItag Mode = "itag"
	// ModeBitrate is the legacy policy: accept progressive streams at or
	// below a numeric bitrate ceiling.
	ModeBitrate Mode = "bitrate"
)

// Policy decides whether a descriptor is acceptable and, among acceptable
// ones, which is best. It is pure and shared read-only across requests.
type Policy struct {
	Mode           Mode
	PrimaryItags   []int
	FallbackItags  []int
	BitrateCeiling int // bits per second
}

// Tiers returns the itag allow-list per scanning pass. The chain exhausts a
// tier across every provider before moving to the next tier. Bitrate mode has
// a single unrestricted pass (nil allow-list).
func (p Policy) Tiers() [][]int {
	if p.Mode == ModeBitrate {
		return [][]int{nil}
	}
	tiers := make([][]int, 0, 2)
	if len(p.PrimaryItags) > 0 {
		tiers = append(tiers, p.PrimaryItags)
	}
	if len(p.FallbackItags) > 0 {
		tiers = append(tiers, p.FallbackItags)
	}
	if len(tiers) == 0 {
		tiers = append(tiers, nil)
	}
	return tiers
}

// SelectBest returns the best acceptable descriptor for the given tier, or
// nil when none qualifies. A nil return is the normal no-match outcome that
// drives chain fallthrough, not an error.
//
// Ranking: highest bitrate not exceeding the ceiling wins; when nothing fits
// under the ceiling the lowest-bitrate candidate is accepted as a degraded
// fallback. An above-ceiling descriptor is never chosen over a within-ceiling
// one.
func (p Policy) SelectBest(descs []Descriptor, allowedItags []int) *Descriptor {
	acceptable := p.filter(descs, allowedItags)
	if len(acceptable) == 0 {
		return nil
	}

	var withinCeiling, above []Descriptor
	for _, d := range acceptable {
		if p.BitrateCeiling > 0 && d.Bitrate > p.BitrateCeiling {
			above = append(above, d)
			continue
		}
		withinCeiling = append(withinCeiling, d)
	}

	if len(withinCeiling) > 0 {
		best := withinCeiling[0]
		for _, d := range withinCeiling[1:] {
			if d.Bitrate > best.Bitrate {
				best = d
			}
		}
		return &best
	}

	best := above[0]
	for _, d := range above[1:] {
		if d.Bitrate < best.Bitrate {
			best = d
		}
	}
	return &best
}

func (p Policy) filter(descs []Descriptor, allowedItags []int) []Descriptor {
	var out []Descriptor

	if allowedItags != nil {
		for _, d := range descs {
			if d.URL == "" || d.Transport != TransportProgressive {
				continue
			}
			if containsInt(allowedItags, d.Itag) {
				out = append(out, d)
			}
		}
		return out
	}

	// Bitrate policy: an unspecified bitrate disqualifies, unless no
	// candidate carries a bitrate at all, in which case all progressive
	// candidates rank equally.
	anyBitrate := false
	for _, d := range descs {
		if d.URL != "" && d.Transport == TransportProgressive && d.Bitrate > 0 {
			anyBitrate = true
			break
		}
	}

	for _, d := range descs {
		if d.URL == "" || d.Transport != TransportProgressive {
			continue
		}
		if anyBitrate {
			if d.Bitrate > 0 && d.Bitrate <= p.BitrateCeiling {
				out = append(out, d)
			}
			continue
		}
		out = append(out, d)
	}

	// Degraded fallback for bitrate mode: everything is above the ceiling.
	if anyBitrate && len(out) == 0 {
		for _, d := range descs {
			if d.URL != "" && d.Transport == TransportProgressive && d.Bitrate > 0 {
				out = append(out, d)
			}
		}
	}

	return out
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
