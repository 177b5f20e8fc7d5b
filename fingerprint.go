package main

import "math/rand/v2"

// lowEntropyProbability is how often the optional architecture hints are
// included. Real devices don't send them on every navigation, so neither
// do we.
const lowEntropyProbability = 0.7

// headerPair is one ordered header entry. The forum's blocking heuristic is
// sensitive to header order, not just presence, so headers are carried as a
// slice rather than a map.
type headerPair struct {
	name  string
	value string
}

// baseHeaderOrder is the fixed header set of Chrome 142 on Android in the
// exact order the browser emits them on a top-level navigation.
var baseHeaderOrder = []headerPair{
	{"Device-Memory", "8"},
	{"Sec-CH-Device-Memory", "8"},
	{"DPR", "2.6187500953674316"},
	{"Sec-CH-DPR", "2.6187500953674316"},
	{"Viewport-Width", "980"},
	{"Sec-CH-Viewport-Width", "980"},
	{"Sec-CH-Viewport-Height", "1920"},
	{"RTT", "200"},
	{"Downlink", "1.55"},
	{"ECT", "4g"},
	{"sec-ch-ua", chromeAndroidSecChUa},
	{"sec-ch-ua-mobile", "?1"},
	{"Sec-CH-UA-Full-Version", chromeAndroidFullVersion},
	{"sec-ch-ua-platform", `"Android"`},
	{"Sec-CH-UA-Platform-Version", chromeAndroidPlatformVersion},
	{"Sec-CH-UA-Model", chromeAndroidModel},
	{"Sec-CH-UA-Full-Version-List", chromeAndroidFullVersionList},
	{"Sec-CH-UA-Form-Factors", `"Mobile"`},
	{"Sec-CH-Prefers-Color-Scheme", "dark"},
	{"Sec-CH-Prefers-Reduced-Motion", "no-preference"},
	{"Sec-CH-Prefers-Reduced-Transparency", "no-preference"},
	{"DNT", "1"},
	{"Upgrade-Insecure-Requests", "1"},
	{"User-Agent", chromeAndroidUserAgent},
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"},
	{"Sec-Fetch-Site", "none"},
	{"Sec-Fetch-Mode", "navigate"},
	{"Sec-Fetch-User", "?1"},
	{"Sec-Fetch-Dest", "document"},
	{"Accept-Encoding", "gzip, deflate, br, zstd"},
	{"Accept-Language", "en-US,en;q=0.9,ru;q=0.8,ka;q=0.7"},
	{"Priority", "u=0, i"},
}

// fingerprint produces the per-request header set. The TLS side of the
// fingerprint is chrome142AndroidProfile and never varies.
type fingerprint struct {
	// roll is the random draw for the optional hints, injectable in tests.
	roll func() float64
}

func newFingerprint() *fingerprint {
	return &fingerprint{roll: rand.Float64}
}

// Headers returns one ordered header list. The architecture hints are
// spliced in at positions keyed to their fixed neighbors: Sec-CH-UA-Arch
// right after Sec-CH-UA-Full-Version (only while sec-ch-ua-platform still
// follows it), Sec-CH-UA-Bitness right after Sec-CH-UA-Model (only when Arch
// came out non-empty and the version list still follows). Moving either hint
// defeats the emulation even with the right values.
func (f *fingerprint) Headers() []headerPair {
	arch := "" // empty placeholder when the draw misses
	bitness := ""
	if f.roll() < lowEntropyProbability {
		arch = chromeAndroidArch
		bitness = chromeAndroidBitness
	}

	out := make([]headerPair, 0, len(baseHeaderOrder)+2)
	for i, h := range baseHeaderOrder {
		out = append(out, h)

		next := ""
		if i+1 < len(baseHeaderOrder) {
			next = baseHeaderOrder[i+1].name
		}

		if h.name == "Sec-CH-UA-Full-Version" && next == "sec-ch-ua-platform" {
			out = append(out, headerPair{"Sec-CH-UA-Arch", arch})
		}

		if h.name == "Sec-CH-UA-Model" && bitness != "" && arch != "" &&
			(next == "Sec-CH-UA-WoW64" || next == "Sec-CH-UA-Full-Version-List") {
			out = append(out, headerPair{"Sec-CH-UA-Bitness", bitness})
		}
	}
	return out
}
