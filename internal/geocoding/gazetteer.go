package geocoding

import (
	"strings"

	"github.com/bikeroute/bikeroute/pkg/geo"
)

// GazetteerEntry maps a lookup key to a coordinate.
type GazetteerEntry struct {
	Key        string // postal code or lower-case place name
	Name       string // display name
	Coordinate geo.Coordinate
}

// Gazetteer is an offline lookup of postal codes and place names.
// It is read-only after construction and safe for concurrent use.
type Gazetteer struct {
	postal []GazetteerEntry
	places []GazetteerEntry
	byCode map[string]int
}

// NewGazetteer builds a gazetteer. Place order is the substring-match tie-break.
// Place keys are lower-cased; entries with an empty key are skipped.
func NewGazetteer(postal, places []GazetteerEntry) *Gazetteer {
	g := &Gazetteer{
		postal: make([]GazetteerEntry, 0, len(postal)),
		places: make([]GazetteerEntry, 0, len(places)),
		byCode: make(map[string]int, len(postal)),
	}
	for _, e := range postal {
		e.Key = strings.TrimSpace(e.Key)
		if e.Key == "" {
			continue
		}
		if _, dup := g.byCode[e.Key]; dup {
			continue
		}
		g.byCode[e.Key] = len(g.postal)
		g.postal = append(g.postal, e)
	}
	for _, e := range places {
		e.Key = Normalize(e.Key)
		if e.Key == "" {
			continue
		}
		g.places = append(g.places, e)
	}
	return g
}

// Lookup matches normalized text against postal codes exactly, then against
// place names where either string contains the other. First match wins.
func (g *Gazetteer) Lookup(normalized string) (GazetteerEntry, bool) {
	if g == nil || normalized == "" {
		return GazetteerEntry{}, false
	}

	if i, ok := g.byCode[normalized]; ok {
		return g.postal[i], true
	}

	for _, e := range g.places {
		if strings.Contains(normalized, e.Key) || strings.Contains(e.Key, normalized) {
			return e, true
		}
	}
	return GazetteerEntry{}, false
}

// Size returns the number of postal and place entries.
func (g *Gazetteer) Size() (postal, places int) {
	if g == nil {
		return 0, 0
	}
	return len(g.postal), len(g.places)
}

func entry(key, name string, lat, lon float64) GazetteerEntry {
	return GazetteerEntry{Key: key, Name: name, Coordinate: geo.Coordinate{Lat: lat, Lon: lon}}
}

// BuiltinGazetteer returns the bundled German gazetteer.
func BuiltinGazetteer() *Gazetteer {
	return NewGazetteer(builtinPostalCodes(), builtinPlaces())
}

func builtinPostalCodes() []GazetteerEntry {
	codes := make([]GazetteerEntry, 0, 40)
	for _, plz := range []string{"33602", "33604", "33605", "33607", "33609", "33611", "33613", "33615", "33617", "33619"} {
		codes = append(codes, entry(plz, plz+" Bielefeld", 52.0302, 8.5325))
	}
	codes = append(codes,
		entry("33818", "33818 Leopoldshöhe", 52.0167, 8.7),
		entry("32657", "32657 Lemgo", 52.0286, 8.8998),
		entry("32756", "32756 Detmold", 51.9387, 8.8794),
		entry("32105", "32105 Bad Salzuflen", 52.0864, 8.7491),
		entry("32791", "32791 Lage", 51.9929, 8.7886),
		entry("32825", "32825 Blomberg", 51.9439, 9.0906),
		entry("32805", "32805 Horn-Bad Meinberg", 51.8644, 8.9736),
		entry("33813", "33813 Oerlinghausen", 51.9667, 8.6667),
		entry("32816", "32816 Schieder-Schwalenberg", 51.9167, 9.1667),
		entry("33189", "33189 Schlangen", 51.7833, 8.8333),
		entry("32832", "32832 Augustdorf", 51.9, 8.7333),
		entry("10115", "10115 Berlin", 52.5244, 13.4105),
		entry("10117", "10117 Berlin", 52.5186, 13.3761),
		entry("10119", "10119 Berlin", 52.5297, 13.4019),
	)
	for _, plz := range []string{"80331", "80333", "80335"} {
		codes = append(codes, entry(plz, plz+" München", 48.1374, 11.5755))
	}
	for _, plz := range []string{"20095", "20097", "20099"} {
		codes = append(codes, entry(plz, plz+" Hamburg", 53.5511, 9.9937))
	}
	for _, plz := range []string{"50667", "50668", "50670"} {
		codes = append(codes, entry(plz, plz+" Köln", 50.9375, 6.9603))
	}
	for _, plz := range []string{"60306", "60308", "60311"} {
		codes = append(codes, entry(plz, plz+" Frankfurt am Main", 50.1109, 8.6821))
	}
	return codes
}

func builtinPlaces() []GazetteerEntry {
	return []GazetteerEntry{
		entry("berlin", "Berlin", 52.52, 13.405),
		entry("münchen", "München", 48.1351, 11.582),
		entry("hamburg", "Hamburg", 53.5511, 9.9937),
		entry("köln", "Köln", 50.9375, 6.9603),
		entry("frankfurt", "Frankfurt am Main", 50.1109, 8.6821),
		entry("stuttgart", "Stuttgart", 48.7758, 9.1829),
		entry("düsseldorf", "Düsseldorf", 51.2277, 6.7735),
		entry("dortmund", "Dortmund", 51.5136, 7.4653),
		entry("essen", "Essen", 51.4556, 7.0116),
		entry("leipzig", "Leipzig", 51.3397, 12.3731),
		entry("bremen", "Bremen", 53.0793, 8.8017),
		entry("dresden", "Dresden", 51.0504, 13.7373),
		entry("hannover", "Hannover", 52.3759, 9.732),
		entry("nürnberg", "Nürnberg", 49.4521, 11.0767),
		entry("bielefeld", "Bielefeld", 52.0302, 8.5325),
		entry("münster", "Münster", 51.9607, 7.6261),
		entry("paderborn", "Paderborn", 51.7189, 8.7575),
		entry("lemgo", "Lemgo", 52.0286, 8.8998),
		entry("detmold", "Detmold", 51.9387, 8.8794),
		entry("bad salzuflen", "Bad Salzuflen", 52.0864, 8.7491),
		entry("lage", "Lage", 51.9929, 8.7886),
		entry("blomberg", "Blomberg", 51.9439, 9.0906),
		entry("horn", "Horn-Bad Meinberg", 51.8644, 8.9736),
		entry("leopoldshöhe", "Leopoldshöhe", 52.0167, 8.7),
		entry("oerlinghausen", "Oerlinghausen", 51.9667, 8.6667),
		entry("schieder", "Schieder-Schwalenberg", 51.9167, 9.1667),
		entry("schlangen", "Schlangen", 51.7833, 8.8333),
		entry("augustdorf", "Augustdorf", 51.9, 8.7333),
	}
}
