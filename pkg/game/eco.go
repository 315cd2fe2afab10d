package game

import (
	"encoding/json"
	"strings"
	"sync"
)

// Opening is an ECO opening book entry.
type Opening struct {
	Code  string `json:"eco"`
	Name  string `json:"name"`
	Moves string `json:"moves"` // SAN, space-separated
}

var (
	ecoOnce  sync.Once
	ecoIndex map[string]Opening
)

// LookupOpening returns the opening matching the longest prefix of the given SAN
// line. The book is loaded from the embedded JSON blob on first use.
func LookupOpening(line []string) (Opening, bool) {
	ecoOnce.Do(loadOpenings)

	for n := len(line); n > 0; n-- {
		if op, ok := ecoIndex[strings.Join(line[:n], " ")]; ok {
			return op, true
		}
	}
	return Opening{}, false
}

func loadOpenings() {
	var entries []Opening
	if err := json.Unmarshal([]byte(ecoJSON), &entries); err != nil {
		panic("invalid embedded opening book: " + err.Error())
	}

	ecoIndex = make(map[string]Opening, len(entries))
	for _, e := range entries {
		ecoIndex[e.Moves] = e
	}
}

// ecoJSON is the embedded opening classification blob, keyed by opening line.
const ecoJSON = `[
{"eco":"A00","name":"Polish Opening","moves":"b4"},
{"eco":"A01","name":"Nimzo-Larsen Attack","moves":"b3"},
{"eco":"A02","name":"Bird Opening","moves":"f4"},
{"eco":"A04","name":"Zukertort Opening","moves":"Nf3"},
{"eco":"A10","name":"English Opening","moves":"c4"},
{"eco":"A40","name":"Queen's Pawn Game","moves":"d4"},
{"eco":"A45","name":"Indian Defense","moves":"d4 Nf6"},
{"eco":"A80","name":"Dutch Defense","moves":"d4 f5"},
{"eco":"B00","name":"King's Pawn Game","moves":"e4"},
{"eco":"B01","name":"Scandinavian Defense","moves":"e4 d5"},
{"eco":"B02","name":"Alekhine Defense","moves":"e4 Nf6"},
{"eco":"B06","name":"Modern Defense","moves":"e4 g6"},
{"eco":"B07","name":"Pirc Defense","moves":"e4 d6 d4 Nf6"},
{"eco":"B10","name":"Caro-Kann Defense","moves":"e4 c6"},
{"eco":"B12","name":"Caro-Kann Defense: Advance Variation","moves":"e4 c6 d4 d5 e5"},
{"eco":"B20","name":"Sicilian Defense","moves":"e4 c5"},
{"eco":"B23","name":"Sicilian Defense: Closed","moves":"e4 c5 Nc3"},
{"eco":"B27","name":"Sicilian Defense: Hyperaccelerated Dragon","moves":"e4 c5 Nf3 g6"},
{"eco":"B30","name":"Sicilian Defense: Old Sicilian","moves":"e4 c5 Nf3 Nc6"},
{"eco":"B40","name":"Sicilian Defense: French Variation","moves":"e4 c5 Nf3 e6"},
{"eco":"B50","name":"Sicilian Defense: Modern Variations","moves":"e4 c5 Nf3 d6"},
{"eco":"B90","name":"Sicilian Defense: Najdorf Variation","moves":"e4 c5 Nf3 d6 d4 cxd4 Nxd4 Nf6 Nc3 a6"},
{"eco":"C00","name":"French Defense","moves":"e4 e6"},
{"eco":"C02","name":"French Defense: Advance Variation","moves":"e4 e6 d4 d5 e5"},
{"eco":"C20","name":"King's Pawn Game","moves":"e4 e5"},
{"eco":"C25","name":"Vienna Game","moves":"e4 e5 Nc3"},
{"eco":"C30","name":"King's Gambit","moves":"e4 e5 f4"},
{"eco":"C40","name":"King's Knight Opening","moves":"e4 e5 Nf3"},
{"eco":"C41","name":"Philidor Defense","moves":"e4 e5 Nf3 d6"},
{"eco":"C42","name":"Russian Game","moves":"e4 e5 Nf3 Nf6"},
{"eco":"C44","name":"King's Pawn Game: Tayler Opening","moves":"e4 e5 Nf3 Nc6"},
{"eco":"C45","name":"Scotch Game","moves":"e4 e5 Nf3 Nc6 d4 exd4 Nxd4"},
{"eco":"C50","name":"Italian Game","moves":"e4 e5 Nf3 Nc6 Bc4"},
{"eco":"C53","name":"Italian Game: Classical Variation","moves":"e4 e5 Nf3 Nc6 Bc4 Bc5 c3"},
{"eco":"C55","name":"Italian Game: Two Knights Defense","moves":"e4 e5 Nf3 Nc6 Bc4 Nf6"},
{"eco":"C60","name":"Ruy Lopez","moves":"e4 e5 Nf3 Nc6 Bb5"},
{"eco":"C65","name":"Ruy Lopez: Berlin Defense","moves":"e4 e5 Nf3 Nc6 Bb5 Nf6"},
{"eco":"C68","name":"Ruy Lopez: Exchange Variation","moves":"e4 e5 Nf3 Nc6 Bb5 a6 Bxc6"},
{"eco":"C70","name":"Ruy Lopez: Morphy Defense","moves":"e4 e5 Nf3 Nc6 Bb5 a6"},
{"eco":"D00","name":"Queen's Pawn Game","moves":"d4 d5"},
{"eco":"D02","name":"Queen's Pawn Game: Zukertort Variation","moves":"d4 d5 Nf3"},
{"eco":"D06","name":"Queen's Gambit","moves":"d4 d5 c4"},
{"eco":"D10","name":"Slav Defense","moves":"d4 d5 c4 c6"},
{"eco":"D20","name":"Queen's Gambit Accepted","moves":"d4 d5 c4 dxc4"},
{"eco":"D30","name":"Queen's Gambit Declined","moves":"d4 d5 c4 e6"},
{"eco":"E00","name":"Catalan Opening","moves":"d4 Nf6 c4 e6 g3"},
{"eco":"E20","name":"Nimzo-Indian Defense","moves":"d4 Nf6 c4 e6 Nc3 Bb4"},
{"eco":"E60","name":"King's Indian Defense","moves":"d4 Nf6 c4 g6"}
]`
