package othellozero

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Statistics is the running win record of every agent, one entry per game.
type Statistics struct {
	Creation []string
	Wins     map[string][]float32
	Losses   map[string][]float32
	Draws    map[string][]float32
}

func makeStatistics() Statistics {
	return Statistics{
		Creation: make([]string, 0, 2),
		Wins:     make(map[string][]float32),
		Losses:   make(map[string][]float32),
		Draws:    make(map[string][]float32),
	}
}

func (s *Statistics) update(A *Agent) {
	A.Lock()
	defer A.Unlock()
	aname := A.Name()

	if _, ok := s.Wins[aname]; !ok {
		s.Creation = append(s.Creation, aname)
	}

	s.Wins[aname] = append(s.Wins[aname], A.Wins)
	s.Losses[aname] = append(s.Losses[aname], A.Loss)
	s.Draws[aname] = append(s.Draws[aname], A.Draw)
}

// Dump writes the win rate of every agent after every game as CSV. The header holds the agent names.
func (s *Statistics) Dump(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Creation); err != nil {
		return err
	}
	var records [][]string
	for i, agent := range s.Creation {
		for j, win := range s.Wins[agent] {
			record := make([]string, len(s.Creation))
			total := win + s.Losses[agent][j] + s.Draws[agent][j]
			var winRate float32
			if total > 0 {
				winRate = win / total
			}

			record[i] = strconv.FormatFloat(float64(winRate), 'f', 3, 32)
			records = append(records, record)
		}
	}
	return cw.WriteAll(records)
}
